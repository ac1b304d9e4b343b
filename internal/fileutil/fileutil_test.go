package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "part_001.mp4")
	dst := filepath.Join(dir, "talk_combined.mp4")
	content := []byte("fragment bytes")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %v, want 0644", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected no temporary files left, got %d entries", len(entries))
	}
}

func TestCopyFileVerifiedMissingSourceLeavesDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(dst, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(filepath.Join(dir, "missing.mp4"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "keep" {
		t.Fatalf("destination changed: %q, %v", got, err)
	}
}

func TestCopyFileVerifiedMissingDestinationDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, filepath.Join(dir, "nope", "dst.mp4")); err == nil {
		t.Fatal("expected error for missing destination directory")
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip_audio.wav")
	removed, err := RemoveIfExists(path)
	if err != nil || removed {
		t.Fatalf("missing file: removed=%v err=%v", removed, err)
	}
	if err := os.WriteFile(path, []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	removed, err = RemoveIfExists(path)
	if err != nil || !removed {
		t.Fatalf("existing file: removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file gone, stat err=%v", err)
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"/videos/clip.mp4":         "clip",
		"talk.final.mov":           "talk.final",
		"noext":                    "noext",
		"/tmp/.hidden":             ".hidden",
		"dir/lecture_part_001.mkv": "lecture_part_001",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
