package fragment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"reelcut/internal/media"
	"reelcut/internal/services"
)

type fakeMedia struct {
	infos   map[string]media.Info
	cuts    []Window
	joined  []string
	cutErr  error
	joinErr error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{infos: map[string]media.Info{}}
}

func (f *fakeMedia) Inspect(_ context.Context, path string) (media.Info, error) {
	info, ok := f.infos[path]
	if !ok {
		return media.Info{}, fmt.Errorf("no such media %s", path)
	}
	return info, nil
}

func (f *fakeMedia) Open(ctx context.Context, path string) (*media.Handle, error) {
	info, err := f.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	return media.NewHandle(info), nil
}

func (f *fakeMedia) CutWindow(_ context.Context, source string, start, end float64, dest string, _ bool) error {
	if f.cutErr != nil && len(f.cuts) == 1 {
		return f.cutErr
	}
	f.cuts = append(f.cuts, Window{Index: len(f.cuts), Start: start, End: end})
	info := f.infos[source]
	info.Path = dest
	info.Duration = end - start
	f.infos[dest] = info
	return os.WriteFile(dest, []byte("fragment"), 0o644)
}

func (f *fakeMedia) Concat(_ context.Context, paths []string, dest string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joined = append([]string(nil), paths...)
	total := 0.0
	info := f.infos[paths[0]]
	for _, p := range paths {
		total += f.infos[p].Duration
	}
	info.Path = dest
	info.Duration = total
	f.infos[dest] = info
	return os.WriteFile(dest, []byte("combined"), 0o644)
}

func baseInfo(path string, duration float64, size int64) media.Info {
	return media.Info{
		Path: path, Duration: duration, SizeBytes: size,
		Width: 1920, Height: 1080, FrameRate: 30,
		SampleRate: 48000, Channels: 2, VideoCodec: "h264", AudioCodec: "aac",
	}
}

func TestPlanEqualWindowsEndAtDuration(t *testing.T) {
	windows := Plan(100, 250*BytesPerMiB, 100*BytesPerMiB)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if windows[0].Start != 0 || windows[2].End != 100 {
		t.Fatalf("windows must cover [0, duration): %v", windows)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].Start != windows[i-1].End {
			t.Fatalf("gap or overlap between windows %d and %d", i-1, i)
		}
	}
}

func TestPlanFitsBudgetReturnsNoWindows(t *testing.T) {
	if w := Plan(100, 50*BytesPerMiB, 100*BytesPerMiB); len(w) != 0 {
		t.Fatalf("expected no windows when file fits, got %v", w)
	}
	if w := Plan(100, 100*BytesPerMiB, 100*BytesPerMiB); len(w) != 0 {
		t.Fatalf("expected no windows when size equals budget, got %v", w)
	}
	if w := Plan(0, 500, 100); len(w) != 0 {
		t.Fatalf("expected no windows for zero duration, got %v", w)
	}
}

func TestSplitReturnsEmptyWhenFileFits(t *testing.T) {
	fm := newFakeMedia()
	fm.infos["talk.mp4"] = baseInfo("talk.mp4", 60, 10*BytesPerMiB)
	s := NewSplitter(fm, fm, t.TempDir(), false, nil)

	fragments, err := s.Split(context.Background(), "talk.mp4", 100)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(fragments) != 0 {
		t.Fatalf("expected empty fragment list, got %v", fragments)
	}
	if len(fm.cuts) != 0 {
		t.Fatal("expected no cuts")
	}
}

func TestSplitNamesFragmentsByPosition(t *testing.T) {
	dir := t.TempDir()
	fm := newFakeMedia()
	fm.infos["/in/lecture.mkv"] = baseInfo("/in/lecture.mkv", 90, 25*BytesPerMiB)
	s := NewSplitter(fm, fm, dir, true, nil)

	fragments, err := s.Split(context.Background(), "/in/lecture.mkv", 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(fragments))
	}
	for i, f := range fragments {
		want := filepath.Join(dir, fmt.Sprintf("lecture_part_%03d.mkv", i+1))
		if f.Path != want || f.Order != i {
			t.Fatalf("fragment %d = %+v, want path %s", i, f, want)
		}
	}
	if fragments[2].End != 90 {
		t.Fatalf("last fragment must end at duration, got %v", fragments[2].End)
	}
}

func TestSplitRejectsNonPositiveBudget(t *testing.T) {
	s := NewSplitter(newFakeMedia(), nil, t.TempDir(), false, nil)
	_, err := s.Split(context.Background(), "x.mp4", 0)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSplitRemovesPartialFragmentsOnFailure(t *testing.T) {
	dir := t.TempDir()
	fm := newFakeMedia()
	fm.infos["big.mp4"] = baseInfo("big.mp4", 30, 30*BytesPerMiB)
	fm.cutErr = errors.New("ffmpeg died")
	s := NewSplitter(fm, fm, dir, false, nil)

	_, err := s.Split(context.Background(), "big.mp4", 10)
	if !errors.Is(err, services.ErrMediaIO) {
		t.Fatalf("expected media io error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected partial fragments removed, found %d", len(entries))
	}
}

func TestSplitCombineRoundTripPreservesDuration(t *testing.T) {
	for _, budget := range []int{1, 3, 7, 20} {
		dir := t.TempDir()
		fm := newFakeMedia()
		fm.infos["src.mp4"] = baseInfo("src.mp4", 123.456, 40*BytesPerMiB)
		s := NewSplitter(fm, fm, dir, false, nil)
		c := NewCombiner(fm, fm, fm, nil)

		fragments, err := s.Split(context.Background(), "src.mp4", budget)
		if err != nil {
			t.Fatalf("Split(%d): %v", budget, err)
		}
		if len(fragments) < 2 {
			t.Fatalf("budget %d: expected a split, got %d fragments", budget, len(fragments))
		}
		result, err := c.Combine(context.Background(), fragments, filepath.Join(dir, "src_combined.mp4"))
		if err != nil {
			t.Fatalf("Combine: %v", err)
		}
		if math.Abs(result.Duration-123.456) > 1e-9 || math.Abs(result.Expected-123.456) > 1e-9 {
			t.Fatalf("budget %d: duration %v expected %v, want 123.456", budget, result.Duration, result.Expected)
		}
	}
}

func TestCombineOrdersByOrderNotInput(t *testing.T) {
	dir := t.TempDir()
	fm := newFakeMedia()
	var fragments []Fragment
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("f%d.mp4", i))
		fm.infos[p] = baseInfo(p, 10, 1)
		fragments = append(fragments, Fragment{Path: p, Order: i})
	}
	shuffled := []Fragment{fragments[2], fragments[0], fragments[1]}
	c := NewCombiner(fm, fm, fm, nil)
	if _, err := c.Combine(context.Background(), shuffled, filepath.Join(dir, "out.mp4")); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	for i, p := range fm.joined {
		if p != fragments[i].Path {
			t.Fatalf("joined[%d] = %s, want %s", i, p, fragments[i].Path)
		}
	}
}

func TestCombineRejectsDuplicateOrder(t *testing.T) {
	fm := newFakeMedia()
	c := NewCombiner(fm, fm, fm, nil)
	_, err := c.Combine(context.Background(), []Fragment{{Path: "a", Order: 1}, {Path: "b", Order: 1}}, "out.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCombineRejectsIncompatibleFragments(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*media.Info)
	}{
		{"frame rate", func(i *media.Info) { i.FrameRate = 25 }},
		{"frame size", func(i *media.Info) { i.Width = 1280 }},
		{"sample rate", func(i *media.Info) { i.SampleRate = 44100 }},
		{"channel count", func(i *media.Info) { i.Channels = 1 }},
		{"video codec", func(i *media.Info) { i.VideoCodec = "hevc" }},
		{"audio codec", func(i *media.Info) { i.AudioCodec = "opus" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			fm := newFakeMedia()
			fm.infos["a.mp4"] = baseInfo("a.mp4", 5, 1)
			b := baseInfo("b.mp4", 5, 1)
			tc.mutate(&b)
			fm.infos["b.mp4"] = b
			c := NewCombiner(fm, fm, fm, nil)

			_, err := c.Combine(context.Background(), []Fragment{{Path: "a.mp4", Order: 0}, {Path: "b.mp4", Order: 1}}, "out.mp4")
			if !errors.Is(err, services.ErrIncompatibleFragment) {
				t.Fatalf("expected incompatible fragment error, got %v", err)
			}
			var incompatible *IncompatibleFragmentError
			if !errors.As(err, &incompatible) || incompatible.Field != tc.field || incompatible.Order != 1 {
				t.Fatalf("unexpected error detail: %v", err)
			}
			if len(fm.joined) != 0 {
				t.Fatal("concat must not run on incompatible fragments")
			}
		})
	}
}

func TestCombineSingleFragmentCopies(t *testing.T) {
	dir := t.TempDir()
	fm := newFakeMedia()
	src := filepath.Join(dir, "only.mp4")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fm.infos[src] = baseInfo(src, 8, 7)
	out := filepath.Join(dir, "only_combined.mp4")
	fm.infos[out] = baseInfo(out, 8, 7)
	c := NewCombiner(fm, fm, fm, nil)

	result, err := c.Combine(context.Background(), []Fragment{{Path: src}}, out)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "payload" {
		t.Fatalf("expected copied payload, got %q (%v)", data, err)
	}
	if len(fm.joined) != 0 {
		t.Fatal("single fragment should be copied, not concatenated")
	}
	if result.Duration != 8 {
		t.Fatalf("unexpected duration %v", result.Duration)
	}
}

func TestCombineRejectsEmpty(t *testing.T) {
	c := NewCombiner(newFakeMedia(), nil, nil, nil)
	if _, err := c.Combine(context.Background(), nil, "out.mp4"); err == nil {
		t.Fatal("expected error for empty fragment list")
	}
}

func TestRemoveIgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a_part_001.mp4")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Remove([]Fragment{{Path: present}, {Path: filepath.Join(dir, "missing.mp4")}}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Fatal("expected fragment removed")
	}
}
