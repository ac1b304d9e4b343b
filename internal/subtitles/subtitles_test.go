package subtitles

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:        "00:00:00,000",
		1.5:      "00:00:01,500",
		61.001:   "00:01:01,001",
		3723.999: "01:02:03,999",
		59.9996:  "00:01:00,000",
		-3:       "00:00:00,000",
	}
	for in, want := range cases {
		if got := FormatTimestamp(in); got != want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	cues := []Cue{
		{Start: 0, End: 1.25, Text: "Hola a todos"},
		{Start: 1.25, End: 2, Text: "  "},
		{Start: 2, End: 4.5, Text: "bienvenidos\nal canal"},
	}
	path := filepath.Join(t.TempDir(), "clip_transcript.srt")
	if err := WriteFile(path, cues); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cues, got %+v", got)
	}
	if got[1].Index != 2 || got[1].Start != 2 || got[1].End != 4.5 || got[1].Text != "bienvenidos\nal canal" {
		t.Fatalf("unexpected cue %+v", got[1])
	}
	if PlainText(got) != "Hola a todos bienvenidos al canal" {
		t.Fatalf("unexpected plain text %q", PlainText(got))
	}
}

func TestFormatLayout(t *testing.T) {
	want := "1\n00:00:00,000 --> 00:00:01,000\nA\n\n2\n00:00:01,000 --> 00:00:02,000\nB\n"
	got := Format([]Cue{{Start: 0, End: 1, Text: "A"}, {Start: 1, End: 2, Text: "B"}})
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	data := "1\r\n00:00:01,000 --> 00:00:02,000\r\nok\r\n\r\nx\n00:00:03,000 --> 00:00:04,000\nbad index\n\n3\nnot a timing\ntext\n\n4\n00:00:05.500 --> 00:00:06,000\ndot millis\n"
	cues := Parse([]byte(data))
	if len(cues) != 2 || cues[0].Text != "ok" || cues[1].Start != 5.5 {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if Parse([]byte("  ")) != nil {
		t.Fatalf("expected nil for empty content")
	}
}

func TestValidate(t *testing.T) {
	if issues := Validate(nil, 10); len(issues) != 1 || issues[0] != "empty_subtitle_file" {
		t.Fatalf("unexpected issues %v", issues)
	}
	good := []Cue{{Index: 1, Start: 0, End: 1, Text: "a"}, {Index: 2, Start: 1, End: 2, Text: "b"}}
	if issues := Validate(good, 10); len(issues) != 0 {
		t.Fatalf("unexpected issues %v", issues)
	}
	bad := []Cue{{Index: 1, Start: 5, End: 5, Text: "a"}, {Index: 2, Start: 1, End: 20, Text: "b"}}
	issues := strings.Join(Validate(bad, 10), ";")
	for _, want := range []string{"non_positive_duration: cue 1", "out_of_order: cue 2", "ends_after_video"} {
		if !strings.Contains(issues, want) {
			t.Fatalf("expected %q in %s", want, issues)
		}
	}
}

func TestFilterHallucinations(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0, End: 2, Text: "Welcome back."},
		{Index: 2, Start: 2, End: 3, Text: "Thank you."},
		{Index: 3, Start: 40, End: 41, Text: "Thank you."},
		{Index: 4, Start: 80, End: 81, Text: "♪ ♪"},
		{Index: 5, Start: 120, End: 121, Text: "Okay"},
		{Index: 6, Start: 135, End: 136, Text: "okay!"},
		{Index: 7, Start: 150, End: 151, Text: "OKAY"},
	}
	kept, removals := FilterHallucinations(cues)
	if len(kept) != 2 || kept[0].Index != 1 || kept[1].Index != 2 {
		t.Fatalf("unexpected kept cues %+v", kept)
	}
	reasons := map[string]int{}
	for _, r := range removals {
		reasons[r.Reason]++
	}
	if reasons["isolated_hallucination"] != 1 || reasons["music_symbols"] != 1 || reasons["repeated_hallucination"] != 3 {
		t.Fatalf("unexpected removals %v", reasons)
	}
}
