package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Cue is one timed subtitle block.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Parse reads SRT content. Malformed blocks are skipped.
func Parse(data []byte) []Cue {
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return nil
	}
	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			continue
		}
		start, err := parseTimestamp(parts[0])
		if err != nil {
			continue
		}
		end, err := parseTimestamp(parts[1])
		if err != nil {
			continue
		}
		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: strings.Join(lines[2:], "\n")})
	}
	return cues
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(data), nil
}

// Format renders cues as SRT, numbering them from 1. Cues with empty text are
// skipped.
func Format(cues []Cue) string {
	var b strings.Builder
	n := 0
	for _, cue := range cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		n++
		if n > 1 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", n, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), text)
	}
	return b.String()
}

// WriteFile stores cues at path.
func WriteFile(path string, cues []Cue) error {
	if err := os.WriteFile(path, []byte(Format(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	s := (total / 1000) % 60
	m := (total / 60000) % 60
	h := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// PlainText joins cue texts with single spaces.
func PlainText(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		if text := strings.Join(strings.Fields(cue.Text), " "); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Validate reports format problems. An empty result means the cues are usable.
func Validate(cues []Cue, videoSeconds float64) []string {
	if len(cues) == 0 {
		return []string{"empty_subtitle_file"}
	}
	var issues []string
	prevStart := -1.0
	for _, cue := range cues {
		if cue.End <= cue.Start {
			issues = append(issues, fmt.Sprintf("non_positive_duration: cue %d", cue.Index))
		}
		if cue.Start < prevStart {
			issues = append(issues, fmt.Sprintf("out_of_order: cue %d", cue.Index))
		}
		prevStart = cue.Start
	}
	if videoSeconds > 0 {
		if last := cues[len(cues)-1].End; last > videoSeconds+1 {
			issues = append(issues, fmt.Sprintf("ends_after_video: delta=%.1fs", last-videoSeconds))
		}
	}
	return issues
}
