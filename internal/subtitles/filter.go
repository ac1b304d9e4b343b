package subtitles

import (
	"regexp"
	"strings"
	"unicode"
)

// Removal records a cue dropped by FilterHallucinations.
type Removal struct {
	Cue    Cue
	Reason string // isolated_hallucination, repeated_hallucination, music_symbols
}

// Filler phrases speech models produce over silence (normalized form).
var hallucinationPhrases = map[string]bool{
	"thank you":                           true,
	"thank you for watching":              true,
	"thanks for watching":                 true,
	"please subscribe":                    true,
	"like and subscribe":                  true,
	"bye":                                 true,
	"bye bye":                             true,
	"see you next time":                   true,
	"subtitles by the amaraorg community": true,
}

var textNormalizeRe = regexp.MustCompile(`[^a-z0-9\s]`)

// Isolation gap (seconds) on both sides before a filler phrase is dropped.
const isolationGap = 30.0

// FilterHallucinations removes isolated filler phrases, runs of three or more
// identical cues spaced more than 10s apart, and isolated music-only cues.
func FilterHallucinations(cues []Cue) ([]Cue, []Removal) {
	if len(cues) == 0 {
		return cues, nil
	}
	remove := make([]bool, len(cues))
	var removals []Removal
	markRepeated(cues, remove, &removals)

	for i := range cues {
		if remove[i] {
			continue
		}
		isolated := gapToPrevious(cues, i) >= isolationGap && gapToNext(cues, i) >= isolationGap
		if !isolated {
			continue
		}
		switch {
		case hallucinationPhrases[normalizeText(cues[i].Text)]:
			remove[i] = true
			removals = append(removals, Removal{Cue: cues[i], Reason: "isolated_hallucination"})
		case isMusicCue(cues[i].Text):
			remove[i] = true
			removals = append(removals, Removal{Cue: cues[i], Reason: "music_symbols"})
		}
	}

	kept := make([]Cue, 0, len(cues)-len(removals))
	for i, cue := range cues {
		if !remove[i] {
			kept = append(kept, cue)
		}
	}
	return kept, removals
}

func markRepeated(cues []Cue, remove []bool, removals *[]Removal) {
	i := 0
	for i < len(cues) {
		norm := normalizeText(cues[i].Text)
		if norm == "" {
			i++
			continue
		}
		runEnd := i + 1
		for runEnd < len(cues) {
			if normalizeText(cues[runEnd].Text) != norm {
				break
			}
			if cues[runEnd].Start-cues[runEnd-1].End <= 10.0 {
				break
			}
			runEnd++
		}
		if runEnd-i >= 3 {
			for j := i; j < runEnd; j++ {
				remove[j] = true
				*removals = append(*removals, Removal{Cue: cues[j], Reason: "repeated_hallucination"})
			}
		}
		i = runEnd
	}
}

func gapToPrevious(cues []Cue, i int) float64 {
	if i == 0 {
		return cues[i].Start
	}
	return cues[i].Start - cues[i-1].End
}

func gapToNext(cues []Cue, i int) float64 {
	if i >= len(cues)-1 {
		return 1e9
	}
	return cues[i+1].Start - cues[i].End
}

func isMusicCue(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		switch {
		case r == '¶', r == '♪', r == '♫', r == '*':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = textNormalizeRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
