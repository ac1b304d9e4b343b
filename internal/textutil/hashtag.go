package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Hashtag folds word into a single #token: accents are stripped, letters and
// digits are kept, everything else is dropped. Returns "" when nothing
// survives.
func Hashtag(word string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), word)
	if err != nil {
		folded = word
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}

// Hashtags folds each entry, splitting on whitespace and commas, and drops
// empty and case-insensitive duplicate tags while keeping first-seen order.
func Hashtags(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range raw {
		for _, word := range strings.FieldsFunc(entry, func(r rune) bool { return unicode.IsSpace(r) || r == ',' }) {
			tag := Hashtag(word)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}
