package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromStem turns a file stem like "my_trip-2024" into "My Trip 2024".
// Separators become single spaces and other punctuation is dropped.
func TitleFromStem(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.'
	})
	for i, w := range words {
		words[i] = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				return r
			}
			return -1
		}, w)
	}
	return cases.Title(language.Und).String(strings.Join(strings.Fields(strings.Join(words, " ")), " "))
}
