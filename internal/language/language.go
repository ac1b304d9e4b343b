package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages recognized by English name ("spanish") in addition to codes.
var named = []xlanguage.Tag{
	xlanguage.English, xlanguage.Spanish, xlanguage.French, xlanguage.German,
	xlanguage.Italian, xlanguage.Portuguese, xlanguage.Japanese, xlanguage.Korean,
	xlanguage.Chinese, xlanguage.Russian, xlanguage.Arabic, xlanguage.Hindi,
	xlanguage.Dutch, xlanguage.Polish, xlanguage.Swedish, xlanguage.Danish,
	xlanguage.Norwegian, xlanguage.Finnish, xlanguage.Catalan, xlanguage.Turkish,
}

var byName = func() map[string]string {
	names := display.English.Languages()
	m := make(map[string]string, len(named))
	for _, tag := range named {
		base, _ := tag.Base()
		m[strings.ToLower(names.Name(tag))] = base.String()
	}
	return m
}()

// ToISO2 converts a language code (ISO 639-1, ISO 639-2/3, BCP 47) or an
// English language name to its 2-letter code. Returns "" when the input is
// empty, unrecognized or has no 2-letter form.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if iso, ok := byName[code]; ok {
		return iso
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == xlanguage.No {
		return ""
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// DisplayName returns the English name for any recognized code, the
// uppercased input otherwise, and "Unknown" for empty input.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	iso := ToISO2(code)
	if iso == "" {
		return strings.ToUpper(code)
	}
	return display.English.Languages().Name(xlanguage.Make(iso))
}
