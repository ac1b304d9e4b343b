package language

import "testing"

func TestToISO2(t *testing.T) {
	cases := map[string]string{
		"":         "",
		"es":       "es",
		" EN ":     "en",
		"spa":      "es",
		"fra":      "fr",
		"es-MX":    "es",
		"Spanish":  "es",
		"german":   "de",
		"klingon":  "",
		"notalang": "",
	}
	for in, want := range cases {
		if got := ToISO2(in); got != want {
			t.Fatalf("ToISO2(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"":        "Unknown",
		"es":      "Spanish",
		"deu":     "German",
		"english": "English",
		"zz9":     "ZZ9",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
