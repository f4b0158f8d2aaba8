package analyzer

import "testing"

func TestNormalize(t *testing.T) {
	stripped := DefaultConfig()
	stripped.StripPunctuation = true

	keepCase := DefaultConfig()
	keepCase.Lowercase = false

	keepSpace := DefaultConfig()
	keepSpace.NormalizeWhitespace = false

	tests := []struct {
		name string
		in   string
		cfg  Config
		want string
	}{
		{"defaults", "  Ala\tMA\n kota  ", DefaultConfig(), "ala ma kota"},
		{"punctuation kept by default", "Hello, World!", DefaultConfig(), "hello, world!"},
		{"strip punctuation", "Hello, World!", stripped, "hello world"},
		{"apostrophe merges", "Can't stop", stripped, "cant stop"},
		{"hyphen merges", "well-known fact", stripped, "wellknown fact"},
		{"lone dash leaves single space", "a - b", stripped, "a b"},
		{"typographic marks", "„Tak”… — rzekł", stripped, "tak rzekł"},
		{"underscore is a word character", "snake_case (x)", stripped, "snake_case x"},
		{"polish lowercase", "ŻÓŁW Ćma", DefaultConfig(), "żółw ćma"},
		{"no lowercase", "Ala Ma", keepCase, "Ala Ma"},
		{"no whitespace collapse", " a  b\n", keepSpace, " a  b\n"},
		{"empty", "", stripped, ""},
		{"only punctuation", "?!...", stripped, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in, tt.cfg); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Ala ma kota",
		"  Hello,   WORLD! \t Goodbye\n\nworld.  ",
		"a - b -- c",
		"„Cytat” — koniec…",
		"ŻÓŁĆ gęślą jaźń",
		"mixed\u00a0nbsp and\u2003em space",
	}

	var configs []Config
	for _, lower := range []bool{true, false} {
		for _, ws := range []bool{true, false} {
			for _, punct := range []bool{true, false} {
				cfg := DefaultConfig()
				cfg.Lowercase, cfg.NormalizeWhitespace, cfg.StripPunctuation = lower, ws, punct
				configs = append(configs, cfg)
			}
		}
	}

	for _, cfg := range configs {
		for _, in := range inputs {
			once := Normalize(in, cfg)
			if twice := Normalize(once, cfg); twice != once {
				t.Errorf("not idempotent with %+v: %q -> %q -> %q", cfg, in, once, twice)
			}
		}
	}
}
