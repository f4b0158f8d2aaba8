package analyzer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PunctuationV1 is the set of runes removed when punctuation stripping is on.
// ASCII punctuation and symbols except '_' plus common typographic marks.
// Changing the set changes scores, so add a new version instead of editing it.
const PunctuationV1 = "!\"#$%&'()*+,-./:;<=>?@[\\]^`{|}~" +
	"‐‑‒–—―" + // hyphens and dashes
	"…" + // ellipsis
	"‘’‚‛“”„‟" + // quotes
	"«»‹›" + // guillemets
	"¡¿" + // inverted ! and ?
	"·•§¶′″"

var punctuation = func() map[rune]struct{} {
	set := make(map[rune]struct{}, len(PunctuationV1))
	for _, r := range PunctuationV1 {
		set[r] = struct{}{}
	}
	return set
}()

// Normalize applies the text transformations enabled in cfg
func Normalize(text string, cfg Config) string {
	if cfg.Lowercase {
		// cases.Caser keeps state, so one per call
		text = cases.Lower(language.Und).String(text)
	}
	if cfg.StripPunctuation {
		text = stripPunctuation(text)
	}
	if cfg.NormalizeWhitespace {
		text = collapseWhitespace(text)
	}
	return text
}

func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := punctuation[r]; ok {
			return -1
		}
		return r
	}, text)
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
