package analyzer

import "strings"

var sentenceEnders = map[rune]bool{'.': true, '!': true, '?': true}

// SplitSentences divides text into trimmed, non-empty sentences.
// Returns ErrInvalidSplitMode for unknown modes.
func SplitSentences(text string, mode SplitMode) ([]string, error) {
	var isBoundary func(rune) bool
	switch mode {
	case SplitSimple:
		isBoundary = func(r rune) bool { return sentenceEnders[r] }
	case SplitNewline:
		isBoundary = isLineBreak
	default:
		return nil, mode.Validate()
	}

	// FieldsFunc treats runs of boundaries as one, which also drops empty parts
	parts := strings.FieldsFunc(text, isBoundary)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences, nil
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
