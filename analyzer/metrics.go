package analyzer

import (
	"strings"
	"unicode"
)

// ComputeWER calculates Word Error Rate between reference and hypothesis
// WER = (S + D + I) / N
// where S = substitutions, D = deletions, I = insertions, N = total words in reference
func ComputeWER(reference, hypothesis string, cfg Config) MetricResult {
	refWords := strings.Fields(Normalize(reference, cfg))
	hypWords := strings.Fields(Normalize(hypothesis, cfg))

	distance := Levenshtein(refWords, hypWords)
	return newResult(distance, len(refWords), len(hypWords))
}

// ComputeCER calculates Character Error Rate between reference and hypothesis
// CER = (S + D + I) / N
// where N = total characters in reference, without whitespace unless cfg.CERIncludeSpaces
func ComputeCER(reference, hypothesis string, cfg Config) MetricResult {
	refNorm := Normalize(reference, cfg)
	hypNorm := Normalize(hypothesis, cfg)
	if !cfg.CERIncludeSpaces {
		refNorm = removeWhitespace(refNorm)
		hypNorm = removeWhitespace(hypNorm)
	}

	refChars := []rune(refNorm)
	hypChars := []rune(hypNorm)

	distance := Levenshtein(refChars, hypChars)
	return newResult(distance, len(refChars), len(hypChars))
}

// ComputeSER calculates Sentence Error Rate between reference and hypothesis.
// Sentences are paired by position; a reference sentence counts as an error when
// the hypothesis has no sentence at that index or the normalized sentences differ.
// Extra hypothesis sentences are ignored.
func ComputeSER(reference, hypothesis string, cfg Config) (MetricResult, error) {
	refSents, err := normalizedSentences(reference, cfg)
	if err != nil {
		return MetricResult{}, err
	}
	hypSents, err := normalizedSentences(hypothesis, cfg)
	if err != nil {
		return MetricResult{}, err
	}

	if len(refSents) == 0 {
		if len(hypSents) == 0 {
			return MetricResult{}, nil
		}
		return MetricResult{Ratio: 1.0, Errors: 1}, nil
	}

	mismatches := 0
	for i, ref := range refSents {
		if i >= len(hypSents) || hypSents[i] != ref {
			mismatches++
		}
	}
	return newResult(mismatches, len(refSents), len(hypSents)), nil
}

// Compute validates cfg and calculates all three metrics
func Compute(reference, hypothesis string, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	ser, err := ComputeSER(reference, hypothesis, cfg)
	if err != nil {
		return Report{}, err
	}

	return Report{
		WER:               ComputeWER(reference, hypothesis, cfg),
		SER:               ser,
		CER:               ComputeCER(reference, hypothesis, cfg),
		SplitMode:         cfg.SentenceSplit,
		CERIncludesSpaces: cfg.CERIncludeSpaces,
	}, nil
}

// normalizedSentences splits text before punctuation is stripped so that
// sentence terminators survive, then normalizes each sentence with cfg.
func normalizedSentences(text string, cfg Config) ([]string, error) {
	pre := cfg
	pre.StripPunctuation = false
	if cfg.SentenceSplit == SplitNewline {
		// collapsing whitespace would erase the line breaks
		pre.NormalizeWhitespace = false
	}

	sentences, err := SplitSentences(Normalize(text, pre), cfg.SentenceSplit)
	if err != nil {
		return nil, err
	}
	for i, s := range sentences {
		sentences[i] = Normalize(s, cfg)
	}
	return sentences, nil
}

// newResult applies the empty reference convention:
// 0 when both sides are empty, 1 when only the reference is.
func newResult(edits, total, hypLen int) MetricResult {
	if total == 0 {
		if hypLen == 0 {
			return MetricResult{Errors: edits}
		}
		return MetricResult{Ratio: 1.0, Errors: edits}
	}
	return MetricResult{
		Ratio:  float64(edits) / float64(total),
		Errors: edits,
		Total:  total,
	}
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
