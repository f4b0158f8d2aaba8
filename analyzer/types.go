package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SplitMode selects how text is divided into sentences for SER
type SplitMode string

const (
	SplitSimple  SplitMode = "simple"
	SplitNewline SplitMode = "newline"
)

// ErrInvalidSplitMode is returned for any split mode other than simple or newline
var ErrInvalidSplitMode = errors.New("invalid sentence split mode")

// ParseSplitMode converts a user supplied value into a SplitMode
func ParseSplitMode(s string) (SplitMode, error) {
	mode := SplitMode(s)
	if err := mode.Validate(); err != nil {
		return "", err
	}
	return mode, nil
}

func (m SplitMode) Validate() error {
	switch m {
	case SplitSimple, SplitNewline:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidSplitMode, string(m))
}

func (m SplitMode) String() string {
	return string(m)
}

// UnmarshalText rejects unknown modes so bad JSON fails at decode time.
func (m *SplitMode) UnmarshalText(text []byte) error {
	mode, err := ParseSplitMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Config controls normalization and metric options
type Config struct {
	Lowercase           bool      `json:"lowercase"`
	NormalizeWhitespace bool      `json:"normalizeWhitespace"`
	StripPunctuation    bool      `json:"stripPunctuation"`
	SentenceSplit       SplitMode `json:"sentenceSplit"`
	CERIncludeSpaces    bool      `json:"cerIncludeSpaces"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Lowercase:           true,
		NormalizeWhitespace: true,
		StripPunctuation:    false,
		SentenceSplit:       SplitSimple,
		CERIncludeSpaces:    false,
	}
}

func (c Config) Validate() error {
	return c.SentenceSplit.Validate()
}

// UnmarshalJSON fills fields missing from data with DefaultConfig values.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	cfg := plain(DefaultConfig())
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	*c = Config(cfg)
	return nil
}

// MetricResult holds a single error rate with the counts it was derived from.
// Errors is the edit count for WER/CER and the number of wrong sentences for SER.
// Total is the reference word, sentence or character count.
type MetricResult struct {
	Ratio  float64 `json:"ratio"`
	Errors int     `json:"errors"`
	Total  int     `json:"total"`
}

// Report bundles the three metrics for one reference/hypothesis pair
type Report struct {
	WER               MetricResult `json:"wer"`
	SER               MetricResult `json:"ser"`
	CER               MetricResult `json:"cer"`
	SplitMode         SplitMode    `json:"splitMode"`
	CERIncludesSpaces bool         `json:"cerIncludesSpaces"`
}

// AnalysisResult represents a stored report for a job
type AnalysisResult struct {
	FileName  string    `json:"file_name"`
	Report    Report    `json:"report"`
	Timestamp time.Time `json:"timestamp"`
}
