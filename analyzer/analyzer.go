package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"transcript-metrics/utils"

	"go.uber.org/zap"
)

// fetchObject is swapped out in tests
var fetchObject = utils.DownloadS3Object

// ConfigFromEnv returns DefaultConfig overridden by the EVAL_* environment variables
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.Lowercase, err = envBool("EVAL_LOWERCASE", cfg.Lowercase); err != nil {
		return Config{}, err
	}
	if cfg.NormalizeWhitespace, err = envBool("EVAL_NORMALIZE_WHITESPACE", cfg.NormalizeWhitespace); err != nil {
		return Config{}, err
	}
	if cfg.StripPunctuation, err = envBool("EVAL_STRIP_PUNCTUATION", cfg.StripPunctuation); err != nil {
		return Config{}, err
	}
	if cfg.CERIncludeSpaces, err = envBool("EVAL_CER_INCLUDE_SPACES", cfg.CERIncludeSpaces); err != nil {
		return Config{}, err
	}
	mode, err := ParseSplitMode(utils.GetEnvOrDefault("EVAL_SENTENCE_SPLIT", string(cfg.SentenceSplit)))
	if err != nil {
		return Config{}, fmt.Errorf("EVAL_SENTENCE_SPLIT: %w", err)
	}
	cfg.SentenceSplit = mode

	return cfg, nil
}

func envBool(key string, def bool) (bool, error) {
	v, err := strconv.ParseBool(utils.GetEnvOrDefault(key, strconv.FormatBool(def)))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// AnalyzeTranscripts downloads a reference and a hypothesis transcript and scores them
func AnalyzeTranscripts(ctx context.Context, logger *zap.Logger, bucket, referencePath, hypothesisPath string, cfg Config) (*AnalysisResult, error) {
	logger.Info("Starting transcription analysis process")

	// Fail before any download if the config is unusable
	if err := cfg.Validate(); err != nil {
		utils.EvaluationFailures.WithLabelValues("config").Inc()
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	reference, err := downloadText(ctx, bucket, referencePath)
	if err != nil {
		logger.Error("File download failed", zap.Error(err))
		utils.EvaluationFailures.WithLabelValues("download").Inc()
		return nil, fmt.Errorf("failed to download reference file: %w", err)
	}
	logger.Debug("Successfully downloaded reference file", zap.Int("size_bytes", len(reference)))

	hypothesis, err := downloadText(ctx, bucket, hypothesisPath)
	if err != nil {
		logger.Error("File download failed", zap.Error(err))
		utils.EvaluationFailures.WithLabelValues("download").Inc()
		return nil, fmt.Errorf("failed to download hypothesis file: %w", err)
	}
	logger.Debug("Successfully downloaded hypothesis file", zap.Int("size_bytes", len(hypothesis)))

	start := time.Now()
	report, err := Compute(reference, hypothesis, cfg)
	if err != nil {
		logger.Error("Metrics computation failed", zap.Error(err))
		utils.EvaluationFailures.WithLabelValues("compute").Inc()
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}
	ObserveReport(utils.SourceSubscriber, report, time.Since(start))

	result := &AnalysisResult{
		FileName:  extractJobFromPath(hypothesisPath),
		Report:    report,
		Timestamp: time.Now().UTC(),
	}

	logger.Info("Transcription analysis completed successfully",
		zap.Float64("wer", report.WER.Ratio),
		zap.Float64("ser", report.SER.Ratio),
		zap.Float64("cer", report.CER.Ratio),
		zap.String("split", report.SplitMode.String()))

	return result, nil
}

// ObserveReport records a finished evaluation in the Prometheus collectors
func ObserveReport(source string, report Report, elapsed time.Duration) {
	utils.EvaluationsTotal.WithLabelValues(source).Inc()
	utils.EvaluationDuration.Observe(elapsed.Seconds())
	utils.LastErrorRate.WithLabelValues("wer").Set(report.WER.Ratio)
	utils.LastErrorRate.WithLabelValues("ser").Set(report.SER.Ratio)
	utils.LastErrorRate.WithLabelValues("cer").Set(report.CER.Ratio)
}

func downloadText(ctx context.Context, bucket, key string) (string, error) {
	data, err := fetchObject(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("failed to download file from S3: %w", err)
	}
	return string(data), nil
}

// extractJobFromPath extracts a job identifier from a file path
// For example: "job-123/job-123_hypothesis.txt" -> "job-123"
func extractJobFromPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return path
}
