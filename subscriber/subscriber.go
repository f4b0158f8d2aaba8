package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"transcript-metrics/analyzer"
	"transcript-metrics/utils"
	valkeystore "transcript-metrics/valkey"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

const TranscribeCompleteChannel = "transcribe_complete"

// CachePrefix is the key prefix for cached analysis results
const CachePrefix = "analysis"

var errEmptyJob = errors.New("empty transcription job message")

// TranscribeCompletePayload represents the data structure for transcribe_complete events
type TranscribeCompletePayload struct {
	Job            string           `json:"job"`
	Bucket         string           `json:"bucket"`
	ReferenceFile  string           `json:"referenceFile"`
	HypothesisFile string           `json:"hypothesisFile"`
	Config         *analyzer.Config `json:"config,omitempty"`
}

// DefaultBucket is where uploads land and where plain job ids are looked up
func DefaultBucket() string {
	return utils.GetEnvOrDefault("AWS_BUCKET", "transcript-data")
}

// ReferenceKey and HypothesisKey are the object keys used for a job
func ReferenceKey(job string) string {
	return fmt.Sprintf("%s/%s_reference.txt", job, job)
}

func HypothesisKey(job string) string {
	return fmt.Sprintf("%s/%s_hypothesis.txt", job, job)
}

// NewJobPayload builds the payload for a job stored under the default keys
func NewJobPayload(job string, cfg *analyzer.Config) TranscribeCompletePayload {
	return TranscribeCompletePayload{
		Job:            job,
		Bucket:         DefaultBucket(),
		ReferenceFile:  ReferenceKey(job),
		HypothesisFile: HypothesisKey(job),
		Config:         cfg,
	}
}

// StartSubscribers starts the transcription subscriber
func StartSubscribers(logger *zap.Logger) {
	go startSubscriber(logger, TranscribeCompleteChannel, processTranscriptionJob)
}

func startSubscriber(logger *zap.Logger, channel string, processor func(*zap.Logger, string)) {
	sugar := logger.Sugar()
	sugar.Infow("Message subscriber started",
		"channel", channel)

	ctx := context.Background()
	vk := valkeystore.RawClient
	subscribe := vk.B().Subscribe().Channel(channel).Build()

	// Receive blocks until the connection drops, so resubscribe after a pause
	for {
		err := vk.Receive(ctx, subscribe, func(msg valkey.PubSubMessage) {
			if strings.TrimSpace(msg.Message) == "" {
				sugar.Warnw("Received empty message from pub/sub",
					"channel", channel)
				return
			}
			go processor(logger, msg.Message)
		})
		sugar.Errorw("Subscription interrupted",
			"channel", channel,
			"error", err)
		time.Sleep(5 * time.Second)
	}
}

// ParsePayload accepts a JSON payload, a quoted job id or a plain job id
func ParsePayload(message string) (TranscribeCompletePayload, error) {
	if strings.HasPrefix(strings.TrimSpace(message), "{") {
		var payload TranscribeCompletePayload
		if err := json.Unmarshal([]byte(message), &payload); err != nil {
			return TranscribeCompletePayload{}, fmt.Errorf("decode payload: %w", err)
		}
		if strings.TrimSpace(payload.Job) == "" {
			return TranscribeCompletePayload{}, errEmptyJob
		}
		fillDefaults(&payload)
		return payload, nil
	}

	job := message
	if unquoted, err := strconv.Unquote(message); err == nil {
		job = unquoted
	}
	job = strings.TrimSpace(job)
	if job == "" {
		return TranscribeCompletePayload{}, errEmptyJob
	}
	return NewJobPayload(job, nil), nil
}

func fillDefaults(p *TranscribeCompletePayload) {
	if p.Bucket == "" {
		p.Bucket = DefaultBucket()
	}
	if p.ReferenceFile == "" {
		p.ReferenceFile = ReferenceKey(p.Job)
	}
	if p.HypothesisFile == "" {
		p.HypothesisFile = HypothesisKey(p.Job)
	}
}

func processTranscriptionJob(logger *zap.Logger, message string) {
	ctx := context.Background()
	sugar := logger.Sugar()

	payload, err := ParsePayload(message)
	if err != nil {
		sugar.Errorw("Invalid transcription job message",
			"error", err)
		utils.EvaluationFailures.WithLabelValues("payload").Inc()
		return
	}

	cfg, err := jobConfig(payload)
	if err != nil {
		sugar.Errorw("Invalid analysis config",
			"job", payload.Job,
			"error", err)
		utils.EvaluationFailures.WithLabelValues("config").Inc()
		return
	}

	sugar.Infow("Processing transcription analysis request",
		"job", payload.Job)

	result, err := analyzer.AnalyzeTranscripts(ctx, logger, payload.Bucket, payload.ReferenceFile, payload.HypothesisFile, cfg)
	if err != nil {
		sugar.Errorw("Analysis process failed",
			"job", payload.Job,
			"error", err)
		return
	}
	result.FileName = payload.Job

	if err := StoreAnalysisResult(ctx, logger, result); err != nil {
		sugar.Errorw("Result storage failed",
			"job", payload.Job,
			"error", err)
		utils.EvaluationFailures.WithLabelValues("store").Inc()
		return
	}

	sugar.Infow("Transcription analysis stored",
		"job", payload.Job)
}

func jobConfig(p TranscribeCompletePayload) (analyzer.Config, error) {
	if p.Config != nil {
		return *p.Config, p.Config.Validate()
	}
	return analyzer.ConfigFromEnv()
}

// StoreAnalysisResult upserts the result into Postgres and caches it in Valkey
func StoreAnalysisResult(ctx context.Context, logger *zap.Logger, result *analyzer.AnalysisResult) error {
	sugar := logger.Sugar()
	r := result.Report

	_, err := utils.DB.ExecContext(ctx, `
		INSERT INTO analysis_results (
			file_name, wer, ser, cer,
			wer_edits, wer_words, ser_errors, ser_sentences, cer_edits, cer_chars,
			split_mode, cer_includes_spaces, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (file_name) DO UPDATE SET
			wer = EXCLUDED.wer,
			ser = EXCLUDED.ser,
			cer = EXCLUDED.cer,
			wer_edits = EXCLUDED.wer_edits,
			wer_words = EXCLUDED.wer_words,
			ser_errors = EXCLUDED.ser_errors,
			ser_sentences = EXCLUDED.ser_sentences,
			cer_edits = EXCLUDED.cer_edits,
			cer_chars = EXCLUDED.cer_chars,
			split_mode = EXCLUDED.split_mode,
			cer_includes_spaces = EXCLUDED.cer_includes_spaces,
			updated_at = EXCLUDED.updated_at
	`,
		result.FileName, r.WER.Ratio, r.SER.Ratio, r.CER.Ratio,
		r.WER.Errors, r.WER.Total, r.SER.Errors, r.SER.Total, r.CER.Errors, r.CER.Total,
		string(r.SplitMode), r.CERIncludesSpaces, result.Timestamp, result.Timestamp)
	if err != nil {
		sugar.Errorw("Database storage failed",
			"error", err)
		return fmt.Errorf("store analysis result: %w", err)
	}
	utils.ResultsStored.WithLabelValues("postgres").Inc()

	if err := valkeystore.CacheJSON(ctx, valkeystore.CacheKey(CachePrefix, result.FileName), result); err != nil {
		sugar.Errorw("Cache storage failed",
			"error", err)
		return err
	}
	utils.ResultsStored.WithLabelValues("valkey").Inc()

	return nil
}
