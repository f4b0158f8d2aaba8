package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"transcript-metrics/analyzer"
	"transcript-metrics/subscriber"
	"transcript-metrics/utils"
	valkeystore "transcript-metrics/valkey"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleTranscriptionUpload stores a reference and a hypothesis transcript for a job
func HandleTranscriptionUpload(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		job := c.PostForm("job")
		if job == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job is required"})
			return
		}

		referenceFile, err := c.FormFile("reference")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference file is required (form key: reference)"})
			return
		}

		hypothesisFile, err := c.FormFile("hypothesis")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hypothesis file is required (form key: hypothesis)"})
			return
		}

		if filepath.Ext(referenceFile.Filename) != ".txt" || filepath.Ext(hypothesisFile.Filename) != ".txt" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only .txt files are allowed"})
			return
		}

		referenceKey := subscriber.ReferenceKey(job)
		if err := uploadFormFile(c, referenceFile, referenceKey); err != nil {
			logger.Error("File upload failed", zap.String("key", referenceKey), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload reference file"})
			return
		}

		hypothesisKey := subscriber.HypothesisKey(job)
		if err := uploadFormFile(c, hypothesisFile, hypothesisKey); err != nil {
			logger.Error("File upload failed", zap.String("key", hypothesisKey), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload hypothesis file"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Files uploaded successfully",
			"job":     job,
			"files": []string{
				referenceKey,
				hypothesisKey,
			},
		})
	}
}

func uploadFormFile(c *gin.Context, fh *multipart.FileHeader, key string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	return utils.UploadFile(c.Request.Context(), src, key)
}

// HandleTriggerTranscriptionAnalysis publishes an analysis request for a job.
// An optional JSON body overrides the evaluation config.
func HandleTriggerTranscriptionAnalysis(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		job := c.Param("job")
		if job == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job is required"})
			return
		}

		var cfg *analyzer.Config
		if c.Request.ContentLength > 0 {
			cfg = new(analyzer.Config)
			if err := c.ShouldBindJSON(cfg); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config: " + err.Error()})
				return
			}
		}

		payload := subscriber.NewJobPayload(job, cfg)
		message, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Message serialization failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create analysis request"})
			return
		}

		ctx := c.Request.Context()
		if err := valkeystore.Client.Publish(ctx, subscriber.TranscribeCompleteChannel, string(message)).Err(); err != nil {
			logger.Error("Message publishing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger analysis"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Analysis triggered successfully",
			"job":     job,
		})
	}
}

// AnalysisRow is one stored analysis as returned by the list endpoint
type AnalysisRow struct {
	ID                int     `json:"id"`
	FileName          string  `json:"file_name"`
	WER               float64 `json:"wer"`
	SER               float64 `json:"ser"`
	CER               float64 `json:"cer"`
	WEREdits          int     `json:"wer_edits"`
	WERWords          int     `json:"wer_words"`
	SERErrors         int     `json:"ser_errors"`
	SERSentences      int     `json:"ser_sentences"`
	CEREdits          int     `json:"cer_edits"`
	CERChars          int     `json:"cer_chars"`
	SplitMode         string  `json:"split_mode"`
	CERIncludesSpaces bool    `json:"cer_includes_spaces"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// HandleListTranscriptionAnalysis returns all transcription analysis results from the database
func HandleListTranscriptionAnalysis(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := utils.DB.QueryContext(c.Request.Context(), `
			SELECT id, file_name, wer, ser, cer,
				wer_edits, wer_words, ser_errors, ser_sentences, cer_edits, cer_chars,
				split_mode, cer_includes_spaces, created_at, updated_at
			FROM analysis_results
			ORDER BY created_at DESC
		`)
		if err != nil {
			logger.Error("Database query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis results"})
			return
		}
		defer rows.Close()

		results := make([]AnalysisRow, 0)
		for rows.Next() {
			var r AnalysisRow
			if err := rows.Scan(&r.ID, &r.FileName, &r.WER, &r.SER, &r.CER,
				&r.WEREdits, &r.WERWords, &r.SERErrors, &r.SERSentences, &r.CEREdits, &r.CERChars,
				&r.SplitMode, &r.CERIncludesSpaces, &r.CreatedAt, &r.UpdatedAt); err != nil {
				logger.Error("Data scanning failed", zap.Error(err))
				continue
			}
			results = append(results, r)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Row iteration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis results"})
			return
		}

		c.JSON(http.StatusOK, results)
	}
}
