package handlers

import (
	"net/http"
	"time"
	"transcript-metrics/analyzer"
	"transcript-metrics/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvaluateRequest is the body of POST /evaluate. Config may be partial;
// missing fields take their defaults, a missing config uses the EVAL_* environment.
type EvaluateRequest struct {
	Reference  string           `json:"reference"`
	Hypothesis string           `json:"hypothesis"`
	Config     *analyzer.Config `json:"config"`
}

type EvaluateResponse struct {
	ID     string          `json:"id"`
	Report analyzer.Report `json:"report"`
}

// HandleEvaluate scores a reference/hypothesis pair sent inline
func HandleEvaluate(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sugar := logger.Sugar()

		var req EvaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.EvaluationFailures.WithLabelValues("request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		cfg, err := requestConfig(req.Config)
		if err != nil {
			sugar.Errorw("Evaluation defaults are invalid",
				"error", err)
			utils.EvaluationFailures.WithLabelValues("config").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		start := time.Now()
		report, err := analyzer.Compute(req.Reference, req.Hypothesis, cfg)
		if err != nil {
			utils.EvaluationFailures.WithLabelValues("config").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		analyzer.ObserveReport(utils.SourceHTTP, report, time.Since(start))

		id := uuid.NewString()
		sugar.Infow("Evaluation completed",
			"id", id,
			"wer", report.WER.Ratio,
			"ser", report.SER.Ratio,
			"cer", report.CER.Ratio)

		c.JSON(http.StatusOK, EvaluateResponse{ID: id, Report: report})
	}
}

// requestConfig falls back to the environment defaults when the request has no config
func requestConfig(cfg *analyzer.Config) (analyzer.Config, error) {
	if cfg != nil {
		return *cfg, nil
	}
	return analyzer.ConfigFromEnv()
}
