package handlers

import (
	"errors"
	"net/http"
	"transcript-metrics/subscriber"
	valkeystore "transcript-metrics/valkey"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleGetAnalysis returns the cached analysis result for a given job
func HandleGetAnalysis(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sugar := logger.Sugar()
		job := c.Param("job")
		if job == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job is required"})
			return
		}

		data, err := valkeystore.GetCached(c.Request.Context(), valkeystore.CacheKey(subscriber.CachePrefix, job))
		if err != nil {
			if errors.Is(err, valkeystore.ErrNotCached) {
				c.JSON(http.StatusNotFound, gin.H{
					"error":   "Analysis not found",
					"message": "Analysis may still be processing or job is invalid",
				})
				return
			}

			sugar.Errorw("Analysis retrieval failed",
				"job", job,
				"error", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
			return
		}

		// Cached value is already the AnalysisResult JSON
		c.Data(http.StatusOK, "application/json", []byte(data))
	}
}
