package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandleMetrics exposes the Prometheus collectors registered in utils
func HandleMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
