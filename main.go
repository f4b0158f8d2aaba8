package main

import (
	"fmt"
	"log"
	"net/http"
	"time"
	"transcript-metrics/analyzer"
	"transcript-metrics/handlers"
	"transcript-metrics/subscriber"
	"transcript-metrics/testui"
	"transcript-metrics/utils"

	valkeystore "transcript-metrics/valkey"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Bad EVAL_* defaults would fail every job, so refuse to start
	defaults, err := analyzer.ConfigFromEnv()
	if err != nil {
		sugar.Fatalw("invalid evaluation defaults",
			"error", err)
	}
	sugar.Infow("Evaluation defaults loaded",
		"lowercase", defaults.Lowercase,
		"normalize_whitespace", defaults.NormalizeWhitespace,
		"strip_punctuation", defaults.StripPunctuation,
		"sentence_split", defaults.SentenceSplit,
		"cer_include_spaces", defaults.CERIncludeSpaces)

	valkeystore.InitValkey(logger)

	if err := utils.InitDB(logger); err != nil {
		sugar.Fatalw("failed to init database",
			"error", err)
	}
	defer utils.CloseDB(logger)

	if err := utils.CreateSchema(logger); err != nil {
		sugar.Fatalw("failed to create database schema",
			"error", err)
	}

	if err := utils.InitS3(logger); err != nil {
		sugar.Fatalw("failed to init s3",
			"error", err)
	}

	go subscriber.StartSubscribers(logger)

	r := setupRouter(logger)

	port := utils.MustGetEnv("APP_PORT")
	sugar.Infow("Running on port",
		"port", port)
	if err := r.Run(fmt.Sprintf(":%s", port)); err != nil {
		sugar.Fatalw("server stopped",
			"error", err)
	}
}

func setupRouter(logger *zap.Logger) *gin.Engine {
	r := gin.New()
	logger.Info("Creating router")

	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	r.POST("/evaluate", handlers.HandleEvaluate(logger))

	r.GET("/transcript-analysis/list", handlers.HandleListTranscriptionAnalysis(logger))
	r.GET("/transcript-analysis/:job", handlers.HandleGetAnalysis(logger))
	r.POST("/transcript-analysis/upload", handlers.HandleTranscriptionUpload(logger))
	r.POST("/transcript-analysis/trigger/:job", handlers.HandleTriggerTranscriptionAnalysis(logger))

	r.GET("/db-status", handlers.HandleDBStatus())
	r.GET("/metrics", handlers.HandleMetrics())
	r.GET("/healthcheck", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	testui.RegisterRoutes(r, "/")

	return r
}
