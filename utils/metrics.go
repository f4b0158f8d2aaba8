package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation sources used as label values
const (
	SourceHTTP       = "http"
	SourceSubscriber = "subscriber"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_evaluations_total",
		Help: "Completed reference/hypothesis evaluations",
	}, []string{"source"})

	EvaluationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_evaluation_failures_total",
		Help: "Failed evaluations by stage",
	}, []string{"stage"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_evaluation_duration_seconds",
		Help:    "Time spent computing WER, SER and CER for one pair",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	})

	LastErrorRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transcript_last_error_rate",
		Help: "Error rate of the most recent evaluation",
	}, []string{"metric"})

	ResultsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_results_stored_total",
		Help: "Analysis results written by destination",
	}, []string{"destination"})
)
