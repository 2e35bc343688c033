package bench

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	resultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmbench",
			Name:      "results_total",
			Help:      "Result rows written, by outcome",
		},
		[]string{"outcome"},
	)

	modelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmbench",
			Name:      "model_loads_total",
			Help:      "Model load attempts, by outcome",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmbench",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of successful generations",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		},
	)

	tokensPerSecondHist = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmbench",
			Name:      "tokens_per_second",
			Help:      "Generation throughput of successful prompts",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	modelsCompletedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llmbench",
			Name:      "models_completed",
			Help:      "Models processed in the current session",
		},
	)
)

func init() {
	prometheus.MustRegister(resultsTotal, modelLoadsTotal, generationDuration, tokensPerSecondHist, modelsCompletedGauge)
}

// Outcome label values.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)
