package relayer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ValidationsTotal counts delegated-fill validations by outcome.
	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metatx_relayer_validations_total",
		Help: "Total number of delegated-fill validations by outcome",
	}, []string{"outcome"})

	// ValidationDuration tracks the time a full validation round-trip takes.
	ValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metatx_relayer_validation_duration_seconds",
		Help:    "Time taken to simulate and validate a delegated fill (seconds)",
		Buckets: prometheus.DefBuckets,
	})

	// SubmissionsTotal counts delegated-fill submissions by outcome.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metatx_relayer_submissions_total",
		Help: "Total number of delegated-fill submissions by outcome",
	}, []string{"outcome"})

	// GasEstimated tracks buffered gas limits produced for submissions.
	GasEstimated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metatx_relayer_gas_estimated",
		Help:    "Buffered gas limits produced for submissions",
		Buckets: prometheus.ExponentialBuckets(50_000, 2, 8),
	})
)
