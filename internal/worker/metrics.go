package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// BalanceWei tracks the worker's native-currency balance for gas.
	BalanceWei = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metatx_worker_balance_wei",
		Help: "Worker native-currency balance (wei)",
	})

	// Ready tracks whether the worker can currently afford a submission.
	Ready = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metatx_worker_ready",
		Help: "1 if the worker balance covers a submission at the configured gas price, else 0",
	})

	// UpdateErrorsTotal counts failed balance refresh attempts.
	UpdateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metatx_worker_update_errors_total",
		Help: "Total number of failed worker balance refreshes",
	})

	// UpdateDuration tracks the time taken to refresh worker state.
	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metatx_worker_update_duration_seconds",
		Help:    "Time taken to refresh worker balance (seconds)",
		Buckets: prometheus.DefBuckets,
	})

	// LastUpdateTimestamp tracks the Unix timestamp of the last refresh.
	LastUpdateTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metatx_worker_last_update_timestamp",
		Help: "Unix timestamp of last successful worker balance refresh",
	})
)
