package heads

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveConnections is 1 while the newHeads subscription is live.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metatx_heads_active_connections",
		Help: "1 while the newHeads websocket subscription is live",
	})

	// HeadsReceivedTotal counts block headers received over the subscription.
	HeadsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metatx_heads_received_total",
		Help: "Total number of block headers received",
	})

	// LatestHeight tracks the latest block height seen over the subscription.
	LatestHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metatx_heads_latest_height",
		Help: "Latest block height seen over the newHeads subscription",
	})

	// ReconnectAttemptsTotal counts reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metatx_heads_reconnect_attempts_total",
		Help: "Total number of websocket reconnection attempts",
	})

	// ReconnectFailuresTotal counts failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metatx_heads_reconnect_failures_total",
		Help: "Total number of failed websocket reconnection attempts",
	})
)
