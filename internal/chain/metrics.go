package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RPCRequestsTotal counts node RPC calls by method.
	RPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metatx_chain_rpc_requests_total",
		Help: "Total number of execution-layer RPC calls",
	}, []string{"method"})

	// RPCErrorsTotal counts failed node RPC calls by method.
	RPCErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metatx_chain_rpc_errors_total",
		Help: "Total number of failed execution-layer RPC calls",
	}, []string{"method"})

	// RPCDuration tracks RPC round-trip latency by method.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metatx_chain_rpc_duration_seconds",
		Help:    "Execution-layer RPC round-trip latency (seconds)",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// BlockHeight tracks the last block height observed over RPC.
	BlockHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metatx_chain_block_height",
		Help: "Last block height observed from the execution layer",
	})

	// TransactionsSubmittedTotal counts transactions accepted by the node.
	TransactionsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metatx_chain_transactions_submitted_total",
		Help: "Total number of transactions accepted by the node",
	})
)
