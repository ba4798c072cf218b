package httpserver

import (
	"math/big"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// WorkerStatusSource exposes what the status endpoint needs from the worker
// tracker without coupling this package to it.
type WorkerStatusSource interface {
	Ready() bool
	LastBalance() *big.Int
}

// HeightSource exposes the latest observed chain height.
type HeightSource interface {
	LatestHeight() uint64
}

// WorkerStatusHandler serves a snapshot of worker funding state.
type WorkerStatusHandler struct {
	address string
	worker  WorkerStatusSource
	heights HeightSource // optional
	logger  *zap.Logger
}

// NewWorkerStatusHandler creates the /api/worker handler.
func NewWorkerStatusHandler(address string, worker WorkerStatusSource, heights HeightSource, logger *zap.Logger) *WorkerStatusHandler {
	return &WorkerStatusHandler{
		address: address,
		worker:  worker,
		heights: heights,
		logger:  logger,
	}
}

// workerStatusResponse is the /api/worker payload.
type workerStatusResponse struct {
	Address     string `json:"address"`
	Ready       bool   `json:"ready"`
	BalanceWei  string `json:"balanceWei"`
	ChainHeight uint64 `json:"chainHeight,omitempty"`
}

// HandleWorkerStatus serves the worker funding snapshot.
func (h *WorkerStatusHandler) HandleWorkerStatus(w http.ResponseWriter, r *http.Request) {
	resp := workerStatusResponse{
		Address: h.address,
		Ready:   h.worker.Ready(),
	}

	if balance := h.worker.LastBalance(); balance != nil {
		resp.BalanceWei = balance.String()
	}
	if h.heights != nil {
		resp.ChainHeight = h.heights.LatestHeight()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		h.logger.Error("worker-status-encode-failed", zap.Error(err))
	}
}
