package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// HealthChecker provides liveness and readiness checks. Readiness combines
// the application lifecycle flag with the worker-funding probe, so an
// unfunded worker takes the relayer out of rotation without killing it.
type HealthChecker struct {
	startTime   time.Time
	ready       atomic.Bool
	workerReady func() bool   // optional
	chainHeight func() uint64 // optional
}

// Config holds optional domain probes.
type Config struct {
	WorkerReady func() bool
	ChainHeight func() uint64
}

// New creates a HealthChecker.
func New(cfg *Config) *HealthChecker {
	h := &HealthChecker{
		startTime: time.Now(),
	}
	if cfg != nil {
		h.workerReady = cfg.WorkerReady
		h.chainHeight = cfg.ChainHeight
	}
	return h
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	ChainHeight uint64 `json:"chainHeight,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		}
		if h.chainHeight != nil {
			resp.ChainHeight = h.chainHeight()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		if h.workerReady != nil && !h.workerReady() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "worker balance cannot cover a submission",
			})
			return
		}

		resp := HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		}
		if h.chainHeight != nil {
			resp.ChainHeight = h.chainHeight()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
