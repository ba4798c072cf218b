package httpserver

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/metatx-relay/pkg/healthprobe"
)

type stubWorkerSource struct {
	ready   bool
	balance *big.Int
}

func (s *stubWorkerSource) Ready() bool           { return s.ready }
func (s *stubWorkerSource) LastBalance() *big.Int { return s.balance }

type stubHeightSource struct{ height uint64 }

func (s *stubHeightSource) LatestHeight() uint64 { return s.height }

func TestWorkerStatusHandler(t *testing.T) {
	handler := NewWorkerStatusHandler(
		"0x7777777777777777777777777777777777777777",
		&stubWorkerSource{ready: true, balance: big.NewInt(1_000_000_000_000_000_000)},
		&stubHeightSource{height: 436},
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/worker", nil)
	rec := httptest.NewRecorder()
	handler.HandleWorkerStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp workerStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Address != "0x7777777777777777777777777777777777777777" {
		t.Errorf("address = %q", resp.Address)
	}
	if !resp.Ready {
		t.Error("ready = false, want true")
	}
	if resp.BalanceWei != "1000000000000000000" {
		t.Errorf("balanceWei = %q, want 1000000000000000000", resp.BalanceWei)
	}
	if resp.ChainHeight != 436 {
		t.Errorf("chainHeight = %d, want 436", resp.ChainHeight)
	}
}

func TestWorkerStatusHandlerNoBalanceYet(t *testing.T) {
	handler := NewWorkerStatusHandler("0xabc", &stubWorkerSource{}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/worker", nil)
	rec := httptest.NewRecorder()
	handler.HandleWorkerStatus(rec, req)

	var resp workerStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Ready || resp.BalanceWei != "" {
		t.Errorf("expected empty status before first refresh, got %+v", resp)
	}
}

func TestServerRoutes(t *testing.T) {
	checker := healthprobe.New(nil)
	checker.SetReady(true)

	srv := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: checker,
		WorkerStatus: NewWorkerStatusHandler("0xabc",
			&stubWorkerSource{ready: true}, nil, zap.NewNop()),
	})

	tests := []struct {
		path string
		want int
	}{
		{path: "/health", want: http.StatusOK},
		{path: "/ready", want: http.StatusOK},
		{path: "/metrics", want: http.StatusOK},
		{path: "/api/worker", want: http.StatusOK},
		{path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			srv.server.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}
