package worker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mselser95/metatx-relay/internal/chain"
)

// Tracker periodically refreshes the worker balance, recomputes readiness,
// and updates Prometheus metrics.
type Tracker struct {
	chain             chain.Client
	address           common.Address
	pollInterval      time.Duration
	requiredGasPrice  *big.Int
	estimatedGasUsage *big.Int
	reserve           *big.Int
	logger            *zap.Logger

	mu          sync.RWMutex
	lastBalance *big.Int
	ready       bool
}

// Config holds tracker configuration.
type Config struct {
	Chain             chain.Client
	Address           common.Address
	PollInterval      time.Duration
	RequiredGasPrice  *big.Int
	EstimatedGasUsage *big.Int
	Reserve           *big.Int // optional
	Logger            *zap.Logger
}

// New creates a worker tracker.
func New(cfg *Config) (*Tracker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Chain == nil {
		return nil, errors.New("chain client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if cfg.RequiredGasPrice == nil || cfg.EstimatedGasUsage == nil {
		return nil, errors.New("gas price and gas usage estimates are required")
	}

	return &Tracker{
		chain:             cfg.Chain,
		address:           cfg.Address,
		pollInterval:      cfg.PollInterval,
		requiredGasPrice:  cfg.RequiredGasPrice,
		estimatedGasUsage: cfg.EstimatedGasUsage,
		reserve:           cfg.Reserve,
		logger:            cfg.Logger,
	}, nil
}

// Run starts the polling loop (blocking). Refreshes once immediately so the
// readiness probe has data before the first tick.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info("worker-tracker-starting",
		zap.String("worker", t.address.Hex()),
		zap.Duration("poll-interval", t.pollInterval))

	t.refresh(ctx)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("worker-tracker-stopping")
			return ctx.Err()
		case <-ticker.C:
			t.refresh(ctx)
		}
	}
}

// Ready reports the readiness computed on the last refresh.
func (t *Tracker) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// LastBalance returns the balance observed on the last refresh, or nil if no
// refresh has succeeded yet.
func (t *Tracker) LastBalance() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastBalance == nil {
		return nil
	}
	return new(big.Int).Set(t.lastBalance)
}

func (t *Tracker) refresh(ctx context.Context) {
	start := time.Now()

	balance, err := t.chain.Balance(ctx, t.address)
	if err != nil {
		UpdateErrorsTotal.Inc()
		t.logger.Warn("worker-balance-refresh-failed",
			zap.String("worker", t.address.Hex()),
			zap.Error(err))
		return
	}

	ready := IsReady(balance, t.requiredGasPrice, t.estimatedGasUsage, t.reserve)

	t.mu.Lock()
	t.lastBalance = balance
	t.ready = ready
	t.mu.Unlock()

	balanceFloat, _ := new(big.Float).SetInt(balance).Float64()
	BalanceWei.Set(balanceFloat)
	if ready {
		Ready.Set(1)
	} else {
		Ready.Set(0)
	}
	UpdateDuration.Observe(time.Since(start).Seconds())
	LastUpdateTimestamp.Set(float64(time.Now().Unix()))

	t.logger.Debug("worker-balance-refreshed",
		zap.String("worker", t.address.Hex()),
		zap.String("balance-wei", balance.String()),
		zap.Bool("ready", ready))
}
