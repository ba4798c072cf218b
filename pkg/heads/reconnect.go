package heads

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fallbacks for zero-value ReconnectConfig fields. A head subscription that
// never comes back starves readiness, so the manager always retries with
// sane pacing even when the config is empty.
const (
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 30 * time.Second
	defaultMultiplier   = 2.0
	defaultJitter       = 0.2
)

// ReconnectConfig paces re-subscription attempts after a dropped head stream.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 = 20%
}

// ReconnectManager retries a connect function with jittered exponential
// backoff until it succeeds or the context ends.
type ReconnectManager struct {
	config ReconnectConfig
	logger *zap.Logger

	mu      sync.Mutex
	current time.Duration
	attempt int
}

// NewReconnectManager creates a reconnection manager. Zero-value config
// fields fall back to the package defaults.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.BackoffMultiplier <= 1.0 {
		cfg.BackoffMultiplier = defaultMultiplier
	}
	if cfg.JitterPercent <= 0 {
		cfg.JitterPercent = defaultJitter
	}

	return &ReconnectManager{
		config:  cfg,
		logger:  logger,
		current: cfg.InitialDelay,
	}
}

// Reconnect retries connectFunc until it succeeds, backing off between
// attempts. Returns the context error when cancelled.
func (rm *ReconnectManager) Reconnect(ctx context.Context, connectFunc func(context.Context) error) error {
	for {
		delay, attempt := rm.nextDelay()

		rm.logger.Info("attempting-reconnection",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay))
		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connectFunc(ctx)
		if err == nil {
			rm.Reset()
			rm.logger.Info("reconnection-successful", zap.Int("attempt", attempt))
			return nil
		}

		rm.logger.Warn("reconnection-failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		ReconnectFailuresTotal.Inc()
	}
}

// Reset restores the initial delay after a healthy connection.
func (rm *ReconnectManager) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.current = rm.config.InitialDelay
	rm.attempt = 0
}

// nextDelay returns the jittered delay for the coming attempt and advances
// the backoff for the one after it, capped at MaxDelay.
func (rm *ReconnectManager) nextDelay() (time.Duration, int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.attempt++
	jittered := time.Duration(float64(rm.current) * (1.0 + rand.Float64()*rm.config.JitterPercent))

	next := time.Duration(float64(rm.current) * rm.config.BackoffMultiplier)
	if next > rm.config.MaxDelay {
		next = rm.config.MaxDelay
	}
	rm.current = next

	return jittered, rm.attempt
}
