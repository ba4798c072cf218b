package heads

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewReconnectManagerDefaults(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{}, zap.NewNop())

	if rm.config.InitialDelay != defaultInitialDelay {
		t.Errorf("initial delay = %v, want %v", rm.config.InitialDelay, defaultInitialDelay)
	}
	if rm.config.MaxDelay != defaultMaxDelay {
		t.Errorf("max delay = %v, want %v", rm.config.MaxDelay, defaultMaxDelay)
	}
	if rm.config.BackoffMultiplier != defaultMultiplier {
		t.Errorf("multiplier = %v, want %v", rm.config.BackoffMultiplier, defaultMultiplier)
	}
	if rm.config.JitterPercent != defaultJitter {
		t.Errorf("jitter = %v, want %v", rm.config.JitterPercent, defaultJitter)
	}
}

func TestNextDelayBackoffCappedAtMax(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          40 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}, zap.NewNop())

	// Base delays double 10 -> 20 -> 40, then stay capped; jitter adds at
	// most 20% on top of the base.
	wantBase := []time.Duration{10, 20, 40, 40, 40}
	for i, base := range wantBase {
		base *= time.Millisecond
		delay, attempt := rm.nextDelay()
		if attempt != i+1 {
			t.Fatalf("attempt = %d, want %d", attempt, i+1)
		}
		if delay < base || delay > base+base/5 {
			t.Errorf("attempt %d delay = %v, want within [%v, %v]", attempt, delay, base, base+base/5)
		}
	}

	rm.Reset()
	delay, attempt := rm.nextDelay()
	if attempt != 1 {
		t.Errorf("attempt after reset = %d, want 1", attempt)
	}
	if delay > 12*time.Millisecond {
		t.Errorf("delay after reset = %v, want near initial", delay)
	}
}

func TestReconnectRetriesUntilSuccess(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          2 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.1,
	}, zap.NewNop())

	calls := 0
	err := rm.Reconnect(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("connect calls = %d, want 3", calls)
	}
}

func TestReconnectStopsOnCancel(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          2 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.1,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rm.Reconnect(ctx, func(context.Context) error {
		return errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
