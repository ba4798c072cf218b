package worker

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/pkg/types"
)

type stubChain struct {
	balance    *big.Int
	balanceErr error
}

func (s *stubChain) Nonce(context.Context, common.Address) (uint64, error) { return 0, nil }
func (s *stubChain) Balance(context.Context, common.Address) (*big.Int, error) {
	return s.balance, s.balanceErr
}
func (s *stubChain) BlockNumber(context.Context) (uint64, error) { return 0, nil }
func (s *stubChain) EstimateGas(context.Context, types.ChainCallContext) (uint64, error) {
	return 0, nil
}
func (s *stubChain) Call(context.Context, types.ChainCallContext) ([]byte, error) { return nil, nil }
func (s *stubChain) SubmitTransaction(context.Context, types.ChainCallContext, chain.SubmissionOptions) (common.Hash, error) {
	return common.Hash{}, nil
}
func (s *stubChain) Receipt(context.Context, common.Hash) (*gethtypes.Receipt, bool, error) {
	return nil, false, nil
}
func (s *stubChain) SignerAddress() common.Address { return common.Address{} }
func (s *stubChain) Close()                        {}

func trackerConfig(sc *stubChain) *Config {
	return &Config{
		Chain:             sc,
		Address:           common.HexToAddress("0x7777777777777777777777777777777777777777"),
		PollInterval:      time.Minute,
		RequiredGasPrice:  big.NewInt(2),
		EstimatedGasUsage: big.NewInt(40),
		Logger:            zap.NewNop(),
	}
}

func TestNewTrackerValidation(t *testing.T) {
	valid := trackerConfig(&stubChain{})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "nil-chain", mutate: func(c *Config) { c.Chain = nil }},
		{name: "nil-logger", mutate: func(c *Config) { c.Logger = nil }},
		{name: "zero-interval", mutate: func(c *Config) { c.PollInterval = 0 }},
		{name: "nil-gas-price", mutate: func(c *Config) { c.RequiredGasPrice = nil }},
		{name: "nil-gas-usage", mutate: func(c *Config) { c.EstimatedGasUsage = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			if _, err := New(&cfg); err == nil {
				t.Error("New() accepted invalid config")
			}
		})
	}

	if _, err := New(nil); err == nil {
		t.Error("New(nil) accepted nil config")
	}
}

func TestTrackerRefresh(t *testing.T) {
	sc := &stubChain{balance: big.NewInt(100)}
	tracker, err := New(trackerConfig(sc))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tracker.refresh(context.Background())

	if !tracker.Ready() {
		t.Error("Ready() = false after refresh with covering balance (100 >= 2*40)")
	}
	if got := tracker.LastBalance(); got == nil || got.Int64() != 100 {
		t.Errorf("LastBalance() = %v, want 100", got)
	}

	// Balance drops below the requirement; next refresh flips readiness.
	sc.balance = big.NewInt(79)
	tracker.refresh(context.Background())
	if tracker.Ready() {
		t.Error("Ready() = true after refresh with short balance (79 < 80)")
	}
}

func TestTrackerRefreshFailureKeepsLastState(t *testing.T) {
	sc := &stubChain{balance: big.NewInt(100)}
	tracker, err := New(trackerConfig(sc))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tracker.refresh(context.Background())

	sc.balanceErr = errors.New("node unreachable")
	tracker.refresh(context.Background())

	if !tracker.Ready() {
		t.Error("a failed refresh must not clobber the last known readiness")
	}
	if got := tracker.LastBalance(); got == nil || got.Int64() != 100 {
		t.Errorf("LastBalance() = %v, want last good value 100", got)
	}
}
