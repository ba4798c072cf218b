package config

import (
	"math/big"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MaxGasPriceWei.Cmp(big.NewInt(10_000_000_000_000)) != 0 {
		t.Errorf("expected MaxGasPriceWei to default to 10000 gwei, got %s", cfg.MaxGasPriceWei)
	}

	if cfg.GasEstimateBuffer != 1.5 {
		t.Errorf("expected GasEstimateBuffer to default to 1.5, got %f", cfg.GasEstimateBuffer)
	}

	if cfg.WorkerGasUsageEstimate.Cmp(big.NewInt(500_000)) != 0 {
		t.Errorf("expected WorkerGasUsageEstimate to default to 500000, got %s", cfg.WorkerGasUsageEstimate)
	}

	if cfg.JournalMode != "console" {
		t.Errorf("expected JournalMode to default to console, got %q", cfg.JournalMode)
	}

	if cfg.WorkerPollInterval != 30*time.Second {
		t.Errorf("expected WorkerPollInterval to default to 30s, got %v", cfg.WorkerPollInterval)
	}
}

func TestConfig_Overrides(t *testing.T) {
	t.Run("max_gas_price_override", func(t *testing.T) {
		os.Setenv("MAX_GAS_PRICE_WEI", "500000000000")
		t.Cleanup(func() {
			os.Unsetenv("MAX_GAS_PRICE_WEI")
		})

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cfg.MaxGasPriceWei.Cmp(big.NewInt(500_000_000_000)) != 0 {
			t.Errorf("expected MaxGasPriceWei override, got %s", cfg.MaxGasPriceWei)
		}
	})

	t.Run("unparseable_big_int_falls_back", func(t *testing.T) {
		os.Setenv("MAX_GAS_PRICE_WEI", "not-a-number")
		t.Cleanup(func() {
			os.Unsetenv("MAX_GAS_PRICE_WEI")
		})

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cfg.MaxGasPriceWei.Cmp(big.NewInt(10_000_000_000_000)) != 0 {
			t.Errorf("expected fallback to default, got %s", cfg.MaxGasPriceWei)
		}
	})

	t.Run("worker_poll_interval_override", func(t *testing.T) {
		os.Setenv("WORKER_POLL_INTERVAL", "5s")
		t.Cleanup(func() {
			os.Unsetenv("WORKER_POLL_INTERVAL")
		})

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cfg.WorkerPollInterval != 5*time.Second {
			t.Errorf("expected WorkerPollInterval to be 5s, got %v", cfg.WorkerPollInterval)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("default_level", func(t *testing.T) {
		logger, err := NewLogger()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Error("expected info level to be enabled by default")
		}
		if logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("expected debug level to be disabled by default")
		}
	})

	t.Run("invalid_level_rejected", func(t *testing.T) {
		os.Setenv("LOG_LEVEL", "loud")
		t.Cleanup(func() {
			os.Unsetenv("LOG_LEVEL")
		})

		_, err := NewLogger()
		if err == nil {
			t.Fatal("expected error for invalid log level")
		}
	})

	t.Run("console_format", func(t *testing.T) {
		os.Setenv("LOG_FORMAT", "console")
		t.Cleanup(func() {
			os.Unsetenv("LOG_FORMAT")
		})

		_, err := NewLogger()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("gas_estimate_buffer_below_one_rejected", func(t *testing.T) {
		os.Setenv("GAS_ESTIMATE_BUFFER", "0.9")
		t.Cleanup(func() {
			os.Unsetenv("GAS_ESTIMATE_BUFFER")
		})

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatal("expected error for buffer below 1.0")
		}
	})

	t.Run("negative_worker_index_rejected", func(t *testing.T) {
		os.Setenv("WORKER_INDEX", "-1")
		t.Cleanup(func() {
			os.Unsetenv("WORKER_INDEX")
		})

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatal("expected error for negative worker index")
		}
	})

	t.Run("invalid_verifying_contract_rejected", func(t *testing.T) {
		os.Setenv("EXCHANGE_PROXY_ADDRESS", "not-an-address")
		t.Cleanup(func() {
			os.Unsetenv("EXCHANGE_PROXY_ADDRESS")
		})

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatal("expected error for malformed exchange proxy address")
		}
	})

	t.Run("unknown_journal_mode_rejected", func(t *testing.T) {
		os.Setenv("JOURNAL_MODE", "kafka")
		t.Cleanup(func() {
			os.Unsetenv("JOURNAL_MODE")
		})

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatal("expected error for unknown journal mode")
		}
	})
}
