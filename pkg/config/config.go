package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain
	ChainRPCURL       string
	ChainWSURL        string // optional: enables the newHeads watcher
	VerifyingContract string

	// Relay engine
	MaxGasPriceWei    *big.Int
	GasEstimateBuffer float64

	// Worker
	WorkerMnemonic         string
	WorkerIndex            int
	WorkerGasPriceWei      *big.Int // readiness: price a submission is assumed to pay
	WorkerGasUsageEstimate *big.Int // readiness: gas a submission is assumed to burn
	WorkerReserveWei       *big.Int // readiness: balance kept untouched
	WorkerPollInterval     time.Duration

	// WebSocket (newHeads watcher)
	WSDialTimeout           time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64

	// Journal
	JournalMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Chain defaults
		ChainRPCURL:       getEnvOrDefault("CHAIN_RPC_URL", "https://polygon-rpc.com"),
		ChainWSURL:        os.Getenv("CHAIN_WS_URL"),
		VerifyingContract: os.Getenv("EXCHANGE_PROXY_ADDRESS"),

		// Relay engine defaults. 10K gwei ceiling and 1.5x buffer are
		// economic constants; override deliberately or not at all.
		MaxGasPriceWei:    getBigIntOrDefault("MAX_GAS_PRICE_WEI", big.NewInt(10_000_000_000_000)),
		GasEstimateBuffer: getFloat64OrDefault("GAS_ESTIMATE_BUFFER", 1.5),

		// Worker defaults
		WorkerMnemonic:         os.Getenv("WORKER_MNEMONIC"),
		WorkerIndex:            getIntOrDefault("WORKER_INDEX", 0),
		WorkerGasPriceWei:      getBigIntOrDefault("WORKER_GAS_PRICE_WEI", big.NewInt(50_000_000_000)),
		WorkerGasUsageEstimate: getBigIntOrDefault("WORKER_GAS_USAGE_ESTIMATE", big.NewInt(500_000)),
		WorkerReserveWei:       getBigIntOrDefault("WORKER_RESERVE_WEI", big.NewInt(0)),
		WorkerPollInterval:     getDurationOrDefault("WORKER_POLL_INTERVAL", 30*time.Second),

		// WebSocket defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),

		// Journal defaults
		JournalMode:  getEnvOrDefault("JOURNAL_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "metatx"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "metatx123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "metatx_relay"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.ChainRPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL cannot be empty")
	}

	if c.VerifyingContract != "" && !common.IsHexAddress(c.VerifyingContract) {
		return fmt.Errorf("EXCHANGE_PROXY_ADDRESS %q is not a hex address", c.VerifyingContract)
	}

	if c.MaxGasPriceWei == nil || c.MaxGasPriceWei.Sign() <= 0 {
		return fmt.Errorf("MAX_GAS_PRICE_WEI must be positive")
	}

	if c.GasEstimateBuffer < 1.0 {
		return fmt.Errorf("GAS_ESTIMATE_BUFFER must be >= 1.0, got %f", c.GasEstimateBuffer)
	}

	if c.WorkerIndex < 0 {
		return fmt.Errorf("WORKER_INDEX must be non-negative, got %d", c.WorkerIndex)
	}

	if c.JournalMode != "postgres" && c.JournalMode != "console" {
		return fmt.Errorf("JOURNAL_MODE must be 'postgres' or 'console', got %q", c.JournalMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBigIntOrDefault(key string, defaultValue *big.Int) *big.Int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return defaultValue
	}

	return parsed
}
