package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates the process-wide zap logger. LOG_LEVEL selects the level
// (debug, info, warn, error; default info); LOG_FORMAT=console switches from
// JSON to human-readable output for local relaying sessions. Every entry
// carries a service field so worker fleets can split logs per relayer.
func NewLogger() (*zap.Logger, error) {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}

	var level zapcore.Level
	err := level.UnmarshalText([]byte(levelStr))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if os.Getenv("LOG_FORMAT") == "console" {
		config.Encoding = "console"
	} else {
		config.Encoding = "json"
		config.InitialFields = map[string]interface{}{
			"service": "metatx-relay",
		}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}
