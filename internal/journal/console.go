package journal

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleJournal implements Journal by logging attempts; the default when no
// database is configured.
type ConsoleJournal struct {
	logger *zap.Logger
}

// NewConsoleJournal creates a console journal.
func NewConsoleJournal(logger *zap.Logger) *ConsoleJournal {
	return &ConsoleJournal{logger: logger}
}

// RecordAttempt logs one relay attempt.
func (c *ConsoleJournal) RecordAttempt(_ context.Context, attempt *Attempt) error {
	c.logger.Info("relay-attempt",
		zap.String("id", attempt.ID),
		zap.String("worker", attempt.Worker),
		zap.String("status", string(attempt.Status)),
		zap.String("taker-requested", attempt.TakerAmountRequested),
		zap.String("taker-filled", attempt.TakerAmountFilled),
		zap.String("tx-hash", attempt.TxHash),
		zap.String("failure-kind", attempt.FailureKind))
	return nil
}

// Close is a no-op for the console journal.
func (c *ConsoleJournal) Close() error {
	return nil
}
