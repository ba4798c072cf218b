package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus labels the outcome of a relay attempt.
type AttemptStatus string

const (
	// StatusValidated means simulation passed but nothing was submitted.
	StatusValidated AttemptStatus = "validated"
	// StatusSubmitted means the node accepted the transaction.
	StatusSubmitted AttemptStatus = "submitted"
	// StatusFailed means validation or submission failed.
	StatusFailed AttemptStatus = "failed"
)

// Attempt is the record of one relay attempt: what was asked, what was
// simulated, and what the node said. The engine itself stays stateless;
// journaling is a CLI-layer concern.
type Attempt struct {
	ID                   string
	Worker               string
	VerifyingContract    string
	TakerAmountRequested string
	TakerAmountFilled    string
	MakerAmountFilled    string
	GasLimit             uint64
	GasPriceWei          string
	TxHash               string
	Status               AttemptStatus
	FailureKind          string
	AttemptedAt          time.Time
}

// NewAttemptID returns a fresh attempt identifier.
func NewAttemptID() string {
	return uuid.New().String()
}

// Journal is the interface for recording relay attempts.
type Journal interface {
	// RecordAttempt persists one relay attempt.
	RecordAttempt(ctx context.Context, attempt *Attempt) error

	// Close closes the journal.
	Close() error
}
