package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a relay failure. Every failure surfaced by the codec,
// chain facade, or engine carries exactly one kind so callers can switch on
// it instead of string-matching.
type ErrorKind string

const (
	// KindMalformedCallData means a byte payload did not match the expected
	// binary schema. Not retryable; indicates a caller bug or wrong contract.
	KindMalformedCallData ErrorKind = "MALFORMED_CALL_DATA"

	// KindEstimationFailed means the node rejected gas estimation, usually
	// because the call would revert.
	KindEstimationFailed ErrorKind = "ESTIMATION_FAILED"

	// KindCallReverted means a read-only simulation reverted.
	KindCallReverted ErrorKind = "CALL_REVERTED"

	// KindSubmissionFailed means the node rejected a signed transaction
	// (nonce too low, insufficient funds, ...). Never retried here.
	KindSubmissionFailed ErrorKind = "SUBMISSION_FAILED"

	// KindInsufficientFill means a simulated fill came in below the amount
	// the requester authorized. Always fatal to the attempt.
	KindInsufficientFill ErrorKind = "INSUFFICIENT_FILL"

	// KindValidationFailed wraps a lower-level chain failure hit during
	// delegated-fill validation.
	KindValidationFailed ErrorKind = "VALIDATION_FAILED"

	// KindEventNotFound means the expected fill-confirmation event was
	// missing from a presumed-successful receipt.
	KindEventNotFound ErrorKind = "EVENT_NOT_FOUND"

	// KindInvalidIndex means a key-derivation precondition was violated.
	KindInvalidIndex ErrorKind = "INVALID_INDEX"
)

// RelayError is the error type surfaced by this module. Op names the failing
// operation; Detail carries the address/hash/selector involved.
type RelayError struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

func (e *RelayError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// NewRelayError builds a RelayError wrapping cause (which may be nil).
func NewRelayError(kind ErrorKind, op, detail string, cause error) *RelayError {
	return &RelayError{Kind: kind, Op: op, Detail: detail, Err: cause}
}

// IsKind reports whether err is (or wraps) a RelayError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}
