package replay

import (
	"errors"
	"fmt"

	"github.com/ledgerlab/replayer/internal/types"
)

// ReplayError represents a fatal condition detected during a replay run.
//
// Replay errors include:
//   - Missing object: a declared input is absent from the working store
//   - Missing transaction: checkpoint contents reference an unknown digest
//   - Gas failure: gas accounting rejects a historically-committed transaction
//   - Effects mismatch: recomputed effects digest differs from the recorded one
//   - Epoch sequence violation: derived next epoch is not exactly current+1
//   - Archive read failure: any underlying archive lookup errors
//
// ReplayError includes structured fields for diagnostics. None of these
// conditions is recoverable mid-run; the driver aborts on the first one.
type ReplayError struct {
	// Code identifies the error category.
	Code ReplayErrorCode

	// Message is a human-readable description.
	Message string

	// Checkpoint is the sequence number being replayed, when known.
	Checkpoint uint64

	// Transaction identifies the affected transaction, when known.
	Transaction types.Digest

	// Object identifies the affected object (for missing-object errors).
	Object types.ObjectID

	// Expected and Actual carry both digests for mismatch errors.
	Expected types.Digest
	Actual   types.Digest

	// Err is the underlying cause, if any.
	Err error
}

// ReplayErrorCode categorizes replay errors.
type ReplayErrorCode string

const (
	// ErrCodeMissingObject indicates a declared input is absent from the
	// working store.
	ErrCodeMissingObject ReplayErrorCode = "MISSING_OBJECT"

	// ErrCodeMissingTransaction indicates checkpoint contents reference a
	// transaction digest the archive does not hold.
	ErrCodeMissingTransaction ReplayErrorCode = "MISSING_TRANSACTION"

	// ErrCodeGasFailure indicates gas accounting rejected a transaction
	// that historically committed.
	ErrCodeGasFailure ReplayErrorCode = "GAS_FAILURE"

	// ErrCodeEffectsMismatch indicates the recomputed effects digest
	// differs from the recorded one.
	ErrCodeEffectsMismatch ReplayErrorCode = "EFFECTS_MISMATCH"

	// ErrCodeEpochSequence indicates the derived next epoch is not exactly
	// the current epoch plus one.
	ErrCodeEpochSequence ReplayErrorCode = "EPOCH_SEQUENCE"

	// ErrCodeArchiveRead indicates an archive lookup failed or returned
	// absent where presence is required.
	ErrCodeArchiveRead ReplayErrorCode = "ARCHIVE_READ"
)

// Error implements the error interface.
func (e *ReplayError) Error() string {
	switch {
	case e.Transaction != "" && e.Checkpoint != 0:
		return fmt.Sprintf("%s: %s (checkpoint=%d, tx=%s)", e.Code, e.Message, e.Checkpoint, e.Transaction)
	case e.Transaction != "":
		return fmt.Sprintf("%s: %s (tx=%s)", e.Code, e.Message, e.Transaction)
	case e.Checkpoint != 0:
		return fmt.Sprintf("%s: %s (checkpoint=%d)", e.Code, e.Message, e.Checkpoint)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ReplayError) Unwrap() error { return e.Err }

// CodeOf returns the replay error code carried by err, or "" if err is not
// a ReplayError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ReplayErrorCode {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsMissingObject returns true if the error is a missing-object error.
func IsMissingObject(err error) bool {
	return CodeOf(err) == ErrCodeMissingObject
}

// IsEffectsMismatch returns true if the error is an effects mismatch.
func IsEffectsMismatch(err error) bool {
	return CodeOf(err) == ErrCodeEffectsMismatch
}

// IsEpochSequenceViolation returns true if the error is an epoch sequence
// violation.
func IsEpochSequenceViolation(err error) bool {
	return CodeOf(err) == ErrCodeEpochSequence
}

// NewMissingObjectError creates a ReplayError for an input identifier absent
// from the working store.
func NewMissingObjectError(id types.ObjectID) *ReplayError {
	return &ReplayError{
		Code:    ErrCodeMissingObject,
		Message: fmt.Sprintf("input object %s not in working store", id),
		Object:  id,
	}
}

// NewMissingTransactionError creates a ReplayError for a transaction digest
// the archive does not hold.
func NewMissingTransactionError(digest types.Digest) *ReplayError {
	return &ReplayError{
		Code:        ErrCodeMissingTransaction,
		Message:     "transaction not found in archive",
		Transaction: digest,
	}
}

// NewGasFailureError creates a ReplayError for a gas accounting rejection.
func NewGasFailureError(digest types.Digest, cause error) *ReplayError {
	return &ReplayError{
		Code:        ErrCodeGasFailure,
		Message:     fmt.Sprintf("gas accounting rejected replayed transaction: %v", cause),
		Transaction: digest,
		Err:         cause,
	}
}

// NewEffectsMismatchError creates a ReplayError carrying both the recorded
// and the recomputed effects digests.
func NewEffectsMismatchError(digest types.Digest, expected, actual types.Digest) *ReplayError {
	return &ReplayError{
		Code:        ErrCodeEffectsMismatch,
		Message:     fmt.Sprintf("effects digest mismatch: recorded %s, recomputed %s", expected, actual),
		Transaction: digest,
		Expected:    expected,
		Actual:      actual,
	}
}

// NewEpochSequenceError creates a ReplayError for a next-epoch number that
// is not exactly current+1.
func NewEpochSequenceError(current, next uint64) *ReplayError {
	return &ReplayError{
		Code:    ErrCodeEpochSequence,
		Message: fmt.Sprintf("next committee epoch %d does not follow current epoch %d", next, current),
	}
}

// NewArchiveReadError creates a ReplayError for a failed or unexpectedly
// absent archive lookup.
func NewArchiveReadError(what string, cause error) *ReplayError {
	msg := fmt.Sprintf("archive read failed: %s", what)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &ReplayError{
		Code:    ErrCodeArchiveRead,
		Message: msg,
		Err:     cause,
	}
}
