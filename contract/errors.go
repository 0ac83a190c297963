package contract

import (
	"errors"

	"github.com/dar7an/zk-cricket-trader/field"
)

// Rejection reasons. Every error returned by a transition wraps exactly one
// of these (or field.ErrEncoding for payload adapters).
var (
	ErrSignature          = errors.New("contract: signature verification failed")
	ErrStaleRead          = errors.New("contract: pinned state is no longer current")
	ErrSlotConflict       = errors.New("contract: witnessed ledger slot is not empty")
	ErrIdentityMismatch   = errors.New("contract: sender is not the bet owner")
	ErrFixtureMismatch    = errors.New("contract: fixture does not match committed fixture")
	ErrBadWitness         = errors.New("contract: malformed witness")
	ErrNotInitialized     = errors.New("contract: not initialized")
	ErrAlreadyInitialized = errors.New("contract: already initialized")
	ErrUnknownProposal    = errors.New("contract: unknown proposal type")
)

// Retryable reports whether err can be recovered from by re-reading the
// committed state and rebuilding the proposal.
func Retryable(err error) bool {
	return errors.Is(err, ErrStaleRead) || errors.Is(err, ErrSlotConflict)
}

// Reason returns a short stable label for err, used in metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, field.ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrSignature):
		return "signature"
	case errors.Is(err, ErrStaleRead):
		return "stale_read"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, ErrFixtureMismatch):
		return "fixture_mismatch"
	case errors.Is(err, ErrBadWitness):
		return "bad_witness"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	default:
		return "other"
	}
}
