package chain

import "errors"

// The error taxonomy from §7. LongFork is intentionally unexported: it is
// used internally to decide verified = false and is never surfaced from
// insert(), per the spec's recovery policy.
var (
	ErrInvalidProof           = errors.New("chain: invalid proof")
	ErrInvalidProofKey        = errors.New("chain: invalid proof key")
	ErrInvalidTimestamp       = errors.New("chain: invalid timestamp")
	ErrInvalidSignature       = errors.New("chain: invalid signature")
	ErrInvalidPublicKey       = errors.New("chain: invalid public key")
	ErrInvalidFormat          = errors.New("chain: invalid format")
	ErrDuplicateBlock         = errors.New("chain: duplicate block")
	ErrDuplicateTransaction   = errors.New("chain: duplicate transaction")
	ErrOverdueTransaction     = errors.New("chain: overdue transaction")
	ErrUnknownParent          = errors.New("chain: unknown parent")
	ErrUnknownAncestor        = errors.New("chain: unknown ancestor")
	ErrFutureBlock            = errors.New("chain: future block")
	ErrTimeSourceUnavailable  = errors.New("chain: time source unavailable")

	errLongFork = errors.New("chain: long fork, window coverage exhausted")
)

// rejectReason maps an Insert error onto the label used by the
// blocks_rejected_total counter (SPEC_FULL.md §6.6), so a scrape can break
// rejections down by taxonomy code without the metrics package importing
// the chain error sentinels directly.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, ErrInvalidProofKey):
		return "invalid_proof_key"
	case errors.Is(err, ErrInvalidTimestamp):
		return "invalid_timestamp"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrInvalidPublicKey):
		return "invalid_public_key"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrDuplicateBlock):
		return "duplicate_block"
	case errors.Is(err, ErrDuplicateTransaction):
		return "duplicate_transaction"
	case errors.Is(err, ErrOverdueTransaction):
		return "overdue_transaction"
	case errors.Is(err, ErrUnknownParent):
		return "unknown_parent"
	case errors.Is(err, ErrUnknownAncestor):
		return "unknown_ancestor"
	case errors.Is(err, ErrFutureBlock):
		return "future_block"
	case errors.Is(err, ErrTimeSourceUnavailable):
		return "time_source_unavailable"
	default:
		return "other"
	}
}
