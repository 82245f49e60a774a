package ledger

import "github.com/edudesk/backend/internal/domain/shared"

// Ledger-specific domain errors. All of them are detected before any write,
// so a caller seeing one of these can assume nothing was mutated.
var (
	// ErrAlreadyReversed is returned when a full reversal targets a payment
	// whose reversed_by_payment_id is already set.
	ErrAlreadyReversed = shared.NewDomainError("ALREADY_REVERSED", "Payment has already been fully reversed")

	// ErrCannotReverseAReversal is returned when a reversal targets a payment
	// that is itself a reversal.
	ErrCannotReverseAReversal = shared.NewDomainError("CANNOT_REVERSE_A_REVERSAL", "A reversal payment cannot be reversed")

	// ErrInvalidAllocationSet is returned when a partial reversal references
	// allocations that do not belong to the payment, are themselves reversals,
	// or have already been offset.
	ErrInvalidAllocationSet = shared.NewDomainError("INVALID_ALLOCATION_SET", "Selected allocations are not reversible for this payment")

	// ErrUseFullReversalInstead is returned when a partial reversal selects the
	// payment's entire live allocation set. Full reversal is the only path that
	// may leave a payment with no live allocations.
	ErrUseFullReversalInstead = shared.NewDomainError("USE_FULL_REVERSAL_INSTEAD", "Selection covers all live allocations; use a full reversal")

	// ErrIntegrityViolation is returned when a recomputed monthly balance is
	// negative. This signals an allocation bug upstream and is never silently
	// corrected.
	ErrIntegrityViolation = shared.NewDomainError("INTEGRITY_VIOLATION", "Recomputed installment balance is negative")
)
