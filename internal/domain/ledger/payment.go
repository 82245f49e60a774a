package ledger

import (
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodMobileMoney PaymentMethod = "MOBILE_MONEY"
	PaymentMethodBank        PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque      PaymentMethod = "CHEQUE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMobileMoney, PaymentMethodBank, PaymentMethodCheque:
		return true
	}
	return false
}

// ReversalType distinguishes a full reversal from a partial one
type ReversalType string

const (
	ReversalTypeFull    ReversalType = "FULL"
	ReversalTypePartial ReversalType = "PARTIAL"
)

// IsValid checks if the reversal type is valid
func (t ReversalType) IsValid() bool {
	return t == ReversalTypeFull || t == ReversalTypePartial
}

// Allocation links one payment to one monthly installment. Its amount carries
// the sign of the owning payment: positive for forward payments, negative for
// reversals. Allocations are never mutated or deleted; a reversal is a new
// negative row whose ReversesAllocationID points at the row it offsets, and
// at most one live allocation may point at any given original.
type Allocation struct {
	shared.BaseEntity
	PaymentID            uuid.UUID
	InstallmentID        uuid.UUID
	AllocatedAmount      decimal.Decimal
	IsReversal           bool
	ReversesAllocationID *uuid.UUID
}

// NewAllocation creates a forward allocation of a payment to an installment
func NewAllocation(paymentID, installmentID uuid.UUID, amount decimal.Decimal) (*Allocation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocated amount must be positive")
	}
	return &Allocation{
		BaseEntity:      shared.NewBaseEntity(),
		PaymentID:       paymentID,
		InstallmentID:   installmentID,
		AllocatedAmount: amount,
	}, nil
}

// NewOffsettingAllocation creates the negative allocation that cancels the
// given original under a reversal payment.
func NewOffsettingAllocation(reversalPaymentID uuid.UUID, original *Allocation) (*Allocation, error) {
	if original.IsReversal {
		return nil, ErrInvalidAllocationSet.WithDetail("allocation_id", original.ID)
	}
	originalID := original.ID
	return &Allocation{
		BaseEntity:           shared.NewBaseEntity(),
		PaymentID:            reversalPaymentID,
		InstallmentID:        original.InstallmentID,
		AllocatedAmount:      original.AllocatedAmount.Neg(),
		IsReversal:           true,
		ReversesAllocationID: &originalID,
	}, nil
}

// Payment is an immutable payment event against one fee obligation. Forward
// payments carry a positive amount; reversal payments carry a negative amount
// and point back at the payment they offset. Once created, only the
// ReversedByPaymentID pointer on the original is ever set.
type Payment struct {
	shared.BaseAggregateRoot
	ObligationID        uuid.UUID
	Amount              decimal.Decimal
	Method              PaymentMethod
	ReceiptNumber       string
	ReceivedBy          uuid.UUID
	Remark              string
	IsReversal          bool
	ReversesPaymentID   *uuid.UUID
	ReversedByPaymentID *uuid.UUID
	ReversalType        *ReversalType
	Allocations         []Allocation
}

// NewPayment creates a forward payment against an obligation
func NewPayment(
	obligationID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	receiptNumber string,
	receivedBy uuid.UUID,
	remark string,
) (*Payment, error) {
	if obligationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OBLIGATION", "Obligation ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Receipt number cannot be empty")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Receiving user cannot be empty")
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ObligationID:      obligationID,
		Amount:            amount.Amount(),
		Method:            method,
		ReceiptNumber:     receiptNumber,
		ReceivedBy:        receivedBy,
		Remark:            remark,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// NewReversalPayment creates the offsetting payment for a reversal. The
// amount is the (positive) sum being reversed; the stored amount is negated.
func NewReversalPayment(original *Payment, amount decimal.Decimal, reversalType ReversalType, performedBy uuid.UUID, reason string) (*Payment, error) {
	if err := original.EnsureReversible(); err != nil {
		return nil, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}
	if !reversalType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REVERSAL_TYPE", "Reversal type is not valid")
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Performing user cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Reversal reason is required")
	}

	originalID := original.ID
	rt := reversalType
	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ObligationID:      original.ObligationID,
		Amount:            amount.Neg(),
		Method:            original.Method,
		ReceiptNumber:     original.ReceiptNumber + "/REV",
		ReceivedBy:        performedBy,
		Remark:            reason,
		IsReversal:        true,
		ReversesPaymentID: &originalID,
		ReversalType:      &rt,
	}

	return p, nil
}

// EnsureReversible fails if this payment cannot be the target of a reversal
func (p *Payment) EnsureReversible() error {
	if p.IsReversal {
		return ErrCannotReverseAReversal.WithDetail("payment_id", p.ID)
	}
	if p.ReversedByPaymentID != nil {
		return ErrAlreadyReversed.
			WithDetail("payment_id", p.ID).
			WithDetail("reversed_by_payment_id", *p.ReversedByPaymentID)
	}
	return nil
}

// MarkFullyReversed records the pointer that closes the payment against any
// further reversal. Only set on true full reversals - a partially reversed
// payment keeps the pointer nil so its remaining live allocations stay
// reversible.
func (p *Payment) MarkFullyReversed(reversalPaymentID uuid.UUID) error {
	if err := p.EnsureReversible(); err != nil {
		return err
	}
	p.ReversedByPaymentID = &reversalPaymentID
	p.Touch()
	p.IncrementVersion()
	return nil
}

// OwnsAllocation reports whether the given allocation belongs to this payment
func (p *Payment) OwnsAllocation(a *Allocation) bool {
	return a.PaymentID == p.ID
}
