package ledger

import (
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordedEvent is raised when a forward payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	ObligationID  uuid.UUID       `json:"obligation_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	ReceiptNumber string          `json:"receipt_number"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Payment", p.ID),
		PaymentID:       p.ID,
		ObligationID:    p.ObligationID,
		Amount:          p.Amount,
		Method:          p.Method,
		ReceiptNumber:   p.ReceiptNumber,
	}
}

// PaymentReversedEvent is raised when a payment is reversed, fully or partially
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PaymentID         uuid.UUID       `json:"payment_id"`
	ReversalPaymentID uuid.UUID       `json:"reversal_payment_id"`
	ObligationID      uuid.UUID       `json:"obligation_id"`
	ReversalType      ReversalType    `json:"reversal_type"`
	ReversedAmount    decimal.Decimal `json:"reversed_amount"`
	PerformedBy       uuid.UUID       `json:"performed_by"`
	Reason            string          `json:"reason"`
}

// EventType returns the event type name
func (e *PaymentReversedEvent) EventType() string {
	return "PaymentReversed"
}

// NewPaymentReversedEvent creates a new PaymentReversedEvent
func NewPaymentReversedEvent(original, reversal *Payment, reversalType ReversalType, performedBy uuid.UUID, reason string) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("PaymentReversed", "Payment", original.ID),
		PaymentID:         original.ID,
		ReversalPaymentID: reversal.ID,
		ObligationID:      original.ObligationID,
		ReversalType:      reversalType,
		ReversedAmount:    reversal.Amount.Neg(),
		PerformedBy:       performedBy,
		Reason:            reason,
	}
}
