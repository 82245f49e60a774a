package ledger

import (
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeObligationCreatedEvent is raised when a new fee obligation is created
type FeeObligationCreatedEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID       `json:"obligation_id"`
	StudentID    uuid.UUID       `json:"student_id"`
	SessionYear  int             `json:"session_year"`
	PaymentType  string          `json:"payment_type"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Months       int             `json:"months"`
}

// EventType returns the event type name
func (e *FeeObligationCreatedEvent) EventType() string {
	return "FeeObligationCreated"
}

// NewFeeObligationCreatedEvent creates a new FeeObligationCreatedEvent
func NewFeeObligationCreatedEvent(ob *FeeObligation) *FeeObligationCreatedEvent {
	return &FeeObligationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeObligationCreated", "FeeObligation", ob.ID),
		ObligationID:    ob.ID,
		StudentID:       ob.StudentID,
		SessionYear:     ob.SessionYear,
		PaymentType:     ob.PaymentType,
		TotalAmount:     ob.TotalAmount,
		Months:          len(ob.Installments),
	}
}

// ObligationWaiverAppliedEvent is raised when a waiver reduces an obligation's total
type ObligationWaiverAppliedEvent struct {
	shared.BaseDomainEvent
	ObligationID  uuid.UUID       `json:"obligation_id"`
	StudentID     uuid.UUID       `json:"student_id"`
	PreviousTotal decimal.Decimal `json:"previous_total"`
	NewTotal      decimal.Decimal `json:"new_total"`
	Percentage    decimal.Decimal `json:"percentage"`
	Reason        string          `json:"reason"`
}

// EventType returns the event type name
func (e *ObligationWaiverAppliedEvent) EventType() string {
	return "ObligationWaiverApplied"
}

// NewObligationWaiverAppliedEvent creates a new ObligationWaiverAppliedEvent
func NewObligationWaiverAppliedEvent(ob *FeeObligation, previousTotal, percentage decimal.Decimal, reason string) *ObligationWaiverAppliedEvent {
	return &ObligationWaiverAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationWaiverApplied", "FeeObligation", ob.ID),
		ObligationID:    ob.ID,
		StudentID:       ob.StudentID,
		PreviousTotal:   previousTotal,
		NewTotal:        ob.TotalAmount,
		Percentage:      percentage,
		Reason:          reason,
	}
}
