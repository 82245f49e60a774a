package ledger

import (
	"time"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// CreateObligationRequest creates a fee obligation and its monthly schedule
type CreateObligationRequest struct {
	StudentID   uuid.UUID       `json:"student_id" validate:"required"`
	SessionYear int             `json:"session_year" validate:"required,min=2000,max=2100"`
	PaymentType string          `json:"payment_type" validate:"required,max=50"`
	TotalAmount decimal.Decimal `json:"total_amount" validate:"required"`
	StartMonth  int             `json:"start_month" validate:"required,min=1,max=12"`
	// Months and DueDay fall back to the configured defaults when zero
	Months int `json:"months" validate:"omitempty,min=1,max=12"`
	DueDay int `json:"due_day" validate:"omitempty,min=1,max=28"`
}

// ApplyWaiverRequest reduces an obligation's total by a percentage
type ApplyWaiverRequest struct {
	ObligationID uuid.UUID       `json:"obligation_id" validate:"required"`
	Percentage   decimal.Decimal `json:"percentage" validate:"required"`
	Reason       string          `json:"reason" validate:"required,max=500"`
}

// RecordPaymentRequest records a forward payment against an obligation.
// When InstallmentIDs is empty the payment is allocated to outstanding
// installments in due-date order.
type RecordPaymentRequest struct {
	ObligationID   uuid.UUID            `json:"obligation_id" validate:"required"`
	Amount         decimal.Decimal      `json:"amount" validate:"required"`
	Method         ledger.PaymentMethod `json:"method" validate:"required"`
	ReceiptNumber  string               `json:"receipt_number" validate:"required,max=50"`
	ReceivedBy     uuid.UUID            `json:"received_by" validate:"required"`
	Remark         string               `json:"remark" validate:"omitempty,max=500"`
	InstallmentIDs []uuid.UUID          `json:"installment_ids" validate:"omitempty,unique"`
}

// ReverseFullRequest reverses every live allocation of a payment
type ReverseFullRequest struct {
	PaymentID   uuid.UUID `json:"payment_id" validate:"required"`
	PerformedBy uuid.UUID `json:"performed_by" validate:"required"`
	Reason      string    `json:"reason" validate:"required,max=500"`
}

// ReversePartialRequest reverses a subset of a payment's live allocations
type ReversePartialRequest struct {
	PaymentID     uuid.UUID   `json:"payment_id" validate:"required"`
	AllocationIDs []uuid.UUID `json:"allocation_ids" validate:"required,min=1,unique"`
	PerformedBy   uuid.UUID   `json:"performed_by" validate:"required"`
	Reason        string      `json:"reason" validate:"required,max=500"`
}

// InstallmentResponse represents one monthly installment in responses
type InstallmentResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Month                 int              `json:"month"`
	Year                  int              `json:"year"`
	MonthlyAmount         decimal.Decimal  `json:"monthly_amount"`
	PaidAmount            decimal.Decimal  `json:"paid_amount"`
	BalanceAmount         decimal.Decimal  `json:"balance_amount"`
	Status                string           `json:"status"`
	DueDate               time.Time        `json:"due_date"`
	WaiverPercentage      *decimal.Decimal `json:"waiver_percentage,omitempty"`
	OriginalMonthlyAmount *decimal.Decimal `json:"original_monthly_amount,omitempty"`
}

// ObligationResponse represents a fee obligation in responses
type ObligationResponse struct {
	ID            uuid.UUID             `json:"id"`
	StudentID     uuid.UUID             `json:"student_id"`
	SessionYear   int                   `json:"session_year"`
	PaymentType   string                `json:"payment_type"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	BalanceAmount decimal.Decimal       `json:"balance_amount"`
	Status        string                `json:"status"`
	Installments  []InstallmentResponse `json:"installments"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// RecordPaymentResult reports what a recorded payment did
type RecordPaymentResult struct {
	PaymentID     uuid.UUID               `json:"payment_id"`
	ReceiptNumber string                  `json:"receipt_number"`
	Allocated     decimal.Decimal         `json:"allocated"`
	Unallocated   decimal.Decimal         `json:"unallocated"`
	Lines         []ledger.AllocationLine `json:"lines"`
	Obligation    *ObligationResponse     `json:"obligation"`
}

// AffectedMonth reports one month touched by a reversal
type AffectedMonth struct {
	Month  int             `json:"month"`
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
}

// ReversalResult reports what a reversal did. ReversalAmount is positive.
type ReversalResult struct {
	ReversalPaymentID uuid.UUID           `json:"reversal_payment_id"`
	ReversalAmount    decimal.Decimal     `json:"reversal_amount"`
	ReversalType      ledger.ReversalType `json:"reversal_type"`
	AffectedMonths    []AffectedMonth     `json:"affected_months"`
	Obligation        *ObligationResponse `json:"obligation"`
}

// PaymentResponse represents a payment event in responses
type PaymentResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ObligationID        uuid.UUID       `json:"obligation_id"`
	Amount              decimal.Decimal `json:"amount"`
	Method              string          `json:"method"`
	ReceiptNumber       string          `json:"receipt_number"`
	ReceivedBy          uuid.UUID       `json:"received_by"`
	Remark              string          `json:"remark,omitempty"`
	IsReversal          bool            `json:"is_reversal"`
	ReversesPaymentID   *uuid.UUID      `json:"reverses_payment_id,omitempty"`
	ReversedByPaymentID *uuid.UUID      `json:"reversed_by_payment_id,omitempty"`
	ReversalType        *string         `json:"reversal_type,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// AuditEntryResponse represents one reversal audit entry
type AuditEntryResponse struct {
	ID           uuid.UUID                 `json:"id"`
	PaymentID    uuid.UUID                 `json:"payment_id"`
	ObligationID uuid.UUID                 `json:"obligation_id"`
	Action       string                    `json:"action"`
	PerformedBy  uuid.UUID                 `json:"performed_by"`
	Reason       string                    `json:"reason"`
	OldValues    ledger.ObligationSnapshot `json:"old_values"`
	NewValues    ledger.ObligationSnapshot `json:"new_values"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// MonthlyHistoryEntry is one allocation against an installment, with its
// owning payment's identity
type MonthlyHistoryEntry struct {
	AllocationID         uuid.UUID       `json:"allocation_id"`
	PaymentID            uuid.UUID       `json:"payment_id"`
	Amount               decimal.Decimal `json:"amount"`
	IsReversal           bool            `json:"is_reversal"`
	ReversesAllocationID *uuid.UUID      `json:"reverses_allocation_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// MonthlyHistory is one installment's full allocation history
type MonthlyHistory struct {
	Installment InstallmentResponse   `json:"installment"`
	Entries     []MonthlyHistoryEntry `json:"entries"`
}

func toInstallmentResponse(inst *ledger.MonthlyInstallment) InstallmentResponse {
	return InstallmentResponse{
		ID:                    inst.ID,
		Month:                 int(inst.AcademicMonth),
		Year:                  inst.AcademicYear,
		MonthlyAmount:         inst.MonthlyAmount,
		PaidAmount:            inst.PaidAmount,
		BalanceAmount:         inst.BalanceAmount,
		Status:                inst.Status.String(),
		DueDate:               inst.DueDate,
		WaiverPercentage:      inst.WaiverPercentage,
		OriginalMonthlyAmount: inst.OriginalMonthlyAmount,
	}
}

func toObligationResponse(ob *ledger.FeeObligation) *ObligationResponse {
	resp := &ObligationResponse{
		ID:            ob.ID,
		StudentID:     ob.StudentID,
		SessionYear:   ob.SessionYear,
		PaymentType:   ob.PaymentType,
		TotalAmount:   ob.TotalAmount,
		PaidAmount:    ob.PaidAmount,
		BalanceAmount: ob.BalanceAmount,
		Status:        ob.Status.String(),
		Installments:  make([]InstallmentResponse, len(ob.Installments)),
		CreatedAt:     ob.CreatedAt,
		UpdatedAt:     ob.UpdatedAt,
		Version:       ob.Version,
	}
	for i := range ob.Installments {
		resp.Installments[i] = toInstallmentResponse(&ob.Installments[i])
	}
	return resp
}

func toPaymentResponse(p *ledger.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:                  p.ID,
		ObligationID:        p.ObligationID,
		Amount:              p.Amount,
		Method:              string(p.Method),
		ReceiptNumber:       p.ReceiptNumber,
		ReceivedBy:          p.ReceivedBy,
		Remark:              p.Remark,
		IsReversal:          p.IsReversal,
		ReversesPaymentID:   p.ReversesPaymentID,
		ReversedByPaymentID: p.ReversedByPaymentID,
		CreatedAt:           p.CreatedAt,
	}
	if p.ReversalType != nil {
		rt := string(*p.ReversalType)
		resp.ReversalType = &rt
	}
	return resp
}

func toAuditEntryResponse(e *ledger.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:           e.ID,
		PaymentID:    e.PaymentID,
		ObligationID: e.ObligationID,
		Action:       string(e.Action),
		PerformedBy:  e.PerformedBy,
		Reason:       e.Reason,
		OldValues:    e.OldValues,
		NewValues:    e.NewValues,
		CreatedAt:    e.CreatedAt,
	}
}
