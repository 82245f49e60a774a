package models

import (
	"time"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeObligationModel is the GORM model for fee obligations
type FeeObligationModel struct {
	AggregateModel
	StudentID     uuid.UUID                 `gorm:"type:uuid;not null;index:idx_obligations_student_session,priority:1"`
	SessionYear   int                       `gorm:"not null;index:idx_obligations_student_session,priority:2"`
	PaymentType   string                    `gorm:"type:varchar(50);not null"`
	TotalAmount   decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	BalanceAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Status        ledger.FeeStatus          `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Installments  []MonthlyInstallmentModel `gorm:"foreignKey:ObligationID"`
}

// TableName returns the table name for GORM
func (FeeObligationModel) TableName() string {
	return "fee_obligations"
}

// ToDomain converts the persistence model to a domain FeeObligation
func (m *FeeObligationModel) ToDomain() *ledger.FeeObligation {
	ob := &ledger.FeeObligation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StudentID:         m.StudentID,
		SessionYear:       m.SessionYear,
		PaymentType:       m.PaymentType,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		BalanceAmount:     m.BalanceAmount,
		Status:            m.Status,
	}
	ob.Installments = make([]ledger.MonthlyInstallment, len(m.Installments))
	for i, inst := range m.Installments {
		ob.Installments[i] = *inst.ToDomain()
	}
	return ob
}

// FromDomain populates the model from a domain FeeObligation
func (m *FeeObligationModel) FromDomain(ob *ledger.FeeObligation) {
	m.FromDomainAggregateRoot(ob.BaseAggregateRoot)
	m.StudentID = ob.StudentID
	m.SessionYear = ob.SessionYear
	m.PaymentType = ob.PaymentType
	m.TotalAmount = ob.TotalAmount
	m.PaidAmount = ob.PaidAmount
	m.BalanceAmount = ob.BalanceAmount
	m.Status = ob.Status
	m.Installments = make([]MonthlyInstallmentModel, len(ob.Installments))
	for i := range ob.Installments {
		m.Installments[i].FromDomain(&ob.Installments[i])
	}
}

// MonthlyInstallmentModel is the GORM model for monthly installments
type MonthlyInstallmentModel struct {
	BaseModel
	ObligationID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_installments_obligation_month,priority:1"`
	AcademicMonth         int              `gorm:"not null;uniqueIndex:idx_installments_obligation_month,priority:2"`
	AcademicYear          int              `gorm:"not null;uniqueIndex:idx_installments_obligation_month,priority:3"`
	MonthlyAmount         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	PaidAmount            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BalanceAmount         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Status                ledger.FeeStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate               time.Time        `gorm:"not null;index"`
	WaiverPercentage      *decimal.Decimal `gorm:"type:decimal(5,2)"`
	OriginalMonthlyAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (MonthlyInstallmentModel) TableName() string {
	return "monthly_installments"
}

// ToDomain converts the persistence model to a domain MonthlyInstallment
func (m *MonthlyInstallmentModel) ToDomain() *ledger.MonthlyInstallment {
	return &ledger.MonthlyInstallment{
		BaseEntity:            m.BaseModel.ToDomain(),
		ObligationID:          m.ObligationID,
		AcademicMonth:         time.Month(m.AcademicMonth),
		AcademicYear:          m.AcademicYear,
		MonthlyAmount:         m.MonthlyAmount,
		PaidAmount:            m.PaidAmount,
		BalanceAmount:         m.BalanceAmount,
		Status:                m.Status,
		DueDate:               m.DueDate,
		WaiverPercentage:      m.WaiverPercentage,
		OriginalMonthlyAmount: m.OriginalMonthlyAmount,
	}
}

// FromDomain populates the model from a domain MonthlyInstallment
func (m *MonthlyInstallmentModel) FromDomain(inst *ledger.MonthlyInstallment) {
	m.FromDomainBaseEntity(inst.BaseEntity)
	m.ObligationID = inst.ObligationID
	m.AcademicMonth = int(inst.AcademicMonth)
	m.AcademicYear = inst.AcademicYear
	m.MonthlyAmount = inst.MonthlyAmount
	m.PaidAmount = inst.PaidAmount
	m.BalanceAmount = inst.BalanceAmount
	m.Status = inst.Status
	m.DueDate = inst.DueDate
	m.WaiverPercentage = inst.WaiverPercentage
	m.OriginalMonthlyAmount = inst.OriginalMonthlyAmount
}

// PaymentModel is the GORM model for payment events
type PaymentModel struct {
	AggregateModel
	ObligationID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Method              ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReceiptNumber       string               `gorm:"type:varchar(50);not null;index"`
	ReceivedBy          uuid.UUID            `gorm:"type:uuid;not null"`
	Remark              string               `gorm:"type:text"`
	IsReversal          bool                 `gorm:"not null;default:false"`
	ReversesPaymentID   *uuid.UUID           `gorm:"type:uuid;index"`
	ReversedByPaymentID *uuid.UUID           `gorm:"type:uuid"`
	ReversalType        *ledger.ReversalType `gorm:"type:varchar(10)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
// Allocations are loaded separately by the allocation repository.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		ObligationID:        m.ObligationID,
		Amount:              m.Amount,
		Method:              m.Method,
		ReceiptNumber:       m.ReceiptNumber,
		ReceivedBy:          m.ReceivedBy,
		Remark:              m.Remark,
		IsReversal:          m.IsReversal,
		ReversesPaymentID:   m.ReversesPaymentID,
		ReversedByPaymentID: m.ReversedByPaymentID,
		ReversalType:        m.ReversalType,
	}
}

// FromDomain populates the model from a domain Payment
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ObligationID = p.ObligationID
	m.Amount = p.Amount
	m.Method = p.Method
	m.ReceiptNumber = p.ReceiptNumber
	m.ReceivedBy = p.ReceivedBy
	m.Remark = p.Remark
	m.IsReversal = p.IsReversal
	m.ReversesPaymentID = p.ReversesPaymentID
	m.ReversedByPaymentID = p.ReversedByPaymentID
	m.ReversalType = p.ReversalType
}

// AllocationModel is the GORM model for payment allocations. Rows are
// append-only; a partial unique index keeps at most one live reversal
// row per original allocation.
type AllocationModel struct {
	BaseModel
	PaymentID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstallmentID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AllocatedAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsReversal           bool            `gorm:"not null;default:false"`
	ReversesAllocationID *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_allocations_reverses,where:reverses_allocation_id IS NOT NULL"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain Allocation
func (m *AllocationModel) ToDomain() *ledger.Allocation {
	return &ledger.Allocation{
		BaseEntity:           m.BaseModel.ToDomain(),
		PaymentID:            m.PaymentID,
		InstallmentID:        m.InstallmentID,
		AllocatedAmount:      m.AllocatedAmount,
		IsReversal:           m.IsReversal,
		ReversesAllocationID: m.ReversesAllocationID,
	}
}

// FromDomain populates the model from a domain Allocation
func (m *AllocationModel) FromDomain(a *ledger.Allocation) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.PaymentID = a.PaymentID
	m.InstallmentID = a.InstallmentID
	m.AllocatedAmount = a.AllocatedAmount
	m.IsReversal = a.IsReversal
	m.ReversesAllocationID = a.ReversesAllocationID
}

// AuditEntryModel is the GORM model for the append-only reversal audit trail
type AuditEntryModel struct {
	BaseModel
	PaymentID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ObligationID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Action       ledger.AuditAction        `gorm:"type:varchar(30);not null"`
	PerformedBy  uuid.UUID                 `gorm:"type:uuid;not null"`
	Reason       string                    `gorm:"type:varchar(500);not null"`
	OldValues    ledger.ObligationSnapshot `gorm:"type:jsonb;not null"`
	NewValues    ledger.ObligationSnapshot `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "ledger_audit_entries"
}

// ToDomain converts the persistence model to a domain AuditEntry
func (m *AuditEntryModel) ToDomain() *ledger.AuditEntry {
	return &ledger.AuditEntry{
		BaseEntity:   m.BaseModel.ToDomain(),
		PaymentID:    m.PaymentID,
		ObligationID: m.ObligationID,
		Action:       m.Action,
		PerformedBy:  m.PerformedBy,
		Reason:       m.Reason,
		OldValues:    m.OldValues,
		NewValues:    m.NewValues,
	}
}

// FromDomain populates the model from a domain AuditEntry
func (m *AuditEntryModel) FromDomain(e *ledger.AuditEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.PaymentID = e.PaymentID
	m.ObligationID = e.ObligationID
	m.Action = e.Action
	m.PerformedBy = e.PerformedBy
	m.Reason = e.Reason
	m.OldValues = e.OldValues
	m.NewValues = e.NewValues
}
