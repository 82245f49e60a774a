package ledger

import (
	"fmt"
	"time"

	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStatus represents the payment progress of an obligation or installment
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "PENDING" // Nothing paid
	FeeStatusPartial FeeStatus = "PARTIAL" // 0 < paid < target
	FeeStatusPaid    FeeStatus = "PAID"    // paid >= target
	FeeStatusOverdue FeeStatus = "OVERDUE" // Past due and not fully paid; set by the due-date sweep
)

// IsValid checks if the status is a valid FeeStatus
func (s FeeStatus) IsValid() bool {
	switch s {
	case FeeStatusPending, FeeStatusPartial, FeeStatusPaid, FeeStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of FeeStatus
func (s FeeStatus) String() string {
	return string(s)
}

// StatusFor derives the payment status from paid and target amounts.
// OVERDUE is never derived here; it is an orthogonal flag applied by
// MarkOverdue when a due date has passed.
func StatusFor(paid, target decimal.Decimal) FeeStatus {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return FeeStatusPending
	case paid.GreaterThanOrEqual(target):
		return FeeStatusPaid
	default:
		return FeeStatusPartial
	}
}

// MonthlyInstallment is one month's slice of a fee obligation.
// (obligation_id, academic_month, academic_year) is unique.
type MonthlyInstallment struct {
	shared.BaseEntity
	ObligationID          uuid.UUID
	AcademicMonth         time.Month
	AcademicYear          int
	MonthlyAmount         decimal.Decimal
	PaidAmount            decimal.Decimal
	BalanceAmount         decimal.Decimal
	Status                FeeStatus
	DueDate               time.Time
	WaiverPercentage      *decimal.Decimal
	OriginalMonthlyAmount *decimal.Decimal
}

// NewMonthlyInstallment creates an installment from a schedule entry
func NewMonthlyInstallment(obligationID uuid.UUID, entry ScheduleEntry) MonthlyInstallment {
	return MonthlyInstallment{
		BaseEntity:    shared.NewBaseEntity(),
		ObligationID:  obligationID,
		AcademicMonth: entry.Month,
		AcademicYear:  entry.Year,
		MonthlyAmount: entry.Amount,
		PaidAmount:    decimal.Zero,
		BalanceAmount: entry.Amount,
		Status:        FeeStatusPending,
		DueDate:       entry.DueDate,
	}
}

// IsSettled returns true if nothing remains outstanding on this installment
func (mi *MonthlyInstallment) IsSettled() bool {
	return mi.BalanceAmount.LessThanOrEqual(decimal.Zero)
}

// IsWaived returns true if a sibling waiver has been applied to this installment
func (mi *MonthlyInstallment) IsWaived() bool {
	return mi.WaiverPercentage != nil
}

// FeeObligation is the aggregate root for one student's fee amount owed for
// one academic session and payment type. Its paid/balance/status fields are
// derived caches; the allocation history is the source of truth and
// Recompute re-derives them.
type FeeObligation struct {
	shared.BaseAggregateRoot
	StudentID     uuid.UUID
	SessionYear   int
	PaymentType   string
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
	Status        FeeStatus
	Installments  []MonthlyInstallment
}

// NewFeeObligation creates an obligation and derives its monthly installments
// from the annual total. The installment amounts always sum to the total.
func NewFeeObligation(
	studentID uuid.UUID,
	sessionYear int,
	paymentType string,
	total valueobject.Money,
	startMonth time.Month,
	months int,
	dueDay int,
) (*FeeObligation, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if paymentType == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}

	schedule, err := BuildMonthlySchedule(total.Amount(), startMonth, sessionYear, months, dueDay)
	if err != nil {
		return nil, err
	}

	ob := &FeeObligation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StudentID:         studentID,
		SessionYear:       sessionYear,
		PaymentType:       paymentType,
		TotalAmount:       total.Amount(),
		PaidAmount:        decimal.Zero,
		BalanceAmount:     total.Amount(),
		Status:            FeeStatusPending,
	}
	ob.Installments = make([]MonthlyInstallment, 0, len(schedule))
	for _, entry := range schedule {
		ob.Installments = append(ob.Installments, NewMonthlyInstallment(ob.ID, entry))
	}

	ob.AddDomainEvent(NewFeeObligationCreatedEvent(ob))

	return ob, nil
}

// Installment returns the installment for the given academic month/year
func (o *FeeObligation) Installment(month time.Month, year int) *MonthlyInstallment {
	for i := range o.Installments {
		if o.Installments[i].AcademicMonth == month && o.Installments[i].AcademicYear == year {
			return &o.Installments[i]
		}
	}
	return nil
}

// InstallmentByID returns the installment with the given ID
func (o *FeeObligation) InstallmentByID(id uuid.UUID) *MonthlyInstallment {
	for i := range o.Installments {
		if o.Installments[i].ID == id {
			return &o.Installments[i]
		}
	}
	return nil
}

// OutstandingInstallments returns the installments with a balance remaining,
// in due-date order. This is the conventional allocation target order.
func (o *FeeObligation) OutstandingInstallments() []*MonthlyInstallment {
	out := make([]*MonthlyInstallment, 0, len(o.Installments))
	for i := range o.Installments {
		if !o.Installments[i].IsSettled() {
			out = append(out, &o.Installments[i])
		}
	}
	return out
}

// ApplyWaiver reduces the obligation's total by the given percentage and
// rebuilds the per-month amounts so they sum exactly to the waived total.
// Paid amounts are untouched; callers must Recompute afterwards so balances
// and statuses reconcile against the new totals.
func (o *FeeObligation) ApplyWaiver(percentage decimal.Decimal, reason string) error {
	hundred := decimal.NewFromInt(100)
	if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_WAIVER", "Waiver percentage must be between 0 and 100")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_WAIVER", "Waiver reason is required")
	}
	if len(o.Installments) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Obligation has no installments to waive")
	}

	factor := hundred.Sub(percentage).Div(hundred)
	waivedTotal := o.TotalAmount.Mul(factor).Round(2)

	first := o.Installments[0]
	schedule, err := BuildMonthlySchedule(waivedTotal, first.AcademicMonth, first.AcademicYear, len(o.Installments), first.DueDate.Day())
	if err != nil {
		return err
	}

	for i := range o.Installments {
		inst := &o.Installments[i]
		if inst.OriginalMonthlyAmount == nil {
			original := inst.MonthlyAmount
			inst.OriginalMonthlyAmount = &original
		}
		inst.WaiverPercentage = &percentage
		inst.MonthlyAmount = schedule[i].Amount
		inst.Touch()
	}

	previousTotal := o.TotalAmount
	o.TotalAmount = waivedTotal
	o.Touch()
	o.IncrementVersion()

	o.AddDomainEvent(NewObligationWaiverAppliedEvent(o, previousTotal, percentage, reason))

	return nil
}

// MarkOverdue flags every unsettled installment whose due date has passed,
// and the obligation itself if any installment is overdue. Called by the
// scheduled due-date sweep, never by recomputation.
func (o *FeeObligation) MarkOverdue(now time.Time) bool {
	changed := false
	for i := range o.Installments {
		inst := &o.Installments[i]
		if inst.Status != FeeStatusPaid && inst.Status != FeeStatusOverdue && now.After(inst.DueDate) {
			inst.Status = FeeStatusOverdue
			inst.Touch()
			changed = true
		}
	}
	if changed && o.Status != FeeStatusPaid {
		o.Status = FeeStatusOverdue
		o.Touch()
		o.IncrementVersion()
	}
	return changed
}

// Summary returns a one-line description for logs
func (o *FeeObligation) Summary() string {
	return fmt.Sprintf("obligation %s student=%s type=%s total=%s paid=%s balance=%s status=%s",
		o.ID, o.StudentID, o.PaymentType,
		o.TotalAmount.StringFixed(2), o.PaidAmount.StringFixed(2), o.BalanceAmount.StringFixed(2), o.Status)
}
