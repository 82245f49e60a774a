package ledger

import (
	"time"

	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationLine is one installment's share of a planned payment
type AllocationLine struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	Month         time.Month      `json:"month"`
	Year          int             `json:"year"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// AllocationPlan is the result of distributing a payment amount across
// target installments. Unallocated reports the portion of the amount that
// exceeded the targets' combined outstanding balance; whether to reject it
// or carry it as a credit is the caller's policy.
type AllocationPlan struct {
	Lines       []AllocationLine `json:"lines"`
	Allocated   decimal.Decimal  `json:"allocated"`
	Unallocated decimal.Decimal  `json:"unallocated"`
}

// PlanAllocation walks the target installments in the order given, allocating
// min(remaining, installment balance) to each until the amount is exhausted
// or every target is satisfied. The caller controls ordering; earliest-due
// first is the convention but any order is honored.
func PlanAllocation(amount decimal.Decimal, targets []*MonthlyInstallment) (*AllocationPlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if len(targets) == 0 {
		return nil, shared.NewDomainError("INVALID_TARGETS", "At least one target installment is required")
	}

	seen := make(map[uuid.UUID]struct{}, len(targets))
	remaining := amount
	plan := &AllocationPlan{
		Lines:     make([]AllocationLine, 0, len(targets)),
		Allocated: decimal.Zero,
	}

	for _, inst := range targets {
		if _, dup := seen[inst.ID]; dup {
			return nil, shared.NewDomainError("INVALID_TARGETS", "Duplicate target installment").
				WithDetail("installment_id", inst.ID)
		}
		seen[inst.ID] = struct{}{}

		if remaining.IsZero() {
			break
		}
		if inst.BalanceAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		share := decimal.Min(remaining, inst.BalanceAmount)
		plan.Lines = append(plan.Lines, AllocationLine{
			InstallmentID: inst.ID,
			Month:         inst.AcademicMonth,
			Year:          inst.AcademicYear,
			Amount:        share,
			BalanceBefore: inst.BalanceAmount,
			BalanceAfter:  inst.BalanceAmount.Sub(share),
		})
		plan.Allocated = plan.Allocated.Add(share)
		remaining = remaining.Sub(share)
	}

	plan.Unallocated = remaining
	return plan, nil
}

// Allocations materializes the plan into allocation rows owned by the payment
func (p *AllocationPlan) Allocations(paymentID uuid.UUID) ([]Allocation, error) {
	allocations := make([]Allocation, 0, len(p.Lines))
	for _, line := range p.Lines {
		a, err := NewAllocation(paymentID, line.InstallmentID, line.Amount)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, *a)
	}
	return allocations, nil
}
