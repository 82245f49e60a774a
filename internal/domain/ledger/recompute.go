package ledger

import (
	"github.com/shopspring/decimal"
)

// Recompute derives the obligation's and every installment's paid, balance
// and status fields from the full signed allocation history. Reversal
// allocations carry negative amounts, so a plain sum over all rows - live
// and reversal alike - yields the current position; no exclusion flag is
// consulted during summation. Idempotent: recomputing twice with no
// intervening writes produces identical values.
//
// A negative recomputed balance at the installment level signals an
// allocation bug upstream and returns ErrIntegrityViolation; it is never
// clamped. The obligation-level balance is clamped at zero (an overpaid
// obligation is a valid credit position, not a bug).
func Recompute(ob *FeeObligation, allocations []Allocation) error {
	byInstallment := make(map[string]decimal.Decimal, len(ob.Installments))
	for _, a := range allocations {
		key := a.InstallmentID.String()
		byInstallment[key] = byInstallment[key].Add(a.AllocatedAmount)
	}

	totalPaid := decimal.Zero
	for i := range ob.Installments {
		inst := &ob.Installments[i]
		paid := byInstallment[inst.ID.String()]
		if err := applyInstallmentTotals(inst, paid); err != nil {
			return err
		}
		totalPaid = totalPaid.Add(paid)
	}

	ob.PaidAmount = totalPaid
	balance := ob.TotalAmount.Sub(totalPaid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	ob.BalanceAmount = balance
	ob.Status = deriveStatus(ob.Status, totalPaid, ob.TotalAmount)
	ob.Touch()

	return nil
}

// RecomputeInstallment recomputes a single installment from the allocations
// that reference it. The per-month variant of Recompute, with the same
// semantics.
func RecomputeInstallment(inst *MonthlyInstallment, allocations []Allocation) error {
	paid := decimal.Zero
	for _, a := range allocations {
		if a.InstallmentID == inst.ID {
			paid = paid.Add(a.AllocatedAmount)
		}
	}
	return applyInstallmentTotals(inst, paid)
}

func applyInstallmentTotals(inst *MonthlyInstallment, paid decimal.Decimal) error {
	balance := inst.MonthlyAmount.Sub(paid)
	if balance.IsNegative() {
		return ErrIntegrityViolation.
			WithDetail("installment_id", inst.ID).
			WithDetail("monthly_amount", inst.MonthlyAmount.String()).
			WithDetail("paid_amount", paid.String())
	}

	inst.PaidAmount = paid
	inst.BalanceAmount = balance
	inst.Status = deriveStatus(inst.Status, paid, inst.MonthlyAmount)
	inst.Touch()
	return nil
}

// deriveStatus applies the paid/target thresholds while preserving an
// OVERDUE flag that the due-date sweep set, unless the amount is now fully
// paid. OVERDUE is orthogonal to payment progress and is never newly derived
// here.
func deriveStatus(current FeeStatus, paid, target decimal.Decimal) FeeStatus {
	derived := StatusFor(paid, target)
	if current == FeeStatusOverdue && derived != FeeStatusPaid {
		return FeeStatusOverdue
	}
	return derived
}
