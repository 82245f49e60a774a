package ledger

import (
	"time"

	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ScheduleEntry is one month's slice of an annual fee total.
type ScheduleEntry struct {
	Month   time.Month      `json:"month"`
	Year    int             `json:"year"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// BuildMonthlySchedule splits an annual total into n monthly entries starting
// at startMonth/startYear. Amounts are rounded to 2 decimal places and any
// rounding remainder is absorbed into the final month, so the entries always
// sum exactly to the total. Deterministic for the same inputs.
func BuildMonthlySchedule(total decimal.Decimal, startMonth time.Month, startYear, months, dueDay int) ([]ScheduleEntry, error) {
	if months <= 0 {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Schedule must cover at least one month")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Schedule total cannot be negative")
	}
	if startMonth < time.January || startMonth > time.December {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Start month is out of range")
	}
	if dueDay < 1 || dueDay > 28 {
		// Capped at 28 so every month of every year has the due day.
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Due day must be between 1 and 28")
	}

	perMonth := total.DivRound(decimal.NewFromInt(int64(months)), 2)

	entries := make([]ScheduleEntry, 0, months)
	allocated := decimal.Zero
	for i := 0; i < months; i++ {
		month, year := advanceMonth(startMonth, startYear, i)

		amount := perMonth
		if i == months-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		entries = append(entries, ScheduleEntry{
			Month:   month,
			Year:    year,
			Amount:  amount,
			DueDate: time.Date(year, month, dueDay, 0, 0, 0, 0, time.UTC),
		})
	}

	return entries, nil
}

// advanceMonth returns the calendar month/year offset months after the start.
func advanceMonth(startMonth time.Month, startYear, offset int) (time.Month, int) {
	idx := int(startMonth) - 1 + offset
	return time.Month(idx%12 + 1), startYear + idx/12
}
