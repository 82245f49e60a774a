package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMonthlySchedule(t *testing.T) {
	t.Run("splits an even total across months", func(t *testing.T) {
		entries, err := BuildMonthlySchedule(decimal.NewFromInt(12000), time.February, 2025, 12, 5)
		require.NoError(t, err)
		require.Len(t, entries, 12)

		for _, e := range entries {
			assert.True(t, e.Amount.Equal(decimal.NewFromInt(1000)), "month %s/%d", e.Month, e.Year)
		}
		assert.Equal(t, time.February, entries[0].Month)
		assert.Equal(t, 2025, entries[0].Year)
		assert.Equal(t, time.January, entries[11].Month)
		assert.Equal(t, 2026, entries[11].Year)
	})

	t.Run("absorbs rounding remainder into the final month", func(t *testing.T) {
		total := decimal.NewFromInt(10000)
		entries, err := BuildMonthlySchedule(total, time.January, 2025, 12, 1)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, e := range entries {
			sum = sum.Add(e.Amount)
		}
		assert.True(t, sum.Equal(total), "schedule must sum exactly to the total, got %s", sum)

		// 10000/12 rounds to 833.33; the last month carries the difference.
		assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("833.33")))
		assert.True(t, entries[11].Amount.Equal(decimal.RequireFromString("833.37")))
	})

	t.Run("is deterministic", func(t *testing.T) {
		a, err := BuildMonthlySchedule(decimal.NewFromInt(7777), time.March, 2025, 10, 15)
		require.NoError(t, err)
		b, err := BuildMonthlySchedule(decimal.NewFromInt(7777), time.March, 2025, 10, 15)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("sets due dates on the configured day", func(t *testing.T) {
		entries, err := BuildMonthlySchedule(decimal.NewFromInt(3000), time.November, 2025, 3, 10)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC), entries[0].DueDate)
		assert.Equal(t, time.Date(2025, time.December, 10, 0, 0, 0, 0, time.UTC), entries[1].DueDate)
		assert.Equal(t, time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), entries[2].DueDate)
	})

	t.Run("validates inputs", func(t *testing.T) {
		tests := []struct {
			name   string
			total  decimal.Decimal
			month  time.Month
			months int
			dueDay int
		}{
			{"zero months", decimal.NewFromInt(1000), time.January, 0, 1},
			{"negative total", decimal.NewFromInt(-1), time.January, 12, 1},
			{"month out of range", decimal.NewFromInt(1000), time.Month(13), 12, 1},
			{"due day zero", decimal.NewFromInt(1000), time.January, 12, 0},
			{"due day past 28", decimal.NewFromInt(1000), time.January, 12, 29},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := BuildMonthlySchedule(tt.total, tt.month, 2025, tt.months, tt.dueDay)
				assert.Error(t, err)
			})
		}
	})

	t.Run("sum reconciles against a waived total", func(t *testing.T) {
		waived := decimal.RequireFromString("9000.50")
		entries, err := BuildMonthlySchedule(waived, time.January, 2025, 12, 1)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, e := range entries {
			sum = sum.Add(e.Amount)
		}
		assert.True(t, sum.Equal(waived))
	})
}

func TestAdvanceMonth(t *testing.T) {
	tests := []struct {
		start     time.Month
		year      int
		offset    int
		wantMonth time.Month
		wantYear  int
	}{
		{time.January, 2025, 0, time.January, 2025},
		{time.January, 2025, 11, time.December, 2025},
		{time.February, 2025, 11, time.January, 2026},
		{time.December, 2025, 1, time.January, 2026},
		{time.June, 2025, 24, time.June, 2027},
	}
	for _, tt := range tests {
		month, year := advanceMonth(tt.start, tt.year, tt.offset)
		assert.Equal(t, tt.wantMonth, month)
		assert.Equal(t, tt.wantYear, year)
	}
}
