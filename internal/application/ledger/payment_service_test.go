package ledger

import (
	"context"
	"testing"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_RecordPayment(t *testing.T) {
	t.Run("allocates earliest due date first by default", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)

		result := env.recordPayment(t, ob.ID, 2500, "RCP-001")

		assert.True(t, result.Allocated.Equal(decimal.NewFromInt(2500)))
		assert.True(t, result.Unallocated.IsZero())
		require.Len(t, result.Lines, 3)
		assert.True(t, result.Lines[0].Amount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, result.Lines[1].Amount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, result.Lines[2].Amount.Equal(decimal.NewFromInt(500)))

		assert.True(t, result.Obligation.PaidAmount.Equal(decimal.NewFromInt(2500)))
		assert.True(t, result.Obligation.BalanceAmount.Equal(decimal.NewFromInt(9500)))
		assert.Equal(t, "PARTIAL", result.Obligation.Status)

		assert.Equal(t, "PAID", result.Obligation.Installments[0].Status)
		assert.Equal(t, "PAID", result.Obligation.Installments[1].Status)
		assert.Equal(t, "PARTIAL", result.Obligation.Installments[2].Status)
		assert.Equal(t, "PENDING", result.Obligation.Installments[3].Status)

		require.Len(t, env.store.allocations, 3)
		for _, a := range env.store.allocations {
			assert.False(t, a.IsReversal)
			assert.Equal(t, result.PaymentID, a.PaymentID)
		}
	})

	t.Run("honors named target installments in request order", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)

		result, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			ObligationID:  ob.ID,
			Amount:        decimal.NewFromInt(1500),
			Method:        ledger.PaymentMethodMobileMoney,
			ReceiptNumber: "RCP-002",
			ReceivedBy:    uuid.New(),
			InstallmentIDs: []uuid.UUID{
				ob.Installments[3].ID,
				ob.Installments[0].ID,
			},
		})

		require.NoError(t, err)
		require.Len(t, result.Lines, 2)
		assert.Equal(t, ob.Installments[3].ID, result.Lines[0].InstallmentID)
		assert.True(t, result.Lines[0].Amount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, ob.Installments[0].ID, result.Lines[1].InstallmentID)
		assert.True(t, result.Lines[1].Amount.Equal(decimal.NewFromInt(500)))
	})

	t.Run("reports the amount beyond all balances as unallocated", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)

		result := env.recordPayment(t, ob.ID, 13000, "RCP-003")

		assert.True(t, result.Allocated.Equal(decimal.NewFromInt(12000)))
		assert.True(t, result.Unallocated.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, "PAID", result.Obligation.Status)
		assert.True(t, result.Obligation.BalanceAmount.IsZero())
	})

	t.Run("rejects payment against a settled obligation", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)
		env.recordPayment(t, ob.ID, 12000, "RCP-004")

		_, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			ObligationID:  ob.ID,
			Amount:        decimal.NewFromInt(100),
			Method:        ledger.PaymentMethodCash,
			ReceiptNumber: "RCP-005",
			ReceivedBy:    uuid.New(),
		})

		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "NOTHING_OUTSTANDING", derr.Code)
	})

	t.Run("rejects unknown target installment", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)

		_, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			ObligationID:   ob.ID,
			Amount:         decimal.NewFromInt(500),
			Method:         ledger.PaymentMethodCash,
			ReceiptNumber:  "RCP-006",
			ReceivedBy:     uuid.New(),
			InstallmentIDs: []uuid.UUID{uuid.New()},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Empty(t, env.store.payments)
	})

	t.Run("rejects unknown obligation", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			ObligationID:  uuid.New(),
			Amount:        decimal.NewFromInt(500),
			Method:        ledger.PaymentMethodCash,
			ReceiptNumber: "RCP-007",
			ReceivedBy:    uuid.New(),
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)

		_, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			ObligationID:  ob.ID,
			Amount:        decimal.NewFromInt(-500),
			Method:        ledger.PaymentMethodCash,
			ReceiptNumber: "RCP-008",
			ReceivedBy:    uuid.New(),
		})

		require.Error(t, err)
		assert.Empty(t, env.store.payments)
	})

	t.Run("rolls everything back when the allocation write fails", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)
		env.store.failAllocationBatch = true

		_, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
			ObligationID:  ob.ID,
			Amount:        decimal.NewFromInt(2500),
			Method:        ledger.PaymentMethodCash,
			ReceiptNumber: "RCP-009",
			ReceivedBy:    uuid.New(),
		})

		require.Error(t, err)
		assert.Empty(t, env.store.payments)
		assert.Empty(t, env.store.allocations)
		stored := env.store.obligation(ob.ID)
		assert.True(t, stored.PaidAmount.IsZero())
		assert.Equal(t, ledger.FeeStatusPending, stored.Status)
	})

	t.Run("publishes the recorded event after commit", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)
		env.publisher.events = nil

		result := env.recordPayment(t, ob.ID, 1000, "RCP-010")

		require.Len(t, env.publisher.events, 1)
		event, ok := env.publisher.events[0].(*ledger.PaymentRecordedEvent)
		require.True(t, ok)
		assert.Equal(t, result.PaymentID, event.PaymentID)
	})
}

// Recording payments month by month must settle the obligation exactly, with
// the obligation totals always equal to the sum over all allocations.
func TestPaymentService_RecordPayment_Conservation(t *testing.T) {
	env := newTestEnv(t)
	ob := env.seedObligation(t)

	for i := 0; i < 12; i++ {
		env.recordPayment(t, ob.ID, 1000, "RCP-M")
	}

	stored := env.store.obligation(ob.ID)
	assert.Equal(t, ledger.FeeStatusPaid, stored.Status)
	assert.True(t, stored.BalanceAmount.IsZero())

	sum := decimal.Zero
	for _, a := range env.store.allocations {
		sum = sum.Add(a.AllocatedAmount)
	}
	assert.True(t, sum.Equal(stored.PaidAmount))
}
