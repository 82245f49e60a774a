package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenSummaryCache fails every operation, standing in for an unreachable
// redis instance.
type brokenSummaryCache struct{}

func (brokenSummaryCache) Get(context.Context, uuid.UUID) ([]byte, bool, error) {
	return nil, false, assert.AnError
}

func (brokenSummaryCache) Set(context.Context, uuid.UUID, []byte, time.Duration) error {
	return assert.AnError
}

func (brokenSummaryCache) Invalidate(context.Context, uuid.UUID) error {
	return assert.AnError
}

func TestQueryService_GetObligationSummary(t *testing.T) {
	t.Run("serves from the database on a cold cache", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)
		env.recordPayment(t, ob.ID, 2500, "RCP-001")

		resp, err := env.queries.GetObligationSummary(context.Background(), ob.ID)
		require.NoError(t, err)
		assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(2500)))
		require.Len(t, resp.Installments, 12)
	})

	t.Run("serves from the cache until invalidated", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)

		warm, err := env.queries.GetObligationSummary(context.Background(), ob.ID)
		require.NoError(t, err)
		assert.True(t, warm.PaidAmount.IsZero())

		// Mutate the store behind the cache's back; the cached summary
		// must still be served.
		stored := env.store.obligation(ob.ID)
		stored.PaidAmount = decimal.NewFromInt(999)
		env.store.putObligation(stored)

		cached, err := env.queries.GetObligationSummary(context.Background(), ob.ID)
		require.NoError(t, err)
		assert.True(t, cached.PaidAmount.IsZero(), "stale summary expected while cached")

		// A recorded payment invalidates the summary, so the next read is
		// fresh.
		env.recordPayment(t, ob.ID, 1000, "RCP-002")
		fresh, err := env.queries.GetObligationSummary(context.Background(), ob.ID)
		require.NoError(t, err)
		assert.True(t, fresh.PaidAmount.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("degrades to database reads when the cache is down", func(t *testing.T) {
		env := newTestEnv(t)
		ob := env.seedObligation(t)
		env.recordPayment(t, ob.ID, 2500, "RCP-001")

		queries := NewQueryService(env.store.repositories(), brokenSummaryCache{}, time.Minute, zap.NewNop())

		resp, err := queries.GetObligationSummary(context.Background(), ob.ID)
		require.NoError(t, err)
		assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(2500)))
	})

	t.Run("unknown obligation", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.queries.GetObligationSummary(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestQueryService_GetStudentObligations(t *testing.T) {
	env := newTestEnv(t)
	studentID := uuid.New()

	for _, paymentType := range []string{"TUITION", "BOARDING"} {
		_, err := env.obligations.CreateObligation(context.Background(), CreateObligationRequest{
			StudentID:   studentID,
			SessionYear: 2025,
			PaymentType: paymentType,
			TotalAmount: decimal.NewFromInt(12000),
			StartMonth:  2,
		})
		require.NoError(t, err)
	}
	env.seedObligation(t) // different student

	obligations, err := env.queries.GetStudentObligations(context.Background(), studentID, 2025)
	require.NoError(t, err)
	assert.Len(t, obligations, 2)

	obligations, err = env.queries.GetStudentObligations(context.Background(), studentID, 2026)
	require.NoError(t, err)
	assert.Empty(t, obligations)
}

func TestQueryService_GetPayments(t *testing.T) {
	env := newTestEnv(t)
	ob := env.seedObligation(t)
	payment := env.recordPayment(t, ob.ID, 2500, "RCP-001")
	reversal := env.reverseFull(t, payment.PaymentID)

	payments, err := env.queries.GetPayments(context.Background(), ob.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)

	assert.Equal(t, payment.PaymentID, payments[0].ID)
	assert.False(t, payments[0].IsReversal)
	require.NotNil(t, payments[0].ReversedByPaymentID)

	assert.Equal(t, reversal.ReversalPaymentID, payments[1].ID)
	assert.True(t, payments[1].IsReversal)
	assert.True(t, payments[1].Amount.Equal(decimal.NewFromInt(-2500)))
	require.NotNil(t, payments[1].ReversalType)
	assert.Equal(t, "FULL", *payments[1].ReversalType)
}

func TestQueryService_GetPaymentsPage(t *testing.T) {
	env := newTestEnv(t)
	ob := env.seedObligation(t)
	env.recordPayment(t, ob.ID, 1000, "RCP-001")
	env.recordPayment(t, ob.ID, 1000, "RCP-002")
	env.recordPayment(t, ob.ID, 500, "RCP-003")

	page, err := env.queries.GetPaymentsPage(context.Background(), ob.ID, shared.Filter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "RCP-001", page.Items[0].ReceiptNumber)

	page, err = env.queries.GetPaymentsPage(context.Background(), ob.ID, shared.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "RCP-003", page.Items[0].ReceiptNumber)
	assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(500)))
}

func TestQueryService_GetMonthlyHistory(t *testing.T) {
	env := newTestEnv(t)
	ob := env.seedObligation(t)
	payment := env.recordPayment(t, ob.ID, 2500, "RCP-001")
	env.reverseFull(t, payment.PaymentID)
	env.recordPayment(t, ob.ID, 800, "RCP-002")

	// February: forward 1000, offset -1000, forward 800.
	history, err := env.queries.GetMonthlyHistory(context.Background(), ob.ID, time.February, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, history.Installment.Month)
	require.Len(t, history.Entries, 3)
	assert.True(t, history.Entries[0].Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, history.Entries[1].Amount.Equal(decimal.NewFromInt(-1000)))
	assert.True(t, history.Entries[1].IsReversal)
	require.NotNil(t, history.Entries[1].ReversesAllocationID)
	assert.Equal(t, history.Entries[0].AllocationID, *history.Entries[1].ReversesAllocationID)
	assert.True(t, history.Entries[2].Amount.Equal(decimal.NewFromInt(800)))

	assert.True(t, history.Installment.PaidAmount.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, "PARTIAL", history.Installment.Status)

	_, err = env.queries.GetMonthlyHistory(context.Background(), ob.ID, time.February, 2030)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestQueryService_AuditTrails(t *testing.T) {
	env := newTestEnv(t)
	ob := env.seedObligation(t)
	p1 := env.recordPayment(t, ob.ID, 2500, "RCP-001")
	p2 := env.recordPayment(t, ob.ID, 1000, "RCP-002")
	env.reverseFull(t, p1.PaymentID)
	env.reverseFull(t, p2.PaymentID)

	trail, err := env.queries.GetAuditTrail(context.Background(), ob.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "REVERSED_FULL", trail[0].Action)

	paymentTrail, err := env.queries.GetPaymentAuditTrail(context.Background(), p1.PaymentID)
	require.NoError(t, err)
	require.Len(t, paymentTrail, 1)
	assert.Equal(t, p1.PaymentID, paymentTrail[0].PaymentID)
	assert.True(t, paymentTrail[0].OldValues.PaidAmount.Equal(decimal.NewFromInt(3500)))
	assert.True(t, paymentTrail[0].NewValues.PaidAmount.Equal(decimal.NewFromInt(1000)))
}
