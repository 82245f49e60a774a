package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/edudesk/backend/internal/infrastructure/cache"
	"github.com/edudesk/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store     *memStore
	uow       *fakeUnitOfWork
	publisher *recordingPublisher
	cache     *cache.InMemorySummaryCache
	ledgerCfg config.LedgerConfig

	obligations *ObligationService
	payments    *PaymentService
	reversals   *ReversalService
	queries     *QueryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := &memStore{}
	uow := &fakeUnitOfWork{store: store}
	publisher := &recordingPublisher{}
	summaryCache := cache.NewInMemorySummaryCache()
	logger := zap.NewNop()
	cfg := config.LedgerConfig{DueDay: 5, ScheduleMonths: 12, SummaryCacheTTLSeconds: 300}

	return &testEnv{
		store:       store,
		uow:         uow,
		publisher:   publisher,
		cache:       summaryCache,
		ledgerCfg:   cfg,
		obligations: NewObligationService(uow, publisher, summaryCache, logger, cfg),
		payments:    NewPaymentService(uow, publisher, summaryCache, logger),
		reversals:   NewReversalService(uow, publisher, summaryCache, logger),
		queries:     NewQueryService(store.repositories(), summaryCache, time.Minute, logger),
	}
}

// seedObligation creates a 12,000 UGX obligation over 12 months starting
// February 2025, so every installment is exactly 1,000.
func (env *testEnv) seedObligation(t *testing.T) *ObligationResponse {
	t.Helper()

	resp, err := env.obligations.CreateObligation(context.Background(), CreateObligationRequest{
		StudentID:   uuid.New(),
		SessionYear: 2025,
		PaymentType: "TUITION",
		TotalAmount: decimal.NewFromInt(12000),
		StartMonth:  2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Installments, 12)
	return resp
}

func (env *testEnv) recordPayment(t *testing.T, obligationID uuid.UUID, amount int64, receipt string) *RecordPaymentResult {
	t.Helper()

	result, err := env.payments.RecordPayment(context.Background(), RecordPaymentRequest{
		ObligationID:  obligationID,
		Amount:        decimal.NewFromInt(amount),
		Method:        "CASH",
		ReceiptNumber: receipt,
		ReceivedBy:    uuid.New(),
	})
	require.NoError(t, err)
	return result
}
