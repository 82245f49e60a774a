package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/infrastructure/cache"
	"github.com/edudesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryService serves the read side of the ledger. Obligation summaries go
// through a read-through cache; a cache failure degrades to database reads.
type QueryService struct {
	repos  ledger.Repositories
	cache  cache.SummaryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(repos ledger.Repositories, summaryCache cache.SummaryCache, ttl time.Duration, logger *zap.Logger) *QueryService {
	return &QueryService{
		repos:  repos,
		cache:  summaryCache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetObligationSummary returns the obligation's aggregate position and
// per-month breakdown.
func (s *QueryService) GetObligationSummary(ctx context.Context, obligationID uuid.UUID) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger_query", "obligation_summary")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrObligationID, obligationID.String())

	if cached := s.readCache(ctx, obligationID); cached != nil {
		telemetry.AddEvent(span, "summary_cache_hit")
		return cached, nil
	}

	ob, err := s.repos.Obligations.FindByID(ctx, obligationID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := toObligationResponse(ob)
	s.writeCache(ctx, obligationID, resp)
	return resp, nil
}

// GetStudentObligations lists a student's obligations for a session year
func (s *QueryService) GetStudentObligations(ctx context.Context, studentID uuid.UUID, sessionYear int) ([]ObligationResponse, error) {
	obligations, err := s.repos.Obligations.FindByStudent(ctx, studentID, sessionYear)
	if err != nil {
		return nil, err
	}
	responses := make([]ObligationResponse, len(obligations))
	for i := range obligations {
		responses[i] = *toObligationResponse(&obligations[i])
	}
	return responses, nil
}

// GetPayments lists every payment event against an obligation, reversals
// included, oldest first.
func (s *QueryService) GetPayments(ctx context.Context, obligationID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.repos.Payments.FindByObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = toPaymentResponse(&payments[i])
	}
	return responses, nil
}

// GetPaymentsPage returns one page of an obligation's payment events with
// the total count, for listings too long to return whole.
func (s *QueryService) GetPaymentsPage(ctx context.Context, obligationID uuid.UUID, filter shared.Filter) (*shared.Paginated[PaymentResponse], error) {
	page, err := s.repos.Payments.FindPageByObligation(ctx, obligationID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]PaymentResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = toPaymentResponse(&page.Items[i])
	}
	out := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &out, nil
}

/// GetMonthlyHistory returns one installment's allocation history: every
// forward and reversal row that ever touched the month.
func (s *QueryService) GetMonthlyHistory(ctx context.Context, obligationID uuid.UUID, month time.Month, year int) (*MonthlyHistory, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger_query", "monthly_history")
	defer span.End()

	ob, err := s.repos.Obligations.FindByID(ctx, obligationID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	inst := ob.Installment(month, year)
	if inst == nil {
		return nil, shared.ErrNotFound.
			WithDetail("obligation_id", obligationID).
			WithDetail("month", int(month)).
			WithDetail("year", year)
	}

	allocations, err := s.repos.Allocations.FindByInstallment(ctx, inst.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	history := &MonthlyHistory{
		Installment: toInstallmentResponse(inst),
		Entries:     make([]MonthlyHistoryEntry, len(allocations)),
	}
	for i := range allocations {
		a := &allocations[i]
		history.Entries[i] = MonthlyHistoryEntry{
			AllocationID:         a.ID,
			PaymentID:            a.PaymentID,
			Amount:               a.AllocatedAmount,
			IsReversal:           a.IsReversal,
			ReversesAllocationID: a.ReversesAllocationID,
			CreatedAt:            a.CreatedAt,
		}
	}
	return history, nil
}

// GetAuditTrail returns the reversal audit entries for an obligation
func (s *QueryService) GetAuditTrail(ctx context.Context, obligationID uuid.UUID) ([]AuditEntryResponse, error) {
	entries, err := s.repos.Audit.FindByObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	responses := make([]AuditEntryResponse, len(entries))
	for i := range entries {
		responses[i] = toAuditEntryResponse(&entries[i])
	}
	return responses, nil
}

// GetPaymentAuditTrail returns the reversal audit entries for one payment
func (s *QueryService) GetPaymentAuditTrail(ctx context.Context, paymentID uuid.UUID) ([]AuditEntryResponse, error) {
	entries, err := s.repos.Audit.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	responses := make([]AuditEntryResponse, len(entries))
	for i := range entries {
		responses[i] = toAuditEntryResponse(&entries[i])
	}
	return responses, nil
}

func (s *QueryService) readCache(ctx context.Context, obligationID uuid.UUID) *ObligationResponse {
	if s.cache == nil {
		return nil
	}
	payload, ok, err := s.cache.Get(ctx, obligationID)
	if err != nil {
		s.logger.Warn("Summary cache read failed, falling back to database",
			zap.String("obligation_id", obligationID.String()),
			zap.Error(err),
		)
		return nil
	}
	if !ok {
		return nil
	}
	var resp ObligationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.logger.Warn("Summary cache payload corrupt, falling back to database",
			zap.String("obligation_id", obligationID.String()),
			zap.Error(err),
		)
		return nil
	}
	return &resp
}

func (s *QueryService) writeCache(ctx context.Context, obligationID uuid.UUID, resp *ObligationResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to marshal summary for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, obligationID, payload, s.ttl); err != nil {
		s.logger.Warn("Summary cache write failed",
			zap.String("obligation_id", obligationID.String()),
			zap.Error(err),
		)
	}
}
