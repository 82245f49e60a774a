package ledger

import (
	"context"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/infrastructure/cache"
	"github.com/edudesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReversalService undoes recorded payments. A reversal never deletes or
// mutates history: it appends a negative payment with offsetting allocation
// rows, recomputes the ledger and writes an audit entry, all in one
// transaction under the obligation's row lock.
type ReversalService struct {
	uow       ledger.UnitOfWork
	publisher shared.EventPublisher
	cache     cache.SummaryCache
	logger    *zap.Logger
}

// NewReversalService creates a new ReversalService
func NewReversalService(
	uow ledger.UnitOfWork,
	publisher shared.EventPublisher,
	summaryCache cache.SummaryCache,
	logger *zap.Logger,
) *ReversalService {
	return &ReversalService{
		uow:       uow,
		publisher: publisher,
		cache:     summaryCache,
		logger:    logger,
	}
}

// ReverseFull reverses every live allocation of a payment and closes the
// payment against further reversal.
func (s *ReversalService) ReverseFull(ctx context.Context, req ReverseFullRequest) (*ReversalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reversal", "reverse_full")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.ErrInvalidInput.WithDetail("validation", err.Error())
	}

	result, err := s.reverse(ctx, req.PaymentID, nil, ledger.ReversalTypeFull, req.PerformedBy, req.Reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, req.PaymentID.String(),
		telemetry.SpanAttrReversalType, string(ledger.ReversalTypeFull),
		telemetry.SpanAttrAmount, result.ReversalAmount.String(),
	)
	return result, nil
}

// ReversePartial reverses a chosen subset of a payment's live allocations.
// A selection covering the whole live set is rejected; that state is only
// reachable through ReverseFull, which also closes the payment.
func (s *ReversalService) ReversePartial(ctx context.Context, req ReversePartialRequest) (*ReversalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reversal", "reverse_partial")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.ErrInvalidInput.WithDetail("validation", err.Error())
	}

	result, err := s.reverse(ctx, req.PaymentID, req.AllocationIDs, ledger.ReversalTypePartial, req.PerformedBy, req.Reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, req.PaymentID.String(),
		telemetry.SpanAttrReversalType, string(ledger.ReversalTypePartial),
		telemetry.SpanAttrAmount, result.ReversalAmount.String(),
	)
	return result, nil
}

// reverse is the shared reversal path. For a full reversal allocationIDs is
// nil and the whole live set is reversed; for a partial reversal it names a
// strict subset of the live set.
func (s *ReversalService) reverse(
	ctx context.Context,
	paymentID uuid.UUID,
	allocationIDs []uuid.UUID,
	reversalType ledger.ReversalType,
	performedBy uuid.UUID,
	reason string,
) (*ReversalResult, error) {
	var (
		result   *ReversalResult
		original *ledger.Payment
		reversal *ledger.Payment
		ob       *ledger.FeeObligation
	)

	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		// Resolve the obligation first and lock it before the payment so
		// every mutating path takes locks in the same order.
		peek, err := repos.Payments.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		ob, err = repos.Obligations.FindByIDForUpdate(ctx, peek.ObligationID)
		if err != nil {
			return err
		}
		original, err = repos.Payments.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		// All preconditions are checked under the lock.
		if err := original.EnsureReversible(); err != nil {
			return err
		}

		live, err := repos.Allocations.FindLiveByPayment(ctx, original.ID)
		if err != nil {
			return err
		}
		if len(live) == 0 {
			return ledger.ErrInvalidAllocationSet.WithDetail("payment_id", original.ID)
		}

		selected, err := selectAllocations(live, allocationIDs, reversalType)
		if err != nil {
			return err
		}

		amount := decimal.Zero
		for i := range selected {
			amount = amount.Add(selected[i].AllocatedAmount)
		}

		reversal, err = ledger.NewReversalPayment(original, amount, reversalType, performedBy, reason)
		if err != nil {
			return err
		}
		offsets := make([]ledger.Allocation, 0, len(selected))
		for i := range selected {
			offset, err := ledger.NewOffsettingAllocation(reversal.ID, &selected[i])
			if err != nil {
				return err
			}
			offsets = append(offsets, *offset)
		}

		oldValues := ledger.SnapshotOf(ob)

		if err := repos.Payments.Create(ctx, reversal); err != nil {
			return err
		}
		if err := repos.Allocations.CreateBatch(ctx, offsets); err != nil {
			return err
		}
		if reversalType == ledger.ReversalTypeFull {
			if err := original.MarkFullyReversed(reversal.ID); err != nil {
				return err
			}
			if err := repos.Payments.SetReversedBy(ctx, original.ID, reversal.ID); err != nil {
				return err
			}
		}

		history, err := repos.Allocations.FindByObligation(ctx, ob.ID)
		if err != nil {
			return err
		}
		if err := ledger.Recompute(ob, history); err != nil {
			return err
		}
		if err := repos.Obligations.Save(ctx, ob); err != nil {
			return err
		}

		action := ledger.AuditActionReversedFull
		if reversalType == ledger.ReversalTypePartial {
			action = ledger.AuditActionReversedPartial
		}
		entry, err := ledger.NewAuditEntry(original.ID, ob.ID, action, performedBy, reason, oldValues, ledger.SnapshotOf(ob))
		if err != nil {
			return err
		}
		if err := repos.Audit.Append(ctx, entry); err != nil {
			return err
		}

		result = &ReversalResult{
			ReversalPaymentID: reversal.ID,
			ReversalAmount:    amount,
			ReversalType:      reversalType,
			AffectedMonths:    affectedMonths(ob, offsets),
			Obligation:        toObligationResponse(ob),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, ob.ID)
	s.publishEvents(ctx, ledger.NewPaymentReversedEvent(original, reversal, reversalType, performedBy, reason))

	s.logger.Info("Payment reversed",
		zap.String("payment_id", original.ID.String()),
		zap.String("reversal_payment_id", reversal.ID.String()),
		zap.String("reversal_type", string(reversalType)),
		zap.String("reversal_amount", result.ReversalAmount.String()),
		zap.Int("affected_months", len(result.AffectedMonths)),
	)

	return result, nil
}

// selectAllocations picks which live allocations to reverse. IDs outside the
// live set are rejected, as is a partial selection covering the entire set.
func selectAllocations(live []ledger.Allocation, allocationIDs []uuid.UUID, reversalType ledger.ReversalType) ([]ledger.Allocation, error) {
	if reversalType == ledger.ReversalTypeFull {
		return live, nil
	}

	byID := make(map[uuid.UUID]*ledger.Allocation, len(live))
	for i := range live {
		byID[live[i].ID] = &live[i]
	}

	selected := make([]ledger.Allocation, 0, len(allocationIDs))
	seen := make(map[uuid.UUID]struct{}, len(allocationIDs))
	for _, id := range allocationIDs {
		if _, dup := seen[id]; dup {
			return nil, ledger.ErrInvalidAllocationSet.WithDetail("allocation_id", id)
		}
		seen[id] = struct{}{}

		a, ok := byID[id]
		if !ok {
			return nil, ledger.ErrInvalidAllocationSet.WithDetail("allocation_id", id)
		}
		selected = append(selected, *a)
	}

	if len(selected) == len(live) {
		return nil, ledger.ErrUseFullReversalInstead.WithDetail("live_allocations", len(live))
	}
	return selected, nil
}

// affectedMonths reports the months touched by the offsetting allocations,
// with positive amounts.
func affectedMonths(ob *ledger.FeeObligation, offsets []ledger.Allocation) []AffectedMonth {
	months := make([]AffectedMonth, 0, len(offsets))
	for i := range offsets {
		inst := ob.InstallmentByID(offsets[i].InstallmentID)
		if inst == nil {
			continue
		}
		months = append(months, AffectedMonth{
			Month:  int(inst.AcademicMonth),
			Year:   inst.AcademicYear,
			Amount: offsets[i].AllocatedAmount.Neg(),
		})
	}
	return months
}

func (s *ReversalService) invalidateSummary(ctx context.Context, obligationID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, obligationID); err != nil {
		s.logger.Warn("Failed to invalidate summary cache",
			zap.String("obligation_id", obligationID.String()),
			zap.Error(err),
		)
	}
}

func (s *ReversalService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}
