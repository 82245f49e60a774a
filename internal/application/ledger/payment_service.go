package ledger

import (
	"context"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/domain/shared/valueobject"
	"github.com/edudesk/backend/internal/infrastructure/cache"
	"github.com/edudesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records forward payments: it plans the allocation across
// the obligation's installments, persists the payment with its allocation
// rows and recomputes the ledger, all inside one transaction.
type PaymentService struct {
	uow       ledger.UnitOfWork
	publisher shared.EventPublisher
	cache     cache.SummaryCache
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	uow ledger.UnitOfWork,
	publisher shared.EventPublisher,
	summaryCache cache.SummaryCache,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		uow:       uow,
		publisher: publisher,
		cache:     summaryCache,
		logger:    logger,
	}
}

// RecordPayment records a payment against an obligation. When the request
// names target installments the amount is allocated in that order; otherwise
// outstanding installments are filled earliest due date first. Any amount
// beyond the targets' combined balance is reported as unallocated and not
// persisted.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.ErrInvalidInput.WithDetail("validation", err.Error())
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrObligationID, req.ObligationID.String(),
		telemetry.SpanAttrReceiptNumber, req.ReceiptNumber,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	amount := valueobject.NewMoneyUGX(req.Amount)

	var (
		payment *ledger.Payment
		plan    *ledger.AllocationPlan
		ob      *ledger.FeeObligation
	)
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		ob, err = repos.Obligations.FindByIDForUpdate(ctx, req.ObligationID)
		if err != nil {
			return err
		}

		targets, err := resolveTargets(ob, req.InstallmentIDs)
		if err != nil {
			return err
		}

		payment, err = ledger.NewPayment(ob.ID, amount, req.Method, req.ReceiptNumber, req.ReceivedBy, req.Remark)
		if err != nil {
			return err
		}

		plan, err = ledger.PlanAllocation(req.Amount, targets)
		if err != nil {
			return err
		}
		allocations, err := plan.Allocations(payment.ID)
		if err != nil {
			return err
		}

		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if err := repos.Allocations.CreateBatch(ctx, allocations); err != nil {
			return err
		}

		history, err := repos.Allocations.FindByObligation(ctx, ob.ID)
		if err != nil {
			return err
		}
		if err := ledger.Recompute(ob, history); err != nil {
			return err
		}
		return repos.Obligations.Save(ctx, ob)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateSummary(ctx, ob.ID)
	s.publishEvents(ctx, payment.GetDomainEvents())
	payment.ClearDomainEvents()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("obligation_id", ob.ID.String()),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("allocated", plan.Allocated.String()),
		zap.String("unallocated", plan.Unallocated.String()),
	)

	return &RecordPaymentResult{
		PaymentID:     payment.ID,
		ReceiptNumber: payment.ReceiptNumber,
		Allocated:     plan.Allocated,
		Unallocated:   plan.Unallocated,
		Lines:         plan.Lines,
		Obligation:    toObligationResponse(ob),
	}, nil
}

// resolveTargets maps requested installment IDs onto the obligation's
// installments, or falls back to outstanding installments in due-date order.
func resolveTargets(ob *ledger.FeeObligation, installmentIDs []uuid.UUID) ([]*ledger.MonthlyInstallment, error) {
	if len(installmentIDs) == 0 {
		targets := ob.OutstandingInstallments()
		if len(targets) == 0 {
			return nil, shared.NewDomainError("NOTHING_OUTSTANDING", "Obligation has no outstanding installments")
		}
		return targets, nil
	}

	targets := make([]*ledger.MonthlyInstallment, 0, len(installmentIDs))
	for _, id := range installmentIDs {
		inst := ob.InstallmentByID(id)
		if inst == nil {
			return nil, shared.ErrNotFound.WithDetail("installment_id", id)
		}
		targets = append(targets, inst)
	}
	return targets, nil
}

func (s *PaymentService) invalidateSummary(ctx context.Context, obligationID uuid.UUID) {
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

func (s *PaymentService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}
