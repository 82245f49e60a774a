package ledger

import (
	"context"
	"time"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/domain/shared/valueobject"
	"github.com/edudesk/backend/internal/infrastructure/cache"
	"github.com/edudesk/backend/internal/infrastructure/config"
	"github.com/edudesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObligationService creates fee obligations with their monthly schedules and
// applies the schedule-level mutations (waivers, the due-date sweep).
type ObligationService struct {
	uow       ledger.UnitOfWork
	publisher shared.EventPublisher
	cache     cache.SummaryCache
	logger    *zap.Logger
	cfg       config.LedgerConfig
}

// NewObligationService creates a new ObligationService
func NewObligationService(
	uow ledger.UnitOfWork,
	publisher shared.EventPublisher,
	summaryCache cache.SummaryCache,
	logger *zap.Logger,
	cfg config.LedgerConfig,
) *ObligationService {
	return &ObligationService{
		uow:       uow,
		publisher: publisher,
		cache:     summaryCache,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateObligation creates an obligation and derives its monthly installments
func (s *ObligationService) CreateObligation(ctx context.Context, req CreateObligationRequest) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "create")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.ErrInvalidInput.WithDetail("validation", err.Error())
	}

	months := req.Months
	if months == 0 {
		months = s.cfg.ScheduleMonths
	}
	dueDay := req.DueDay
	if dueDay == 0 {
		dueDay = s.cfg.DueDay
	}

	total := valueobject.NewMoneyUGX(req.TotalAmount)

	ob, err := ledger.NewFeeObligation(
		req.StudentID,
		req.SessionYear,
		req.PaymentType,
		total,
		time.Month(req.StartMonth),
		months,
		dueDay,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrObligationID, ob.ID.String(),
		telemetry.SpanAttrStudentID, req.StudentID.String(),
		telemetry.SpanAttrAmount, total.Amount().String(),
	)

	err = s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		return repos.Obligations.Create(ctx, ob)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, ob.GetDomainEvents())
	ob.ClearDomainEvents()

	s.logger.Info("Fee obligation created",
		zap.String("obligation_id", ob.ID.String()),
		zap.String("student_id", ob.StudentID.String()),
		zap.String("payment_type", ob.PaymentType),
		zap.String("total_amount", ob.TotalAmount.String()),
		zap.Int("installments", len(ob.Installments)),
	)

	return toObligationResponse(ob), nil
}

// GetObligation loads an obligation with its installments
func (s *ObligationService) GetObligation(ctx context.Context, id uuid.UUID) (*ObligationResponse, error) {
	var resp *ObligationResponse
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		ob, err := repos.Obligations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = toObligationResponse(ob)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ApplyWaiver reduces the obligation's total by a percentage and rebuilds the
// monthly amounts, then reconciles balances against the allocation history.
func (s *ObligationService) ApplyWaiver(ctx context.Context, req ApplyWaiverRequest) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "apply_waiver")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.ErrInvalidInput.WithDetail("validation", err.Error())
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrObligationID, req.ObligationID.String())

	var ob *ledger.FeeObligation
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		ob, err = repos.Obligations.FindByIDForUpdate(ctx, req.ObligationID)
		if err != nil {
			return err
		}

		if err := ob.ApplyWaiver(req.Percentage, req.Reason); err != nil {
			return err
		}

		allocations, err := repos.Allocations.FindByObligation(ctx, ob.ID)
		if err != nil {
			return err
		}
		if err := ledger.Recompute(ob, allocations); err != nil {
			return err
		}

		return repos.Obligations.Save(ctx, ob)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateSummary(ctx, ob.ID)
	s.publishEvents(ctx, ob.GetDomainEvents())
	ob.ClearDomainEvents()

	s.logger.Info("Waiver applied",
		zap.String("obligation_id", ob.ID.String()),
		zap.String("percentage", req.Percentage.String()),
		zap.String("new_total", ob.TotalAmount.String()),
	)

	return toObligationResponse(ob), nil
}

// MarkOverdue flags the obligation's unsettled installments whose due date
// has passed. Called by the scheduled due-date sweep.
func (s *ObligationService) MarkOverdue(ctx context.Context, obligationID uuid.UUID, asOf time.Time) (bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "mark_overdue")
	defer span.End()

	var changed bool
	err := s.uow.Execute(ctx, func(repos ledger.Repositories) error {
		ob, err := repos.Obligations.FindByIDForUpdate(ctx, obligationID)
		if err != nil {
			return err
		}

		changed = ob.MarkOverdue(asOf)
		if !changed {
			return nil
		}
		return repos.Obligations.Save(ctx, ob)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}

	if changed {
		s.invalidateSummary(ctx, obligationID)
		s.logger.Info("Obligation marked overdue",
			zap.String("obligation_id", obligationID.String()),
			zap.Time("as_of", asOf),
		)
	}
	return changed, nil
}

func (s *ObligationService) invalidateSummary(ctx context.Context, obligationID uuid.UUID) {
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

func (s *ObligationService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}
