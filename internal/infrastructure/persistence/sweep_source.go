package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSweepSource feeds the due date sweeper with obligations that have
// unsettled installments past due.
type GormSweepSource struct {
	db *gorm.DB
}

// NewGormSweepSource creates a new GormSweepSource
func NewGormSweepSource(db *gorm.DB) *GormSweepSource {
	return &GormSweepSource{db: db}
}

// ListDueObligations returns the distinct obligation IDs with at least one
// installment due before asOf that is neither paid nor already flagged.
func (s *GormSweepSource) ListDueObligations(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyInstallmentModel{}).
		Where("due_date < ? AND status NOT IN ?", asOf, []string{
			ledger.FeeStatusPaid.String(),
			ledger.FeeStatusOverdue.String(),
		}).
		Distinct().
		Pluck("obligation_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due obligations: %w", err)
	}
	return ids, nil
}
