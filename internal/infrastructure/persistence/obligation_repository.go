package persistence

import (
	"context"
	"errors"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormObligationRepository implements ledger.ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByID loads an obligation with its installments
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	var model models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the obligation under a row-level lock. The lock is
// held for the rest of the current transaction and serializes concurrent
// payment and reversal paths per obligation.
func (r *GormObligationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	var model models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	// Installments are loaded after the lock is taken so the snapshot is
	// consistent with the locked aggregate row.
	var installments []models.MonthlyInstallmentModel
	if err := r.db.WithContext(ctx).
		Where("obligation_id = ?", id).
		Order("due_date ASC").
		Find(&installments).Error; err != nil {
		return nil, err
	}
	model.Installments = installments

	return model.ToDomain(), nil
}

// FindByStudent lists a student's obligations for a session year
func (r *GormObligationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID, sessionYear int) ([]ledger.FeeObligation, error) {
	var obligationModels []models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date ASC")
		}).
		Where("student_id = ? AND session_year = ?", studentID, sessionYear).
		Order("payment_type ASC").
		Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	obligations := make([]ledger.FeeObligation, len(obligationModels))
	for i, model := range obligationModels {
		obligations[i] = *model.ToDomain()
	}
	return obligations, nil
}

// Create persists a new obligation and its installments
func (r *GormObligationRepository) Create(ctx context.Context, ob *ledger.FeeObligation) error {
	var model models.FeeObligationModel
	model.FromDomain(ob)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Save persists the obligation's aggregate fields and installment rows
func (r *GormObligationRepository) Save(ctx context.Context, ob *ledger.FeeObligation) error {
	var model models.FeeObligationModel
	model.FromDomain(ob)

	if err := r.db.WithContext(ctx).
		Omit("Installments").
		Save(&model).Error; err != nil {
		return err
	}
	for i := range model.Installments {
		if err := r.db.WithContext(ctx).Save(&model.Installments[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
