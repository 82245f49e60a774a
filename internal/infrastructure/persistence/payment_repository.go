package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/edudesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the payment row for the current transaction
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByObligation returns every payment event against an obligation,
// reversals included, oldest first.
func (r *GormPaymentRepository) FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]ledger.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("obligation_id = ?", obligationID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]ledger.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindPageByObligation returns one page of the obligation's payment events
// together with the total count.
func (r *GormPaymentRepository) FindPageByObligation(ctx context.Context, obligationID uuid.UUID, filter shared.Filter) (shared.Paginated[ledger.Payment], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = shared.DefaultFilter().PageSize
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("obligation_id = ?", obligationID).
		Count(&total).Error; err != nil {
		return shared.Paginated[ledger.Payment]{}, err
	}

	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("obligation_id = ?", obligationID).
		Order(paymentOrderClause(filter)).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&paymentModels).Error; err != nil {
		return shared.Paginated[ledger.Payment]{}, err
	}

	payments := make([]ledger.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return shared.NewPaginated(payments, total, filter.Page, filter.PageSize), nil
}

// paymentOrderClause maps the filter onto a whitelisted order clause
func paymentOrderClause(filter shared.Filter) string {
	column := "created_at"
	if filter.OrderBy == "amount" {
		column = "amount"
	}
	dir := "ASC"
	if strings.EqualFold(filter.OrderDir, "desc") {
		dir = "DESC"
	}
	return column + " " + dir
}

// Create persists a new payment event
func (r *GormPaymentRepository) Create(ctx context.Context, p *ledger.Payment) error {
	var model models.PaymentModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// SetReversedBy records the full-reversal pointer on the original payment.
// This is the only mutation a payment row ever receives.
func (r *GormPaymentRepository) SetReversedBy(ctx context.Context, paymentID, reversalPaymentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND reversed_by_payment_id IS NULL", paymentID).
		Update("reversed_by_payment_id", reversalPaymentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrAlreadyReversed.WithDetail("payment_id", paymentID)
	}
	return nil
}
