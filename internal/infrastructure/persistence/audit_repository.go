package persistence

import (
	"context"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements ledger.AuditRepository using GORM.
// The audit trail is append-only: entries are written once by the reversal
// path and never updated or deleted.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append persists a new audit entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *ledger.AuditEntry) error {
	var model models.AuditEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByPayment returns the audit entries for a payment, oldest first
func (r *GormAuditRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]ledger.AuditEntry, error) {
	var entryModels []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainAuditEntries(entryModels), nil
}

// FindByObligation returns the audit entries for an obligation, oldest first
func (r *GormAuditRepository) FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]ledger.AuditEntry, error) {
	var entryModels []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("obligation_id = ?", obligationID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainAuditEntries(entryModels), nil
}

func toDomainAuditEntries(entryModels []models.AuditEntryModel) []ledger.AuditEntry {
	entries := make([]ledger.AuditEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries
}
