package persistence

import (
	"context"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAllocationRepository implements ledger.AllocationRepository using GORM.
// Allocation rows are append-only; this repository exposes no update or delete.
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByPayment returns every allocation owned by the payment
func (r *GormAllocationRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]ledger.Allocation, error) {
	var allocationModels []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindLiveByPayment returns the payment's forward allocations that have not
// been offset by a reversal allocation.
func (r *GormAllocationRepository) FindLiveByPayment(ctx context.Context, paymentID uuid.UUID) ([]ledger.Allocation, error) {
	var allocationModels []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ? AND is_reversal = false", paymentID).
		Where("id NOT IN (?)", r.db.
			Model(&models.AllocationModel{}).
			Select("reverses_allocation_id").
			Where("reverses_allocation_id IS NOT NULL")).
		Order("created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindByObligation returns all allocations, forward and reversal, that
// reference any of the obligation's installments.
func (r *GormAllocationRepository) FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]ledger.Allocation, error) {
	var allocationModels []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("installment_id IN (?)", r.db.
			Model(&models.MonthlyInstallmentModel{}).
			Select("id").
			Where("obligation_id = ?", obligationID)).
		Order("created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindByInstallment returns all allocations referencing one installment
func (r *GormAllocationRepository) FindByInstallment(ctx context.Context, installmentID uuid.UUID) ([]ledger.Allocation, error) {
	var allocationModels []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("installment_id = ?", installmentID).
		Order("created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// CreateBatch appends allocation rows
func (r *GormAllocationRepository) CreateBatch(ctx context.Context, allocations []ledger.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	allocationModels := make([]models.AllocationModel, len(allocations))
	for i := range allocations {
		allocationModels[i].FromDomain(&allocations[i])
	}
	return r.db.WithContext(ctx).Create(&allocationModels).Error
}

func toDomainAllocations(allocationModels []models.AllocationModel) []ledger.Allocation {
	allocations := make([]ledger.Allocation, len(allocationModels))
	for i, model := range allocationModels {
		allocations[i] = *model.ToDomain()
	}
	return allocations
}
