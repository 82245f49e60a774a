package persistence

import (
	"context"

	"github.com/edudesk/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormUnitOfWork implements ledger.UnitOfWork over a single GORM transaction.
// Repositories handed to the callback are bound to the transaction, so every
// write inside the callback commits or rolls back together.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a database transaction. Returning an error from fn
// rolls the transaction back; returning nil commits it.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ledger.Repositories{
			Obligations: NewGormObligationRepository(tx),
			Payments:    NewGormPaymentRepository(tx),
			Allocations: NewGormAllocationRepository(tx),
			Audit:       NewGormAuditRepository(tx),
		})
	})
}
