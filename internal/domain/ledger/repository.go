package ledger

import (
	"context"

	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ObligationRepository persists fee obligations and their installments
type ObligationRepository interface {
	// FindByID loads an obligation with its installments
	FindByID(ctx context.Context, id uuid.UUID) (*FeeObligation, error)
	// FindByIDForUpdate loads the obligation with a row-level lock held for
	// the rest of the current transaction. Reversal and payment paths use
	// this to serialize concurrent mutations per obligation.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FeeObligation, error)
	// FindByStudent lists a student's obligations for a session year
	FindByStudent(ctx context.Context, studentID uuid.UUID, sessionYear int) ([]FeeObligation, error)
	// Create persists a new obligation and its installments
	Create(ctx context.Context, ob *FeeObligation) error
	// Save persists the obligation's aggregate fields and installment rows
	Save(ctx context.Context, ob *FeeObligation) error
}

// PaymentRepository persists payment events
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindByIDForUpdate locks the payment row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]Payment, error)
	// FindPageByObligation returns one page of the obligation's payment
	// events together with the total count
	FindPageByObligation(ctx context.Context, obligationID uuid.UUID, filter shared.Filter) (shared.Paginated[Payment], error)
	Create(ctx context.Context, p *Payment) error
	// SetReversedBy records the full-reversal pointer on the original payment
	SetReversedBy(ctx context.Context, paymentID, reversalPaymentID uuid.UUID) error
}

// AllocationRepository persists allocation rows. Allocations are append-only;
// there is no update or delete.
type AllocationRepository interface {
	// FindByPayment returns every allocation owned by the payment
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]Allocation, error)
	// FindLiveByPayment returns the payment's allocations that have not been
	// offset by a reversal allocation
	FindLiveByPayment(ctx context.Context, paymentID uuid.UUID) ([]Allocation, error)
	// FindByObligation returns all allocations, forward and reversal, that
	// reference any of the obligation's installments
	FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]Allocation, error)
	// FindByInstallment returns all allocations referencing one installment
	FindByInstallment(ctx context.Context, installmentID uuid.UUID) ([]Allocation, error)
	// CreateBatch appends allocation rows
	CreateBatch(ctx context.Context, allocations []Allocation) error
}

// AuditRepository persists the append-only reversal audit trail
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]AuditEntry, error)
	FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]AuditEntry, error)
}

// Repositories bundles the ledger repositories bound to one unit of work
type Repositories struct {
	Obligations ObligationRepository
	Payments    PaymentRepository
	Allocations AllocationRepository
	Audit       AuditRepository
}

// UnitOfWork executes fn atomically: every repository write inside fn commits
// together or rolls back together. Implementations map this to one database
// transaction.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
