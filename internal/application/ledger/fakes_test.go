package ledger

import (
	"context"
	"sync"

	"github.com/edudesk/backend/internal/domain/ledger"
	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the database, shared by the fake
// repositories. The fake unit of work snapshots it before each callback and
// restores it on error, mirroring transaction rollback.
type memStore struct {
	mu          sync.Mutex
	obligations []ledger.FeeObligation
	payments    []ledger.Payment
	allocations []ledger.Allocation
	audits      []ledger.AuditEntry

	failAuditAppend     bool
	failAllocationBatch bool
}

func (s *memStore) clone() *memStore {
	c := &memStore{
		obligations:         make([]ledger.FeeObligation, len(s.obligations)),
		payments:            make([]ledger.Payment, len(s.payments)),
		allocations:         append([]ledger.Allocation(nil), s.allocations...),
		audits:              append([]ledger.AuditEntry(nil), s.audits...),
		failAuditAppend:     s.failAuditAppend,
		failAllocationBatch: s.failAllocationBatch,
	}
	for i := range s.obligations {
		c.obligations[i] = cloneObligation(&s.obligations[i])
	}
	copy(c.payments, s.payments)
	return c
}

func (s *memStore) restore(snapshot *memStore) {
	s.obligations = snapshot.obligations
	s.payments = snapshot.payments
	s.allocations = snapshot.allocations
	s.audits = snapshot.audits
}

func cloneObligation(ob *ledger.FeeObligation) ledger.FeeObligation {
	c := *ob
	c.Installments = append([]ledger.MonthlyInstallment(nil), ob.Installments...)
	return c
}

func (s *memStore) putObligation(ob *ledger.FeeObligation) {
	for i := range s.obligations {
		if s.obligations[i].ID == ob.ID {
			s.obligations[i] = cloneObligation(ob)
			return
		}
	}
	s.obligations = append(s.obligations, cloneObligation(ob))
}

func (s *memStore) obligation(id uuid.UUID) *ledger.FeeObligation {
	for i := range s.obligations {
		if s.obligations[i].ID == id {
			ob := cloneObligation(&s.obligations[i])
			return &ob
		}
	}
	return nil
}

func (s *memStore) payment(id uuid.UUID) *ledger.Payment {
	for i := range s.payments {
		if s.payments[i].ID == id {
			p := s.payments[i]
			return &p
		}
	}
	return nil
}

type fakeObligationRepo struct{ store *memStore }

func (r *fakeObligationRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	if ob := r.store.obligation(id); ob != nil {
		return ob, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeObligationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeObligationRepo) FindByStudent(_ context.Context, studentID uuid.UUID, sessionYear int) ([]ledger.FeeObligation, error) {
	out := make([]ledger.FeeObligation, 0)
	for i := range r.store.obligations {
		ob := &r.store.obligations[i]
		if ob.StudentID == studentID && ob.SessionYear == sessionYear {
			out = append(out, cloneObligation(ob))
		}
	}
	return out, nil
}

func (r *fakeObligationRepo) Create(_ context.Context, ob *ledger.FeeObligation) error {
	r.store.putObligation(ob)
	return nil
}

func (r *fakeObligationRepo) Save(_ context.Context, ob *ledger.FeeObligation) error {
	r.store.putObligation(ob)
	return nil
}

type fakePaymentRepo struct{ store *memStore }

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Payment, error) {
	if p := r.store.payment(id); p != nil {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakePaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePaymentRepo) FindByObligation(_ context.Context, obligationID uuid.UUID) ([]ledger.Payment, error) {
	out := make([]ledger.Payment, 0)
	for i := range r.store.payments {
		if r.store.payments[i].ObligationID == obligationID {
			out = append(out, r.store.payments[i])
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindPageByObligation(ctx context.Context, obligationID uuid.UUID, filter shared.Filter) (shared.Paginated[ledger.Payment], error) {
	all, err := r.FindByObligation(ctx, obligationID)
	if err != nil {
		return shared.Paginated[ledger.Payment]{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = shared.DefaultFilter().PageSize
	}
	start := (filter.Page - 1) * filter.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	return shared.NewPaginated(all[start:end], int64(len(all)), filter.Page, filter.PageSize), nil
}

func (r *fakePaymentRepo) Create(_ context.Context, p *ledger.Payment) error {
	r.store.payments = append(r.store.payments, *p)
	return nil
}

func (r *fakePaymentRepo) SetReversedBy(_ context.Context, paymentID, reversalPaymentID uuid.UUID) error {
	for i := range r.store.payments {
		if r.store.payments[i].ID == paymentID {
			if r.store.payments[i].ReversedByPaymentID != nil {
				return ledger.ErrAlreadyReversed.WithDetail("payment_id", paymentID)
			}
			id := reversalPaymentID
			r.store.payments[i].ReversedByPaymentID = &id
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeAllocationRepo struct{ store *memStore }

func (r *fakeAllocationRepo) FindByPayment(_ context.Context, paymentID uuid.UUID) ([]ledger.Allocation, error) {
	out := make([]ledger.Allocation, 0)
	for _, a := range r.store.allocations {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAllocationRepo) FindLiveByPayment(_ context.Context, paymentID uuid.UUID) ([]ledger.Allocation, error) {
	reversed := make(map[uuid.UUID]struct{})
	for _, a := range r.store.allocations {
		if a.ReversesAllocationID != nil {
			reversed[*a.ReversesAllocationID] = struct{}{}
		}
	}
	out := make([]ledger.Allocation, 0)
	for _, a := range r.store.allocations {
		if a.PaymentID != paymentID || a.IsReversal {
			continue
		}
		if _, ok := reversed[a.ID]; ok {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAllocationRepo) FindByObligation(_ context.Context, obligationID uuid.UUID) ([]ledger.Allocation, error) {
	ob := r.store.obligation(obligationID)
	if ob == nil {
		return nil, shared.ErrNotFound
	}
	installments := make(map[uuid.UUID]struct{}, len(ob.Installments))
	for i := range ob.Installments {
		installments[ob.Installments[i].ID] = struct{}{}
	}
	out := make([]ledger.Allocation, 0)
	for _, a := range r.store.allocations {
		if _, ok := installments[a.InstallmentID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAllocationRepo) FindByInstallment(_ context.Context, installmentID uuid.UUID) ([]ledger.Allocation, error) {
	out := make([]ledger.Allocation, 0)
	for _, a := range r.store.allocations {
		if a.InstallmentID == installmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAllocationRepo) CreateBatch(_ context.Context, allocations []ledger.Allocation) error {
	if r.store.failAllocationBatch {
		return shared.NewDomainError("STORE_FAILURE", "Injected allocation write failure")
	}
	r.store.allocations = append(r.store.allocations, allocations...)
	return nil
}

type fakeAuditRepo struct{ store *memStore }

func (r *fakeAuditRepo) Append(_ context.Context, entry *ledger.AuditEntry) error {
	if r.store.failAuditAppend {
		return shared.NewDomainError("STORE_FAILURE", "Injected audit write failure")
	}
	r.store.audits = append(r.store.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) FindByPayment(_ context.Context, paymentID uuid.UUID) ([]ledger.AuditEntry, error) {
	out := make([]ledger.AuditEntry, 0)
	for _, e := range r.store.audits {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) FindByObligation(_ context.Context, obligationID uuid.UUID) ([]ledger.AuditEntry, error) {
	out := make([]ledger.AuditEntry, 0)
	for _, e := range r.store.audits {
		if e.ObligationID == obligationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) repositories() ledger.Repositories {
	return ledger.Repositories{
		Obligations: &fakeObligationRepo{store: s},
		Payments:    &fakePaymentRepo{store: s},
		Allocations: &fakeAllocationRepo{store: s},
		Audit:       &fakeAuditRepo{store: s},
	}
}

// fakeUnitOfWork runs the callback over the shared store and rolls the store
// back to its pre-callback state when the callback fails.
type fakeUnitOfWork struct{ store *memStore }

func (u *fakeUnitOfWork) Execute(_ context.Context, fn func(repos ledger.Repositories) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	snapshot := u.store.clone()
	if err := fn(u.store.repositories()); err != nil {
		u.store.restore(snapshot)
		return err
	}
	return nil
}

// recordingPublisher collects published domain events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
