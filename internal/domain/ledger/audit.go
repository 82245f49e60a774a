package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/edudesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction identifies what a ledger audit entry records
type AuditAction string

const (
	AuditActionReversedFull    AuditAction = "REVERSED_FULL"
	AuditActionReversedPartial AuditAction = "REVERSED_PARTIAL"
)

// IsValid checks if the audit action is valid
func (a AuditAction) IsValid() bool {
	return a == AuditActionReversedFull || a == AuditActionReversedPartial
}

// ObligationSnapshot captures an obligation's aggregate position at a point
// in time. Stored as JSONB on audit entries.
type ObligationSnapshot struct {
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	Status        FeeStatus       `json:"status"`
}

// SnapshotOf captures the obligation's current aggregate values
func SnapshotOf(ob *FeeObligation) ObligationSnapshot {
	return ObligationSnapshot{
		PaidAmount:    ob.PaidAmount,
		BalanceAmount: ob.BalanceAmount,
		Status:        ob.Status,
	}
}

// Value implements driver.Valuer so the snapshot stores as JSONB
func (s ObligationSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner to read the snapshot from JSONB
func (s *ObligationSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = ObligationSnapshot{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ObligationSnapshot: unsupported type")
	}

	if len(bytes) == 0 {
		*s = ObligationSnapshot{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// AuditEntry is the append-only record of a reversal: who did it, why, and
// the obligation's aggregate position before and after. Created only by the
// reversal path, inside the same transaction; never updated or deleted.
type AuditEntry struct {
	shared.BaseEntity
	PaymentID    uuid.UUID
	ObligationID uuid.UUID
	Action       AuditAction
	PerformedBy  uuid.UUID
	Reason       string
	OldValues    ObligationSnapshot
	NewValues    ObligationSnapshot
}

// NewAuditEntry creates an audit entry for a reversal
func NewAuditEntry(
	paymentID, obligationID uuid.UUID,
	action AuditAction,
	performedBy uuid.UUID,
	reason string,
	oldValues, newValues ObligationSnapshot,
) (*AuditEntry, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTION", "Audit action is not valid")
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Performing user cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Audit reason is required")
	}
	return &AuditEntry{
		BaseEntity:   shared.NewBaseEntity(),
		PaymentID:    paymentID,
		ObligationID: obligationID,
		Action:       action,
		PerformedBy:  performedBy,
		Reason:       reason,
		OldValues:    oldValues,
		NewValues:    newValues,
	}, nil
}
