package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
)

// AuditAction represents the kind of admin correction that was applied
type AuditAction string

const (
	AuditActionModified AuditAction = "MODIFIED"
	AuditActionDeleted  AuditAction = "DELETED"
)

// IsValid checks if the action is a valid AuditAction
func (a AuditAction) IsValid() bool {
	return a == AuditActionModified || a == AuditActionDeleted
}

// PaymentDetailAudit is an append-only record of an admin correction to
// a payment detail. The detail reference is weak: the audit row persists
// even after the detail is later deleted. Audit rows are created once
// and never updated.
type PaymentDetailAudit struct {
	ID          uuid.UUID
	DetailID    uuid.UUID
	Action      AuditAction
	PerformedBy uuid.UUID
	OldValue    string
	NewValue    string
	Reason      string
	CreatedAt   time.Time
}

// NewPaymentDetailAudit creates an audit entry. The reason is mandatory:
// corrections without an auditable justification are rejected outright.
func NewPaymentDetailAudit(detailID uuid.UUID, action AuditAction, performedBy uuid.UUID, oldValue, newValue, reason string) (*PaymentDetailAudit, error) {
	if detailID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Detail ID cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Audit action is not valid")
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PERFORMER", "Performer identity cannot be empty")
	}
	if reason == "" {
		return nil, shared.ErrMissingReason
	}
	return &PaymentDetailAudit{
		ID:          uuid.New(),
		DetailID:    detailID,
		Action:      action,
		PerformedBy: performedBy,
		OldValue:    oldValue,
		NewValue:    newValue,
		Reason:      reason,
		CreatedAt:   time.Now(),
	}, nil
}
