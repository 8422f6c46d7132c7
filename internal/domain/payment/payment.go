package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the status of a payment aggregate
type Status string

const (
	StatusPending    Status = "PENDING"     // No active allocations carry money
	StatusInProgress Status = "IN_PROGRESS" // Partially funded
	StatusCompleted  Status = "COMPLETED"   // Funded up to the expected cost
	StatusCancelled  Status = "CANCELLED"   // Excluded from all computations, never deleted
)

// IsValid checks if the status is a valid payment Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsCancelled returns true if the payment is cancelled
func (s Status) IsCancelled() bool {
	return s == StatusCancelled
}

// Payment is the aggregate root tracking a student's running payments
// against one (student, group, series) tuple. Catch-up payments carry a
// nil series. At most one non-cancelled payment exists per tuple.
//
// Invariant: after any completed operation, AmountPaid equals the sum of
// AmountPaid over the payment's active details. The resync point is
// explicit recalculation, not database triggers.
type Payment struct {
	shared.BaseAggregateRoot
	StudentID    uuid.UUID
	GroupID      uuid.UUID
	SeriesID     *uuid.UUID
	AmountPaid   decimal.Decimal
	Status       Status
	Method       string
	Description  string
	PaymentDate  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewPayment creates a new payment for a (student, group, series) tuple
// with nothing paid yet
func NewPayment(studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*Payment, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if groupID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_GROUP", "Group ID cannot be empty")
	}
	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StudentID:         studentID,
		GroupID:           groupID,
		SeriesID:          seriesID,
		AmountPaid:        decimal.Zero,
		Status:            StatusInProgress,
	}, nil
}

// CanReceiveMoney returns true if new allocations may be applied
func (p *Payment) CanReceiveMoney() bool {
	return p.Status != StatusCancelled
}

// RecordPayment adds newAmount to the running total and transitions the
// status against the expected cost the caller is liable for
func (p *Payment) RecordPayment(newAmount, expectedCost decimal.Decimal) error {
	if !p.CanReceiveMoney() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record money on a %s payment", p.Status))
	}
	if newAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	now := time.Now()
	p.AmountPaid = p.AmountPaid.Add(newAmount)
	p.PaymentDate = &now
	if p.AmountPaid.GreaterThanOrEqual(expectedCost) {
		p.Status = StatusCompleted
	} else {
		p.Status = StatusInProgress
	}
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// ApplyRecalculation resyncs the aggregate from the authoritative sum of
// its active details. It is the single source of truth after manual
// corrections and must be idempotent: running it twice with no
// intervening change yields the same amount and status.
func (p *Payment) ApplyRecalculation(totalPaid, expectedAmount decimal.Decimal) {
	if p.Status == StatusCancelled {
		return
	}

	p.AmountPaid = totalPaid
	switch {
	case totalPaid.LessThanOrEqual(decimal.Zero):
		p.Status = StatusPending
	case expectedAmount.IsPositive() && totalPaid.GreaterThanOrEqual(expectedAmount):
		p.Status = StatusCompleted
	default:
		p.Status = StatusInProgress
	}
	p.Touch()
	p.IncrementVersion()
}

// Cancel permanently excludes the payment from aggregate and overdue
// computations without deleting it
func (p *Payment) Cancel(reason string) error {
	if p.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Payment is already cancelled")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.ErrMissingReason
	}

	now := time.Now()
	p.Status = StatusCancelled
	p.CancelledAt = &now
	p.CancelReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// SetMethod sets the payment method (cash, transfer, ...)
func (p *Payment) SetMethod(method string) {
	p.Method = method
	p.Touch()
}

// SetDescription sets the free-form description
func (p *Payment) SetDescription(description string) {
	p.Description = description
	p.Touch()
}

// GetAmountPaidMoney returns the running total as Money
func (p *Payment) GetAmountPaidMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.AmountPaid)
}

// IsCatchUp returns true for ungrouped catch-up payments
func (p *Payment) IsCatchUp() bool {
	return p.SeriesID == nil
}
