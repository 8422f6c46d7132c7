package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentDetail is one allocation line: money assigned to one session of
// the owning payment. For a given (payment, session) pair at most one
// detail exists; later distributions top up the existing row.
type PaymentDetail struct {
	shared.BaseEntity
	PaymentID   uuid.UUID
	SessionID   uuid.UUID
	AmountPaid  decimal.Decimal
	PaymentDate time.Time
	State       shared.LifecycleState
	CatchUp     bool
}

// NewPaymentDetail creates an allocation line for a session.
// Amount must be strictly positive and no larger than the session price.
func NewPaymentDetail(paymentID, sessionID uuid.UUID, amount, sessionPrice decimal.Decimal, catchUp bool) (*PaymentDetail, error) {
	if paymentID == uuid.Nil || sessionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Payment and session IDs cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if amount.GreaterThan(sessionPrice) {
		return nil, shared.NewDomainError("AMOUNT_EXCEEDS_PRICE",
			fmt.Sprintf("Allocation %s exceeds session price %s", amount.StringFixed(2), sessionPrice.StringFixed(2)))
	}
	return &PaymentDetail{
		BaseEntity:  shared.NewBaseEntity(),
		PaymentID:   paymentID,
		SessionID:   sessionID,
		AmountPaid:  amount,
		PaymentDate: time.Now(),
		State:       shared.LifecycleActive,
		CatchUp:     catchUp,
	}, nil
}

// Remaining returns how much the session still needs before it is fully
// funded at the given price
func (d *PaymentDetail) Remaining(sessionPrice decimal.Decimal) decimal.Decimal {
	remaining := sessionPrice.Sub(d.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// TopUp adds amount to the allocation, capped by the session price
func (d *PaymentDetail) TopUp(amount, sessionPrice decimal.Decimal) error {
	if !d.State.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot top up an inactive allocation")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Top-up amount must be positive")
	}
	newTotal := d.AmountPaid.Add(amount)
	if newTotal.GreaterThan(sessionPrice) {
		return shared.NewDomainError("AMOUNT_EXCEEDS_PRICE",
			fmt.Sprintf("Allocation %s would exceed session price %s", newTotal.StringFixed(2), sessionPrice.StringFixed(2)))
	}
	d.AmountPaid = newTotal
	d.PaymentDate = time.Now()
	d.Touch()
	return nil
}

// SetAmount replaces the allocated amount. Used by admin corrections only.
func (d *PaymentDetail) SetAmount(amount, sessionPrice decimal.Decimal) error {
	if d.State.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a deleted allocation")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if amount.GreaterThan(sessionPrice) {
		return shared.NewDomainError("AMOUNT_EXCEEDS_PRICE",
			fmt.Sprintf("Allocation %s exceeds session price %s", amount.StringFixed(2), sessionPrice.StringFixed(2)))
	}
	d.AmountPaid = amount
	d.Touch()
	return nil
}

// Deactivate soft-disables the allocation (session devalidation, admin
// correction). The money stays traceable.
func (d *PaymentDetail) Deactivate() error {
	if d.State.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot deactivate a deleted allocation")
	}
	d.State = shared.LifecycleInactive
	d.Touch()
	return nil
}

// Reactivate re-enables a soft-disabled allocation
func (d *PaymentDetail) Reactivate() error {
	if d.State.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot reactivate a deleted allocation")
	}
	d.State = shared.LifecycleActive
	d.Touch()
	return nil
}

// MarkDeleted permanently removes the allocation from every view.
// The row itself survives so audit references stay resolvable.
func (d *PaymentDetail) MarkDeleted() {
	d.State = shared.LifecycleDeleted
	d.Touch()
}

// CountsTowardTotals returns true if the allocation participates in
// aggregate and overdue computations
func (d *PaymentDetail) CountsTowardTotals() bool {
	return d.State.IsActive()
}

// GetAmountMoney returns the allocated amount as Money
func (d *PaymentDetail) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(d.AmountPaid)
}

// Snapshot renders an opaque string representation of the allocation
// state, used for audit old/new value capture
func (d *PaymentDetail) Snapshot() string {
	return fmt.Sprintf("amount=%s state=%s catchUp=%t sessionID=%s",
		d.AmountPaid.StringFixed(2), d.State, d.CatchUp, d.SessionID)
}
