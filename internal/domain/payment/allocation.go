package payment

import (
	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationResult reports what a distribution did: which details were
// created or topped up, how much money landed on sessions, and how much
// was left over once every session was fully funded. Surplus is an
// informational condition, not a failure; the caller refunds it.
type AllocationResult struct {
	Allocated decimal.Decimal
	Surplus   decimal.Decimal
	Created   []*PaymentDetail
	Updated   []*PaymentDetail
}

// HasSurplus returns true if part of the paid amount could not be
// allocated to any session
func (r *AllocationResult) HasSurplus() bool {
	return r.Surplus.IsPositive()
}

// Distribute allocates amount across the sessions of a series in
// chronological order, completing partially funded sessions before
// starting new ones. It operates on loaded state only; persistence and
// transaction scoping belong to the caller.
//
// Inactive (devalidated) sessions carry no liability and are skipped, so
// money never lands on a session whose allocations would immediately be
// deactivated by the devalidation cascade.
func Distribute(p *Payment, sessions []schooling.Session, existing []*PaymentDetail, sessionPrice, amount decimal.Decimal) (*AllocationResult, error) {
	if p == nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Payment cannot be nil")
	}
	if !p.CanReceiveMoney() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot allocate money on a cancelled payment")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Distribution amount must be positive")
	}
	if !sessionPrice.IsPositive() {
		return nil, shared.ErrMissingPrice
	}

	ordered := make([]schooling.Session, len(sessions))
	copy(ordered, sessions)
	schooling.SortSessionsByStartTime(ordered)

	bySession := make(map[uuid.UUID]*PaymentDetail, len(existing))
	for _, d := range existing {
		if !d.State.IsDeleted() {
			bySession[d.SessionID] = d
		}
	}

	result := &AllocationResult{
		Allocated: decimal.Zero,
		Surplus:   decimal.Zero,
	}
	remaining := amount

	for _, session := range ordered {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if !session.Active {
			continue
		}

		if detail, ok := bySession[session.ID]; ok {
			// An allocation under admin dispute (soft-disabled) is left
			// alone; the unique (payment, session) constraint forbids a
			// second row for the same session.
			if !detail.State.IsActive() {
				continue
			}
			needed := detail.Remaining(sessionPrice)
			if needed.LessThanOrEqual(decimal.Zero) {
				continue
			}
			portion := decimal.Min(needed, remaining)
			if err := detail.TopUp(portion, sessionPrice); err != nil {
				return nil, err
			}
			result.Updated = append(result.Updated, detail)
			result.Allocated = result.Allocated.Add(portion)
			remaining = remaining.Sub(portion)
			continue
		}

		portion := decimal.Min(sessionPrice, remaining)
		detail, err := NewPaymentDetail(p.ID, session.ID, portion, sessionPrice, false)
		if err != nil {
			return nil, err
		}
		bySession[session.ID] = detail
		result.Created = append(result.Created, detail)
		result.Allocated = result.Allocated.Add(portion)
		remaining = remaining.Sub(portion)
	}

	result.Surplus = remaining
	return result, nil
}
