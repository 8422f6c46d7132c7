package schooling

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricingResolver resolves the per-session price of a group.
// Every allocation depends on it; a group without a positive price is a
// configuration error that aborts the operation.
type PricingResolver struct {
	groups GroupRepository
}

// NewPricingResolver creates a new PricingResolver
func NewPricingResolver(groups GroupRepository) *PricingResolver {
	return &PricingResolver{groups: groups}
}

// PriceFor returns the per-session price for the given group
func (r *PricingResolver) PriceFor(ctx context.Context, groupID uuid.UUID) (decimal.Decimal, error) {
	group, err := r.groups.FindByID(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	return PriceOf(group)
}

// PriceOf extracts the per-session price from an already loaded group
func PriceOf(group *Group) (decimal.Decimal, error) {
	if group == nil || !group.HasPrice() {
		return decimal.Zero, shared.ErrMissingPrice
	}
	return group.PricePerSession, nil
}
