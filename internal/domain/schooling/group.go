package schooling

import (
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Group represents a teaching group with a fixed per-session price.
// Groups are managed by an external catalog; this service only reads them.
type Group struct {
	shared.BaseEntity
	Name              string
	PricePerSession   decimal.Decimal
	SessionsPerSeries int
	Active            bool
}

// HasPrice returns true if the group carries a usable per-session price
func (g *Group) HasPrice() bool {
	return g.PricePerSession.IsPositive()
}
