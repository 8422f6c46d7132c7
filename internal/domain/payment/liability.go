package payment

import (
	"github.com/shopspring/decimal"
)

// Liability computation is business policy, kept as two named functions
// instead of branching inside the engine: fixed-enrollment students owe
// for the sessions they attended, catch-up students owe for exactly one
// session.

// SeriesLiability computes what a fixed-enrollment student owes for a
// series: the per-session price times the number of sessions attended.
// Partial enrollment and skipped sessions therefore reduce liability;
// it is never price times the full series length.
func SeriesLiability(pricePerSession decimal.Decimal, attendedSessions int64) decimal.Decimal {
	if attendedSessions <= 0 {
		return decimal.Zero
	}
	return pricePerSession.Mul(decimal.NewFromInt(attendedSessions))
}

// CatchUpLiability computes what a catch-up student owes for a single
// session outside their fixed enrollment: the session price itself.
func CatchUpLiability(sessionPrice decimal.Decimal) decimal.Decimal {
	return sessionPrice
}

// RecalculationExpectedAmount computes the expected total a payment is
// measured against when resyncing after manual corrections: the
// per-session price times the series length, with a floor of one session
// so that ungrouped catch-up payments still complete.
func RecalculationExpectedAmount(pricePerSession decimal.Decimal, seriesSessionCount int64) decimal.Decimal {
	if seriesSessionCount < 1 {
		seriesSessionCount = 1
	}
	return pricePerSession.Mul(decimal.NewFromInt(seriesSessionCount))
}
