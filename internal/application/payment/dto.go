package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// PaymentResult is the outcome of a payment processing call. Surplus is
// money that exceeded the liability and should be refunded to the payer;
// it is informational, never an error.
type PaymentResult struct {
	Payment *payment.Payment `json:"payment"`
	Surplus decimal.Decimal  `json:"surplus"`
}

// HasSurplus returns true if part of the submitted amount was not allocated
func (r *PaymentResult) HasSurplus() bool {
	return r.Surplus.IsPositive()
}

// SessionPaymentStatus is the precise per-session payment state for one
// student. Sessions without an attendance record for the student do not
// appear at all: not applicable is different from unpaid.
type SessionPaymentStatus struct {
	SessionID  uuid.UUID       `json:"session_id"`
	StartTime  time.Time       `json:"start_time"`
	Present    bool            `json:"present"`
	CatchUp    bool            `json:"catch_up"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Overdue    bool            `json:"overdue"`
}

// SeriesPaymentStatus aggregates the per-session statuses of one series
type SeriesPaymentStatus struct {
	SeriesID  uuid.UUID              `json:"series_id"`
	Name      string                 `json:"name"`
	Sessions  []SessionPaymentStatus `json:"sessions"`
	TotalDue  decimal.Decimal        `json:"total_due"`
	TotalPaid decimal.Decimal        `json:"total_paid"`
	Overdue   bool                   `json:"overdue"`
}

// GroupPaymentStatus is the per-group rollup of a student's series statuses
type GroupPaymentStatus struct {
	GroupID   uuid.UUID             `json:"group_id"`
	GroupName string                `json:"group_name"`
	Series    []SeriesPaymentStatus `json:"series"`
}

// StudentRosterStatus is the cheap roster-screen approximation for one
// enrolled student: a single aggregate comparison of total paid against
// attendance count times price per series, with no per-session detail.
type StudentRosterStatus struct {
	StudentID        uuid.UUID       `json:"student_id"`
	AttendedSessions int64           `json:"attended_sessions"`
	ExpectedAmount   decimal.Decimal `json:"expected_amount"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Underpaid        bool            `json:"underpaid"`
}

// DetailPatch carries an admin correction to a single allocation.
// Nil fields are left untouched.
type DetailPatch struct {
	Amount *decimal.Decimal
	Active *bool
}

// IsEmpty returns true when the patch changes nothing
func (p DetailPatch) IsEmpty() bool {
	return p.Amount == nil && p.Active == nil
}
