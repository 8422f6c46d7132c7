package schooling

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
)

// Attendance records a student's presence at a session.
// Only active records participate in payment status computations; a
// session with no attendance record for a student is not applicable to
// that student at all, which is different from unpaid.
type Attendance struct {
	shared.BaseEntity
	StudentID uuid.UUID
	SessionID uuid.UUID
	Present   bool
	Justified bool
	CatchUp   bool
	Active    bool
}

// IsPayable returns true if the student owes money for the session.
// Currently only presence creates liability; an absent-but-payable
// policy slot exists for groups that bill missed sessions.
func (a *Attendance) IsPayable() bool {
	if !a.Active {
		return false
	}
	return a.Present
}

// Enrollment binds a student to a group from a given date.
type Enrollment struct {
	shared.BaseEntity
	StudentID    uuid.UUID
	GroupID      uuid.UUID
	DateAssigned time.Time
	Active       bool
}
