package schooling

import (
	"context"

	"github.com/google/uuid"
)

// GroupRepository provides read access to teaching groups
type GroupRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Group, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]Group, error)
	FindAllActive(ctx context.Context) ([]Group, error)
}

// SessionRepository provides access to sessions and series. Sessions
// are written elsewhere; the only mutation exposed here is the validity
// flag, which the correction workflow flips.
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	FindBySeries(ctx context.Context, seriesID uuid.UUID) ([]Session, error)
	FindSeriesByID(ctx context.Context, seriesID uuid.UUID) (*SessionSeries, error)
	FindSeriesByGroup(ctx context.Context, groupID uuid.UUID) ([]SessionSeries, error)
	SetValidity(ctx context.Context, sessionID uuid.UUID, active bool) error
}

// AttendanceRepository provides read access to the attendance ledger
type AttendanceRepository interface {
	Find(ctx context.Context, studentID, sessionID uuid.UUID) (*Attendance, error)
	FindByStudentAndSessions(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) ([]Attendance, error)
	CountAttended(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) (int64, error)
}

// EnrollmentRepository provides read access to the enrollment registry
type EnrollmentRepository interface {
	Find(ctx context.Context, studentID, groupID uuid.UUID) (*Enrollment, error)
	FindStudentsByGroup(ctx context.Context, groupID uuid.UUID) ([]Enrollment, error)
}
