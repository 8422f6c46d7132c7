package schooling

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
)

// Session is a single scheduled lesson belonging to a series.
// Sessions come from the external scheduling side; payments never mutate
// them, but react to their active flag (devalidation cascade).
type Session struct {
	shared.BaseEntity
	SeriesID  uuid.UUID
	GroupID   uuid.UUID
	StartTime time.Time
	Active    bool
}

// SessionSeries is an ordered set of sessions billed together at the
// owning group's per-session price.
type SessionSeries struct {
	shared.BaseEntity
	GroupID      uuid.UUID
	Name         string
	SessionCount int
}

// SortSessionsByStartTime sorts sessions ascending by start time in place.
// Allocation order depends on this: earlier sessions are funded first.
func SortSessionsByStartTime(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
