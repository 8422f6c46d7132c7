package shared

// LifecycleState models the three-state soft-delete lifecycle used by
// records that must stay traceable after being disabled or removed.
// A record is ACTIVE, soft-disabled (INACTIVE), or permanently DELETED.
// The single tagged state rules out invalid flag combinations such as
// "deleted but still active".
type LifecycleState string

const (
	LifecycleActive   LifecycleState = "ACTIVE"
	LifecycleInactive LifecycleState = "INACTIVE"
	LifecycleDeleted  LifecycleState = "DELETED"
)

// IsValid checks if the state is a valid LifecycleState
func (s LifecycleState) IsValid() bool {
	switch s {
	case LifecycleActive, LifecycleInactive, LifecycleDeleted:
		return true
	}
	return false
}

// String returns the string representation of LifecycleState
func (s LifecycleState) String() string {
	return string(s)
}

// IsActive returns true if the record participates in computations
func (s LifecycleState) IsActive() bool {
	return s == LifecycleActive
}

// IsDeleted returns true if the record is permanently removed from view
func (s LifecycleState) IsDeleted() bool {
	return s == LifecycleDeleted
}
