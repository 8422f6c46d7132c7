package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/shopspring/decimal"
)

// GroupModel is the persistence model for teaching groups.
type GroupModel struct {
	BaseModel
	Name              string          `gorm:"type:varchar(200);not null"`
	PricePerSession   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SessionsPerSeries int             `gorm:"not null;default:0"`
	Active            bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (GroupModel) TableName() string {
	return "groups"
}

// ToDomain converts the persistence model to a domain Group.
func (m *GroupModel) ToDomain() *schooling.Group {
	return &schooling.Group{
		BaseEntity:        m.BaseModel.ToDomain(),
		Name:              m.Name,
		PricePerSession:   m.PricePerSession,
		SessionsPerSeries: m.SessionsPerSeries,
		Active:            m.Active,
	}
}

// SessionSeriesModel is the persistence model for session series.
type SessionSeriesModel struct {
	BaseModel
	GroupID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(200);not null"`
	SessionCount int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SessionSeriesModel) TableName() string {
	return "session_series"
}

// ToDomain converts the persistence model to a domain SessionSeries.
func (m *SessionSeriesModel) ToDomain() *schooling.SessionSeries {
	return &schooling.SessionSeries{
		BaseEntity:   m.BaseModel.ToDomain(),
		GroupID:      m.GroupID,
		Name:         m.Name,
		SessionCount: m.SessionCount,
	}
}

// SessionModel is the persistence model for sessions.
type SessionModel struct {
	BaseModel
	SeriesID  uuid.UUID `gorm:"type:uuid;not null;index"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index"`
	StartTime time.Time `gorm:"not null;index"`
	Active    bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}

// ToDomain converts the persistence model to a domain Session.
func (m *SessionModel) ToDomain() *schooling.Session {
	return &schooling.Session{
		BaseEntity: m.BaseModel.ToDomain(),
		SeriesID:   m.SeriesID,
		GroupID:    m.GroupID,
		StartTime:  m.StartTime,
		Active:     m.Active,
	}
}

// AttendanceModel is the persistence model for the attendance ledger.
type AttendanceModel struct {
	BaseModel
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_student_session,priority:1"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_student_session,priority:2;index"`
	Present   bool      `gorm:"not null;default:false"`
	Justified bool      `gorm:"not null;default:false"`
	CatchUp   bool      `gorm:"not null;default:false"`
	Active    bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AttendanceModel) TableName() string {
	return "attendances"
}

// ToDomain converts the persistence model to a domain Attendance.
func (m *AttendanceModel) ToDomain() *schooling.Attendance {
	return &schooling.Attendance{
		BaseEntity: m.BaseModel.ToDomain(),
		StudentID:  m.StudentID,
		SessionID:  m.SessionID,
		Present:    m.Present,
		Justified:  m.Justified,
		CatchUp:    m.CatchUp,
		Active:     m.Active,
	}
}

// EnrollmentModel is the persistence model for student enrollments.
type EnrollmentModel struct {
	BaseModel
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_group,priority:1"`
	GroupID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_group,priority:2;index"`
	DateAssigned time.Time `gorm:"not null"`
	Active       bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (EnrollmentModel) TableName() string {
	return "enrollments"
}

// ToDomain converts the persistence model to a domain Enrollment.
func (m *EnrollmentModel) ToDomain() *schooling.Enrollment {
	return &schooling.Enrollment{
		BaseEntity:   m.BaseModel.ToDomain(),
		StudentID:    m.StudentID,
		GroupID:      m.GroupID,
		DateAssigned: m.DateAssigned,
		Active:       m.Active,
	}
}
