package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGroupRepository implements GroupRepository using GORM
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GormGroupRepository
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// FindByID finds a group by its ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*schooling.Group, error) {
	var model models.GroupModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStudent finds the groups a student is enrolled in, via the
// enrollment registry. Inactive enrollments still surface their group;
// filtering by enrollment state is the caller's concern.
func (r *GormGroupRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]schooling.Group, error) {
	var groupModels []models.GroupModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.group_id = groups.id").
		Where("enrollments.student_id = ?", studentID).
		Order("groups.name ASC").
		Find(&groupModels).Error; err != nil {
		return nil, err
	}
	groups := make([]schooling.Group, len(groupModels))
	for i, model := range groupModels {
		groups[i] = *model.ToDomain()
	}
	return groups, nil
}

// FindAllActive finds all active groups
func (r *GormGroupRepository) FindAllActive(ctx context.Context) ([]schooling.Group, error) {
	var groupModels []models.GroupModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&groupModels).Error; err != nil {
		return nil, err
	}
	groups := make([]schooling.Group, len(groupModels))
	for i, model := range groupModels {
		groups[i] = *model.ToDomain()
	}
	return groups, nil
}

// GormSessionRepository implements SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByID finds a session by its ID
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*schooling.Session, error) {
	var model models.SessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySeries finds the sessions of a series in chronological order
func (r *GormSessionRepository) FindBySeries(ctx context.Context, seriesID uuid.UUID) ([]schooling.Session, error) {
	var sessionModels []models.SessionModel
	if err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("start_time ASC").
		Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	sessions := make([]schooling.Session, len(sessionModels))
	for i, model := range sessionModels {
		sessions[i] = *model.ToDomain()
	}
	return sessions, nil
}

// FindSeriesByID finds a session series by its ID
func (r *GormSessionRepository) FindSeriesByID(ctx context.Context, seriesID uuid.UUID) (*schooling.SessionSeries, error) {
	var model models.SessionSeriesModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", seriesID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSeriesByGroup finds the series of a group
func (r *GormSessionRepository) FindSeriesByGroup(ctx context.Context, groupID uuid.UUID) ([]schooling.SessionSeries, error) {
	var seriesModels []models.SessionSeriesModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&seriesModels).Error; err != nil {
		return nil, err
	}
	series := make([]schooling.SessionSeries, len(seriesModels))
	for i, model := range seriesModels {
		series[i] = *model.ToDomain()
	}
	return series, nil
}

// SetValidity flips the session's active flag
func (r *GormSessionRepository) SetValidity(ctx context.Context, sessionID uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ?", sessionID).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormAttendanceRepository implements AttendanceRepository using GORM
type GormAttendanceRepository struct {
	db *gorm.DB
}

// NewGormAttendanceRepository creates a new GormAttendanceRepository
func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

// Find finds the attendance record for a student at a session
func (r *GormAttendanceRepository) Find(ctx context.Context, studentID, sessionID uuid.UUID) (*schooling.Attendance, error) {
	var model models.AttendanceModel
	if err := r.db.WithContext(ctx).
		First(&model, "student_id = ? AND session_id = ?", studentID, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStudentAndSessions finds the student's attendance records over
// the given sessions
func (r *GormAttendanceRepository) FindByStudentAndSessions(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) ([]schooling.Attendance, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var attendanceModels []models.AttendanceModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND session_id IN ?", studentID, sessionIDs).
		Find(&attendanceModels).Error; err != nil {
		return nil, err
	}
	records := make([]schooling.Attendance, len(attendanceModels))
	for i, model := range attendanceModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// CountAttended counts the student's payable attendances over the given
// sessions. Matches Attendance.IsPayable: active records marked present.
func (r *GormAttendanceRepository) CountAttended(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceModel{}).
		Where("student_id = ? AND session_id IN ?", studentID, sessionIDs).
		Where("active = ? AND present = ?", true, true).
		Count(&count).Error
	return count, err
}

// GormEnrollmentRepository implements EnrollmentRepository using GORM
type GormEnrollmentRepository struct {
	db *gorm.DB
}

// NewGormEnrollmentRepository creates a new GormEnrollmentRepository
func NewGormEnrollmentRepository(db *gorm.DB) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{db: db}
}

// Find finds the enrollment binding a student to a group
func (r *GormEnrollmentRepository) Find(ctx context.Context, studentID, groupID uuid.UUID) (*schooling.Enrollment, error) {
	var model models.EnrollmentModel
	if err := r.db.WithContext(ctx).
		First(&model, "student_id = ? AND group_id = ?", studentID, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindStudentsByGroup finds all enrollments of a group, inactive included
func (r *GormEnrollmentRepository) FindStudentsByGroup(ctx context.Context, groupID uuid.UUID) ([]schooling.Enrollment, error) {
	var enrollmentModels []models.EnrollmentModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("date_assigned ASC").
		Find(&enrollmentModels).Error; err != nil {
		return nil, err
	}
	enrollments := make([]schooling.Enrollment, len(enrollmentModels))
	for i, model := range enrollmentModels {
		enrollments[i] = *model.ToDomain()
	}
	return enrollments, nil
}

var (
	_ schooling.GroupRepository      = (*GormGroupRepository)(nil)
	_ schooling.SessionRepository    = (*GormSessionRepository)(nil)
	_ schooling.AttendanceRepository = (*GormAttendanceRepository)(nil)
	_ schooling.EnrollmentRepository = (*GormEnrollmentRepository)(nil)
)
