package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusService builds the read-side payment views. It never mutates
// anything and never fails on missing data: a student with no payments
// simply owes what attendance says they owe.
type StatusService struct {
	details     payment.PaymentDetailRepository
	groups      schooling.GroupRepository
	sessions    schooling.SessionRepository
	attendance  schooling.AttendanceRepository
	enrollments schooling.EnrollmentRepository
	cache       RosterStatusCache
	logger      *zap.Logger
}

// NewStatusService creates a new StatusService
func NewStatusService(
	details payment.PaymentDetailRepository,
	groups schooling.GroupRepository,
	sessions schooling.SessionRepository,
	attendance schooling.AttendanceRepository,
	enrollments schooling.EnrollmentRepository,
	cache RosterStatusCache,
	logger *zap.Logger,
) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		details:     details,
		groups:      groups,
		sessions:    sessions,
		attendance:  attendance,
		enrollments: enrollments,
		cache:       cache,
		logger:      logger,
	}
}

// GetStudentStatus returns the precise nested payment view for one
// student: group, then series, then session. A session shows up only
// when the student has an active attendance record for it.
func (s *StatusService) GetStudentStatus(ctx context.Context, studentID uuid.UUID) ([]GroupPaymentStatus, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get_student_status")
	defer span.End()
	telemetry.SetAttribute(span, "student_id", studentID)

	groups, err := s.groups.FindByStudent(ctx, studentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	statuses := make([]GroupPaymentStatus, 0, len(groups))
	for _, group := range groups {
		groupStatus, err := s.buildGroupView(ctx, studentID, group)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		statuses = append(statuses, groupStatus)
	}
	return statuses, nil
}

func (s *StatusService) buildGroupView(ctx context.Context, studentID uuid.UUID, group schooling.Group) (GroupPaymentStatus, error) {
	price := s.priceOrZero(&group)

	seriesList, err := s.sessions.FindSeriesByGroup(ctx, group.ID)
	if err != nil {
		return GroupPaymentStatus{}, fmt.Errorf("failed to load series: %w", err)
	}

	status := GroupPaymentStatus{
		GroupID:   group.ID,
		GroupName: group.Name,
		Series:    make([]SeriesPaymentStatus, 0, len(seriesList)),
	}
	for _, series := range seriesList {
		seriesStatus, err := s.buildSeriesView(ctx, studentID, series, price)
		if err != nil {
			return GroupPaymentStatus{}, err
		}
		status.Series = append(status.Series, seriesStatus)
	}
	return status, nil
}

func (s *StatusService) buildSeriesView(ctx context.Context, studentID uuid.UUID, series schooling.SessionSeries, price decimal.Decimal) (SeriesPaymentStatus, error) {
	sessions, err := s.sessions.FindBySeries(ctx, series.ID)
	if err != nil {
		return SeriesPaymentStatus{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	schooling.SortSessionsByStartTime(sessions)

	sessionIDs := make([]uuid.UUID, len(sessions))
	for i, sess := range sessions {
		sessionIDs[i] = sess.ID
	}

	attendances, err := s.attendance.FindByStudentAndSessions(ctx, studentID, sessionIDs)
	if err != nil {
		return SeriesPaymentStatus{}, fmt.Errorf("failed to load attendance: %w", err)
	}
	attendanceBySession := make(map[uuid.UUID]schooling.Attendance, len(attendances))
	for _, att := range attendances {
		if att.Active {
			attendanceBySession[att.SessionID] = att
		}
	}

	paidBySession, err := s.paidBySession(ctx, studentID, sessionIDs)
	if err != nil {
		return SeriesPaymentStatus{}, err
	}

	status := SeriesPaymentStatus{
		SeriesID:  series.ID,
		Name:      series.Name,
		Sessions:  make([]SessionPaymentStatus, 0, len(attendanceBySession)),
		TotalDue:  decimal.Zero,
		TotalPaid: decimal.Zero,
	}
	for _, sess := range sessions {
		att, ok := attendanceBySession[sess.ID]
		if !ok {
			continue
		}
		due := decimal.Zero
		if att.IsPayable() {
			due = price
		}
		paid := paidBySession[sess.ID]
		status.Sessions = append(status.Sessions, SessionPaymentStatus{
			SessionID:  sess.ID,
			StartTime:  sess.StartTime,
			Present:    att.Present,
			CatchUp:    att.CatchUp,
			AmountDue:  due,
			AmountPaid: paid,
			Overdue:    due.IsPositive() && paid.LessThan(due),
		})
		status.TotalDue = status.TotalDue.Add(due)
		status.TotalPaid = status.TotalPaid.Add(paid)
	}
	status.Overdue = status.TotalDue.IsPositive() && status.TotalPaid.LessThan(status.TotalDue)
	return status, nil
}

// GetGroupStatus returns the cheap roster approximation for every
// enrolled student of a group: total paid against attendance count
// times price, without per-session detail. Results are cached.
func (s *StatusService) GetGroupStatus(ctx context.Context, groupID uuid.UUID) ([]StudentRosterStatus, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get_group_status")
	defer span.End()
	telemetry.SetAttribute(span, "group_id", groupID)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, groupID); ok {
			telemetry.SetAttribute(span, "cache_hit", true)
			return cached, nil
		}
	}

	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	price := s.priceOrZero(group)

	sessionIDs, err := s.groupSessionIDs(ctx, groupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	enrollments, err := s.enrollments.FindStudentsByGroup(ctx, groupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}

	roster := make([]StudentRosterStatus, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if !enrollment.Active {
			continue
		}
		entry, err := s.buildRosterEntry(ctx, enrollment.StudentID, sessionIDs, price)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		roster = append(roster, entry)
	}

	if s.cache != nil {
		s.cache.Set(ctx, groupID, roster)
	}
	return roster, nil
}

func (s *StatusService) buildRosterEntry(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID, price decimal.Decimal) (StudentRosterStatus, error) {
	attended, err := s.attendance.CountAttended(ctx, studentID, sessionIDs)
	if err != nil {
		return StudentRosterStatus{}, fmt.Errorf("failed to count attendance: %w", err)
	}
	expected := payment.SeriesLiability(price, attended)

	paidBySession, err := s.paidBySession(ctx, studentID, sessionIDs)
	if err != nil {
		return StudentRosterStatus{}, err
	}
	totalPaid := decimal.Zero
	for _, paid := range paidBySession {
		totalPaid = totalPaid.Add(paid)
	}

	return StudentRosterStatus{
		StudentID:        studentID,
		AttendedSessions: attended,
		ExpectedAmount:   expected,
		TotalPaid:        totalPaid,
		Underpaid:        expected.IsPositive() && totalPaid.LessThan(expected),
	}, nil
}

func (s *StatusService) groupSessionIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	seriesList, err := s.sessions.FindSeriesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}
	var ids []uuid.UUID
	for _, series := range seriesList {
		sessions, err := s.sessions.FindBySeries(ctx, series.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sessions: %w", err)
		}
		for _, sess := range sessions {
			ids = append(ids, sess.ID)
		}
	}
	return ids, nil
}

// paidBySession sums active allocation lines per session, excluding
// lines of cancelled payments. The repository enforces the exclusion.
func (s *StatusService) paidBySession(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	details, err := s.details.FindActiveForStudent(ctx, studentID, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment details: %w", err)
	}
	sums := make(map[uuid.UUID]decimal.Decimal, len(details))
	for _, d := range details {
		if !d.CountsTowardTotals() {
			continue
		}
		sums[d.SessionID] = sums[d.SessionID].Add(d.AmountPaid)
	}
	return sums, nil
}

// priceOrZero degrades a missing price to zero due instead of failing
// the whole view.
func (s *StatusService) priceOrZero(group *schooling.Group) decimal.Decimal {
	price, err := schooling.PriceOf(group)
	if err != nil {
		s.logger.Warn("group has no configured price, reporting zero due",
			zap.String("group_id", group.ID.String()),
		)
		return decimal.Zero
	}
	return price
}
