package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindActiveByTuple(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, studentID, groupID, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindActiveByTupleForUpdate(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, studentID, groupID, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByStudent(ctx context.Context, studentID uuid.UUID, filter shared.Filter) ([]payment.Payment, error) {
	args := m.Called(ctx, studentID, filter)
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockPaymentDetailRepository is a mock implementation of PaymentDetailRepository
type MockPaymentDetailRepository struct {
	mock.Mock
}

func (m *MockPaymentDetailRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentDetail), args.Error(1)
}

func (m *MockPaymentDetailRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]payment.PaymentDetail, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).([]payment.PaymentDetail), args.Error(1)
}

func (m *MockPaymentDetailRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]payment.PaymentDetail, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]payment.PaymentDetail), args.Error(1)
}

func (m *MockPaymentDetailRepository) FindActiveForStudent(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) ([]payment.PaymentDetail, error) {
	args := m.Called(ctx, studentID, sessionIDs)
	return args.Get(0).([]payment.PaymentDetail), args.Error(1)
}

func (m *MockPaymentDetailRepository) SumActiveByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentDetailRepository) Save(ctx context.Context, d *payment.PaymentDetail) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockPaymentDetailRepository) SaveAll(ctx context.Context, details []*payment.PaymentDetail) error {
	args := m.Called(ctx, details)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of PaymentDetailAuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *payment.PaymentDetailAudit) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) FindByDetail(ctx context.Context, detailID uuid.UUID, filter shared.Filter) ([]payment.PaymentDetailAudit, error) {
	args := m.Called(ctx, detailID, filter)
	return args.Get(0).([]payment.PaymentDetailAudit), args.Error(1)
}

func (m *MockAuditRepository) CountByDetail(ctx context.Context, detailID uuid.UUID) (int64, error) {
	args := m.Called(ctx, detailID)
	return args.Get(0).(int64), args.Error(1)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*schooling.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schooling.Group), args.Error(1)
}

func (m *MockGroupRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]schooling.Group, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]schooling.Group), args.Error(1)
}

func (m *MockGroupRepository) FindAllActive(ctx context.Context) ([]schooling.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schooling.Group), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*schooling.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schooling.Session), args.Error(1)
}

func (m *MockSessionRepository) FindBySeries(ctx context.Context, seriesID uuid.UUID) ([]schooling.Session, error) {
	args := m.Called(ctx, seriesID)
	return args.Get(0).([]schooling.Session), args.Error(1)
}

func (m *MockSessionRepository) FindSeriesByID(ctx context.Context, seriesID uuid.UUID) (*schooling.SessionSeries, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schooling.SessionSeries), args.Error(1)
}

func (m *MockSessionRepository) FindSeriesByGroup(ctx context.Context, groupID uuid.UUID) ([]schooling.SessionSeries, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]schooling.SessionSeries), args.Error(1)
}

func (m *MockSessionRepository) SetValidity(ctx context.Context, sessionID uuid.UUID, active bool) error {
	args := m.Called(ctx, sessionID, active)
	return args.Error(0)
}

// MockAttendanceRepository is a mock implementation of AttendanceRepository
type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Find(ctx context.Context, studentID, sessionID uuid.UUID) (*schooling.Attendance, error) {
	args := m.Called(ctx, studentID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schooling.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) FindByStudentAndSessions(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) ([]schooling.Attendance, error) {
	args := m.Called(ctx, studentID, sessionIDs)
	return args.Get(0).([]schooling.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) CountAttended(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, studentID, sessionIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockEnrollmentRepository is a mock implementation of EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Find(ctx context.Context, studentID, groupID uuid.UUID) (*schooling.Enrollment, error) {
	args := m.Called(ctx, studentID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schooling.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) FindStudentsByGroup(ctx context.Context, groupID uuid.UUID) ([]schooling.Enrollment, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]schooling.Enrollment), args.Error(1)
}

// fakeRosterCache is an in-memory RosterStatusCache recording invalidations
type fakeRosterCache struct {
	entries     map[uuid.UUID][]StudentRosterStatus
	invalidated []uuid.UUID
}

func newFakeRosterCache() *fakeRosterCache {
	return &fakeRosterCache{entries: make(map[uuid.UUID][]StudentRosterStatus)}
}

func (c *fakeRosterCache) Get(_ context.Context, groupID uuid.UUID) ([]StudentRosterStatus, bool) {
	statuses, ok := c.entries[groupID]
	return statuses, ok
}

func (c *fakeRosterCache) Set(_ context.Context, groupID uuid.UUID, statuses []StudentRosterStatus) {
	c.entries[groupID] = statuses
}

func (c *fakeRosterCache) Invalidate(_ context.Context, groupID uuid.UUID) {
	delete(c.entries, groupID)
	c.invalidated = append(c.invalidated, groupID)
}
