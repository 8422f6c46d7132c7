package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RosterStatusCache caches the whole-group roster view and is
// invalidated whenever a payment of the group mutates.
type RosterStatusCache interface {
	Get(ctx context.Context, groupID uuid.UUID) ([]StudentRosterStatus, bool)
	Set(ctx context.Context, groupID uuid.UUID, statuses []StudentRosterStatus)
	Invalidate(ctx context.Context, groupID uuid.UUID)
}

// PaymentService owns the payment aggregate lifecycle: it locates or
// creates the single active payment per (student, group, series) tuple,
// delegates money distribution to the allocation engine and persists the
// outcome, all inside one transaction per call.
type PaymentService struct {
	txScope     TransactionScope
	groups      schooling.GroupRepository
	sessions    schooling.SessionRepository
	attendance  schooling.AttendanceRepository
	enrollments schooling.EnrollmentRepository
	cache       RosterStatusCache
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txScope TransactionScope,
	groups schooling.GroupRepository,
	sessions schooling.SessionRepository,
	attendance schooling.AttendanceRepository,
	enrollments schooling.EnrollmentRepository,
	cache RosterStatusCache,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		txScope:     txScope,
		groups:      groups,
		sessions:    sessions,
		attendance:  attendance,
		enrollments: enrollments,
		cache:       cache,
		logger:      logger,
	}
}

// SeriesPaymentRequest is a bulk payment against a session series
type SeriesPaymentRequest struct {
	StudentID   uuid.UUID
	GroupID     uuid.UUID
	SeriesID    uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Description string
}

// CatchUpPaymentRequest is a payment for a single session attended
// outside the student's fixed enrollment
type CatchUpPaymentRequest struct {
	StudentID   uuid.UUID
	SessionID   uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Description string
}

// ProcessSeriesPayment allocates a paid amount across the sessions of a
// series. Liability is the per-session price times the sessions the
// student actually attended, not the full series length.
func (s *PaymentService) ProcessSeriesPayment(ctx context.Context, req SeriesPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "process_series_payment")
	defer span.End()
	telemetry.SetAttribute(span, "student_id", req.StudentID)
	telemetry.SetAttribute(span, "series_id", req.SeriesID)
	telemetry.SetAttribute(span, "amount", req.Amount.String())

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		err := shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	group, err := s.groups.FindByID(ctx, req.GroupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	price, err := schooling.PriceOf(group)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	enrollment, err := s.enrollments.Find(ctx, req.StudentID, req.GroupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if enrollment == nil || !enrollment.Active {
		err := shared.NewDomainError("NOT_FOUND", "Student is not enrolled in this group")
		telemetry.RecordError(span, err)
		return nil, err
	}

	sessions, err := s.sessions.FindBySeries(ctx, req.SeriesID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(sessions) == 0 {
		err := shared.NewDomainError("NOT_FOUND", "Series has no sessions")
		telemetry.RecordError(span, err)
		return nil, err
	}

	sessionIDs := make([]uuid.UUID, len(sessions))
	for i, sess := range sessions {
		sessionIDs[i] = sess.ID
	}
	attended, err := s.attendance.CountAttended(ctx, req.StudentID, sessionIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}
	expectedCost := payment.SeriesLiability(price, attended)

	var result *PaymentResult
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		seriesID := req.SeriesID
		p, err := s.getOrCreate(ctx, repos, req.StudentID, req.GroupID, &seriesID)
		if err != nil {
			return err
		}

		existing, err := loadDetails(ctx, repos, p.ID)
		if err != nil {
			return err
		}

		allocation, err := payment.Distribute(p, sessions, existing, price, req.Amount)
		if err != nil {
			return err
		}
		if err := persistAllocation(ctx, repos, allocation); err != nil {
			return err
		}

		// A fully funded series allocates nothing; the aggregate is
		// untouched and the whole amount comes back as surplus, so
		// there is no version bump to save under the lock.
		if allocation.Allocated.IsPositive() {
			p.SetMethod(req.Method)
			if req.Description != "" {
				p.SetDescription(req.Description)
			}
			if err := p.RecordPayment(allocation.Allocated, expectedCost); err != nil {
				return err
			}
			if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
		}

		result = &PaymentResult{Payment: p, Surplus: allocation.Surplus}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, req.GroupID)
	}
	if result.HasSurplus() {
		s.logger.Info("series payment produced a surplus to refund",
			zap.String("payment_id", result.Payment.ID.String()),
			zap.String("student_id", req.StudentID.String()),
			zap.String("surplus", result.Surplus.StringFixed(2)),
		)
	}
	return result, nil
}

// ProcessCatchUpPayment records a payment for a single catch-up session.
// The submitted amount may never exceed the session price.
func (s *PaymentService) ProcessCatchUpPayment(ctx context.Context, req CatchUpPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "process_catch_up_payment")
	defer span.End()
	telemetry.SetAttribute(span, "student_id", req.StudentID)
	telemetry.SetAttribute(span, "session_id", req.SessionID)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		err := shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Active {
		err := shared.NewDomainError("INVALID_STATE", "Cannot pay for a devalidated session")
		telemetry.RecordError(span, err)
		return nil, err
	}

	group, err := s.groups.FindByID(ctx, session.GroupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	price, err := schooling.PriceOf(group)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	liability := payment.CatchUpLiability(price)
	if req.Amount.GreaterThan(liability) {
		err := shared.NewDomainError("AMOUNT_EXCEEDS_PRICE",
			fmt.Sprintf("Catch-up amount %s exceeds session price %s", req.Amount.StringFixed(2), liability.StringFixed(2)))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *PaymentResult
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := s.getOrCreate(ctx, repos, req.StudentID, session.GroupID, nil)
		if err != nil {
			return err
		}

		existing, err := loadDetails(ctx, repos, p.ID)
		if err != nil {
			return err
		}

		allocated, surplus, err := allocateCatchUp(ctx, repos, p, existing, session.ID, price, req.Amount)
		if err != nil {
			return err
		}

		// A funded or soft-disabled line absorbs nothing; skip the
		// locked save since the aggregate version did not move.
		if allocated.IsPositive() {
			p.SetMethod(req.Method)
			if req.Description != "" {
				p.SetDescription(req.Description)
			}
			if err := p.RecordPayment(allocated, liability); err != nil {
				return err
			}
			if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
		}

		result = &PaymentResult{Payment: p, Surplus: surplus}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, session.GroupID)
	}
	return result, nil
}

// CancelPayment permanently excludes a payment from every aggregate and
// overdue computation. The record survives for traceability.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*payment.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "cancel_payment")
	defer span.End()
	telemetry.SetAttribute(span, "payment_id", paymentID)

	var cancelled *payment.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := p.Cancel(reason); err != nil {
			return err
		}
		if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		cancelled = p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, cancelled.GroupID)
	}
	s.logger.Info("payment cancelled",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason),
	)
	return cancelled, nil
}

// GetPayment returns a payment with its allocation lines
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, []payment.PaymentDetail, error) {
	var p *payment.Payment
	var details []payment.PaymentDetail
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		details, err = repos.Details().FindByPayment(ctx, paymentID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return p, details, nil
}

// ListStudentPayments returns a student's payments, newest first
func (s *PaymentService) ListStudentPayments(ctx context.Context, studentID uuid.UUID, filter shared.Filter) ([]payment.Payment, error) {
	var payments []payment.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payments, err = repos.Payments().FindByStudent(ctx, studentID, filter)
		return err
	})
	return payments, err
}

// getOrCreate returns the single active payment for a tuple, creating a
// fresh one when only cancelled predecessors (or nothing) exist. Must
// run inside the transaction scope: the row lock taken by the lookup is
// what serializes concurrent payments on the same tuple.
func (s *PaymentService) getOrCreate(ctx context.Context, repos TransactionalRepositories, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*payment.Payment, error) {
	p, err := repos.Payments().FindActiveByTupleForUpdate(ctx, studentID, groupID, seriesID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}

	p, err = payment.NewPayment(studentID, groupID, seriesID)
	if err != nil {
		return nil, err
	}
	if err := repos.Payments().Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return p, nil
}

func loadDetails(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) ([]*payment.PaymentDetail, error) {
	rows, err := repos.Details().FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment details: %w", err)
	}
	details := make([]*payment.PaymentDetail, len(rows))
	for i := range rows {
		details[i] = &rows[i]
	}
	return details, nil
}

func persistAllocation(ctx context.Context, repos TransactionalRepositories, allocation *payment.AllocationResult) error {
	if err := repos.Details().SaveAll(ctx, allocation.Created); err != nil {
		return fmt.Errorf("failed to save new allocations: %w", err)
	}
	if err := repos.Details().SaveAll(ctx, allocation.Updated); err != nil {
		return fmt.Errorf("failed to save topped-up allocations: %w", err)
	}
	return nil
}

// allocateCatchUp funds a single session, topping up an existing line
// when one exists. Returns the allocated amount and any surplus.
func allocateCatchUp(ctx context.Context, repos TransactionalRepositories, p *payment.Payment, existing []*payment.PaymentDetail, sessionID uuid.UUID, price, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	for _, d := range existing {
		if d.SessionID != sessionID || d.State.IsDeleted() {
			continue
		}
		if !d.State.IsActive() {
			return decimal.Zero, amount, nil
		}
		needed := d.Remaining(price)
		if needed.IsZero() {
			return decimal.Zero, amount, nil
		}
		portion := decimal.Min(needed, amount)
		if err := d.TopUp(portion, price); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if err := repos.Details().Save(ctx, d); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to save allocation: %w", err)
		}
		return portion, amount.Sub(portion), nil
	}

	detail, err := payment.NewPaymentDetail(p.ID, sessionID, amount, price, true)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := repos.Details().Save(ctx, detail); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to save allocation: %w", err)
	}
	return amount, decimal.Zero, nil
}
