package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentRepository persists Payment aggregates
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindActiveByTuple returns the single non-cancelled payment for a
	// (student, group, series) tuple, or shared.ErrNotFound. Cancelled
	// payments are deliberately invisible here so a new payment can be
	// created over a cancelled predecessor.
	FindActiveByTuple(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*Payment, error)
	// FindActiveByTupleForUpdate is FindActiveByTuple under a row lock,
	// for use inside the get-or-create critical section.
	FindActiveByTupleForUpdate(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*Payment, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID, filter shared.Filter) ([]Payment, error)
	Save(ctx context.Context, p *Payment) error
	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, p *Payment) error
}

// PaymentDetailRepository persists allocation lines
type PaymentDetailRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentDetail, error)
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]PaymentDetail, error)
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]PaymentDetail, error)
	// FindActiveForStudent returns active, non-deleted details for the
	// student's sessions, excluding details whose owning payment is
	// cancelled. This is the read-side source for per-session paid sums.
	FindActiveForStudent(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) ([]PaymentDetail, error)
	// SumActiveByPayment sums AmountPaid over the payment's active
	// details; the authoritative input to recalculation.
	SumActiveByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, d *PaymentDetail) error
	SaveAll(ctx context.Context, details []*PaymentDetail) error
}

// PaymentDetailAuditRepository persists the append-only audit log
type PaymentDetailAuditRepository interface {
	Append(ctx context.Context, entry *PaymentDetailAudit) error
	FindByDetail(ctx context.Context, detailID uuid.UUID, filter shared.Filter) ([]PaymentDetailAudit, error)
	CountByDetail(ctx context.Context, detailID uuid.UUID) (int64, error)
}
