package persistence

import (
	"context"

	appPayment "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application-level TransactionScope
// using GORM transactions. Repositories handed to the callback wrap the
// transaction handle, so every write inside one Execute call commits or
// rolls back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appPayment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to a single
// transaction handle.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Payments() payment.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Details() payment.PaymentDetailRepository {
	return NewGormPaymentDetailRepository(r.tx)
}

func (r *gormTransactionalRepositories) Audits() payment.PaymentDetailAuditRepository {
	return NewGormPaymentDetailAuditRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sessions() schooling.SessionRepository {
	return NewGormSessionRepository(r.tx)
}

var _ appPayment.TransactionScope = (*GormTransactionScope)(nil)
