package payment

import (
	"context"

	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
)

// TransactionScope provides transactional access to the payment-side
// repositories. Every get-or-create + distribute sequence and every
// recalculation runs inside one Execute call: either all writes of that
// call commit or none do.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the payment repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// Payments returns the payment repository scoped to the current transaction
	Payments() payment.PaymentRepository
	// Details returns the payment detail repository scoped to the current transaction
	Details() payment.PaymentDetailRepository
	// Audits returns the audit repository scoped to the current transaction
	Audits() payment.PaymentDetailAuditRepository
	// Sessions returns the session repository scoped to the current
	// transaction, so validity flips roll back with the cascade
	Sessions() schooling.SessionRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests and for backends that do not require transactions.
type NoOpTransactionScope struct {
	payments payment.PaymentRepository
	details  payment.PaymentDetailRepository
	audits   payment.PaymentDetailAuditRepository
	sessions schooling.SessionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	payments payment.PaymentRepository,
	details payment.PaymentDetailRepository,
	audits payment.PaymentDetailAuditRepository,
	sessions schooling.SessionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		payments: payments,
		details:  details,
		audits:   audits,
		sessions: sessions,
	}
}

// Execute runs the function directly, with no transaction boundary.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() payment.PaymentRepository {
	return s.payments
}

// Details returns the payment detail repository.
func (s *NoOpTransactionScope) Details() payment.PaymentDetailRepository {
	return s.details
}

// Audits returns the audit repository.
func (s *NoOpTransactionScope) Audits() payment.PaymentDetailAuditRepository {
	return s.audits
}

// Sessions returns the session repository.
func (s *NoOpTransactionScope) Sessions() schooling.SessionRepository {
	return s.sessions
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
