package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDetailRepository(t *testing.T) (*GormPaymentDetailRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentDetailRepository(gormDB), mock, mockDB
}

func detailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at",
		"payment_id", "session_id", "amount_paid", "payment_date", "state", "catch_up",
	})
}

func TestGormPaymentDetailRepository_FindActiveForStudent(t *testing.T) {
	t.Run("joins payments to exclude cancelled owners", func(t *testing.T) {
		repo, mock, mockDB := newMockDetailRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		sessionA := uuid.New()
		sessionB := uuid.New()
		detailID := uuid.New()
		paymentID := uuid.New()

		rows := detailRows().
			AddRow(detailID, time.Now(), time.Now(), paymentID, sessionA,
				decimal.NewFromInt(100), time.Now(), shared.LifecycleActive, false)

		mock.ExpectQuery(`SELECT "payment_details"\..* FROM "payment_details" JOIN payments ON payments\.id = payment_details\.payment_id WHERE \(payments\.student_id = \$1 AND payments\.status <> \$2\) AND \(payment_details\.session_id IN \(\$3,\$4\) AND payment_details\.state = \$5\)`).
			WithArgs(studentID, payment.StatusCancelled, sessionA, sessionB, shared.LifecycleActive).
			WillReturnRows(rows)

		details, err := repo.FindActiveForStudent(context.Background(), studentID, []uuid.UUID{sessionA, sessionB})

		assert.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, detailID, details[0].ID)
		assert.Equal(t, sessionA, details[0].SessionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nothing for an empty session list without querying", func(t *testing.T) {
		repo, mock, mockDB := newMockDetailRepository(t)
		defer mockDB.Close()

		details, err := repo.FindActiveForStudent(context.Background(), uuid.New(), nil)

		assert.NoError(t, err)
		assert.Empty(t, details)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentDetailRepository_SumActiveByPayment(t *testing.T) {
	t.Run("sums active lines", func(t *testing.T) {
		repo, mock, mockDB := newMockDetailRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_paid\), 0\) FROM "payment_details" WHERE payment_id = \$1 AND state = \$2`).
			WithArgs(paymentID, shared.LifecycleActive).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("250.5"))

		sum, err := repo.SumActiveByPayment(context.Background(), paymentID)

		assert.NoError(t, err)
		assert.True(t, sum.Equal(decimal.RequireFromString("250.5")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when the payment has no lines", func(t *testing.T) {
		repo, mock, mockDB := newMockDetailRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_paid\), 0\) FROM "payment_details" WHERE payment_id = \$1 AND state = \$2`).
			WithArgs(paymentID, shared.LifecycleActive).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))

		sum, err := repo.SumActiveByPayment(context.Background(), paymentID)

		assert.NoError(t, err)
		assert.True(t, sum.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentDetailRepository_FindByPayment(t *testing.T) {
	t.Run("returns lines in chronological order, deleted included", func(t *testing.T) {
		repo, mock, mockDB := newMockDetailRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		first := uuid.New()
		second := uuid.New()

		rows := detailRows().
			AddRow(first, time.Now(), time.Now(), paymentID, uuid.New(),
				decimal.NewFromInt(50), time.Now().Add(-time.Hour), shared.LifecycleDeleted, false).
			AddRow(second, time.Now(), time.Now(), paymentID, uuid.New(),
				decimal.NewFromInt(75), time.Now(), shared.LifecycleActive, false)

		mock.ExpectQuery(`SELECT \* FROM "payment_details" WHERE payment_id = \$1 ORDER BY payment_date ASC`).
			WithArgs(paymentID).
			WillReturnRows(rows)

		details, err := repo.FindByPayment(context.Background(), paymentID)

		assert.NoError(t, err)
		require.Len(t, details, 2)
		assert.Equal(t, first, details[0].ID)
		assert.Equal(t, shared.LifecycleDeleted, details[0].State)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
