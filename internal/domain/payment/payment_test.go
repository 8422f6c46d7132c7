package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestPayment(t *testing.T) *Payment {
	seriesID := uuid.New()
	p, err := NewPayment(uuid.New(), uuid.New(), &seriesID)
	require.NoError(t, err)
	return p
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  Status
		isValid bool
	}{
		{StatusPending, true},
		{StatusInProgress, true},
		{StatusCompleted, true},
		{StatusCancelled, true},
		{Status("INVALID"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestNewPayment(t *testing.T) {
	t.Run("starts in progress with nothing paid", func(t *testing.T) {
		p := createTestPayment(t)
		assert.Equal(t, StatusInProgress, p.Status)
		assert.True(t, p.AmountPaid.IsZero())
		assert.False(t, p.IsCatchUp())
		assert.Equal(t, 1, p.Version)
	})

	t.Run("nil series marks a catch-up payment", func(t *testing.T) {
		p, err := NewPayment(uuid.New(), uuid.New(), nil)
		require.NoError(t, err)
		assert.True(t, p.IsCatchUp())
	})

	t.Run("rejects empty student", func(t *testing.T) {
		_, err := NewPayment(uuid.Nil, uuid.New(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty group", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), uuid.Nil, nil)
		assert.Error(t, err)
	})
}

func TestPayment_RecordPayment(t *testing.T) {
	expected := decimal.NewFromInt(400)

	t.Run("partial payment stays in progress", func(t *testing.T) {
		p := createTestPayment(t)
		err := p.RecordPayment(decimal.NewFromInt(250), expected)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, p.Status)
		assert.True(t, p.AmountPaid.Equal(decimal.NewFromInt(250)))
		assert.NotNil(t, p.PaymentDate)
	})

	t.Run("reaching the expected cost completes", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.RecordPayment(decimal.NewFromInt(250), expected))
		require.NoError(t, p.RecordPayment(decimal.NewFromInt(150), expected))
		assert.Equal(t, StatusCompleted, p.Status)
		assert.True(t, p.AmountPaid.Equal(expected))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		p := createTestPayment(t)
		assert.Error(t, p.RecordPayment(decimal.Zero, expected))
		assert.Error(t, p.RecordPayment(decimal.NewFromInt(-10), expected))
	})

	t.Run("rejects money on a cancelled payment", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.Cancel("duplicate entry"))
		assert.Error(t, p.RecordPayment(decimal.NewFromInt(100), expected))
	})
}

func TestPayment_ApplyRecalculation(t *testing.T) {
	expected := decimal.NewFromInt(400)

	t.Run("zero total resets to pending", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.RecordPayment(decimal.NewFromInt(100), expected))
		p.ApplyRecalculation(decimal.Zero, expected)
		assert.Equal(t, StatusPending, p.Status)
		assert.True(t, p.AmountPaid.IsZero())
	})

	t.Run("total meeting expected completes", func(t *testing.T) {
		p := createTestPayment(t)
		p.ApplyRecalculation(decimal.NewFromInt(400), expected)
		assert.Equal(t, StatusCompleted, p.Status)
	})

	t.Run("partial total is in progress", func(t *testing.T) {
		p := createTestPayment(t)
		p.ApplyRecalculation(decimal.NewFromInt(40), expected)
		assert.Equal(t, StatusInProgress, p.Status)
	})

	t.Run("is idempotent", func(t *testing.T) {
		p := createTestPayment(t)
		p.ApplyRecalculation(decimal.NewFromInt(250), expected)
		status, amount := p.Status, p.AmountPaid
		p.ApplyRecalculation(decimal.NewFromInt(250), expected)
		assert.Equal(t, status, p.Status)
		assert.True(t, amount.Equal(p.AmountPaid))
	})

	t.Run("never resurrects a cancelled payment", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.Cancel("entered against wrong student"))
		p.ApplyRecalculation(decimal.NewFromInt(400), expected)
		assert.Equal(t, StatusCancelled, p.Status)
	})
}

func TestPayment_Cancel(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		p := createTestPayment(t)
		err := p.Cancel("")
		assert.Error(t, err)
		assert.Equal(t, StatusInProgress, p.Status)
	})

	t.Run("cancels once", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.Cancel("duplicate entry"))
		assert.Equal(t, StatusCancelled, p.Status)
		assert.NotNil(t, p.CancelledAt)
		assert.Equal(t, "duplicate entry", p.CancelReason)
		assert.Error(t, p.Cancel("again"))
	})
}
