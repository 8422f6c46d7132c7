package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appPayment "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster(n int) []appPayment.StudentRosterStatus {
	statuses := make([]appPayment.StudentRosterStatus, n)
	for i := range statuses {
		statuses[i] = appPayment.StudentRosterStatus{
			StudentID:        uuid.New(),
			AttendedSessions: int64(i),
			ExpectedAmount:   decimal.NewFromInt(int64(i * 100)),
			TotalPaid:        decimal.NewFromInt(int64(i * 50)),
			Underpaid:        i > 0,
		}
	}
	return statuses
}

func TestInMemoryRosterCache_SetAndGet(t *testing.T) {
	cache := NewInMemoryRosterCache(time.Minute)
	defer cache.Close()

	ctx := context.Background()
	groupID := uuid.New()
	roster := testRoster(3)

	_, hit := cache.Get(ctx, groupID)
	assert.False(t, hit)

	cache.Set(ctx, groupID, roster)

	got, hit := cache.Get(ctx, groupID)
	require.True(t, hit)
	require.Len(t, got, 3)
	assert.Equal(t, roster[1].StudentID, got[1].StudentID)
	assert.True(t, got[2].Underpaid)
}

func TestInMemoryRosterCache_Invalidate(t *testing.T) {
	cache := NewInMemoryRosterCache(time.Minute)
	defer cache.Close()

	ctx := context.Background()
	groupID := uuid.New()
	other := uuid.New()

	cache.Set(ctx, groupID, testRoster(2))
	cache.Set(ctx, other, testRoster(1))

	cache.Invalidate(ctx, groupID)

	_, hit := cache.Get(ctx, groupID)
	assert.False(t, hit)

	_, hit = cache.Get(ctx, other)
	assert.True(t, hit, "invalidation must be scoped to one group")
}

func TestInMemoryRosterCache_Expiration(t *testing.T) {
	cache := NewInMemoryRosterCache(10 * time.Millisecond)
	defer cache.Close()

	ctx := context.Background()
	groupID := uuid.New()

	cache.Set(ctx, groupID, testRoster(1))
	time.Sleep(30 * time.Millisecond)

	_, hit := cache.Get(ctx, groupID)
	assert.False(t, hit, "expired entries must read as misses")
}

func TestInMemoryRosterCache_ConcurrentAccess(t *testing.T) {
	cache := NewInMemoryRosterCache(time.Minute)
	defer cache.Close()

	ctx := context.Background()
	groupID := uuid.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			cache.Set(ctx, groupID, testRoster(2))
			cache.Invalidate(ctx, groupID)
		}
	}()

	for i := 0; i < 100; i++ {
		cache.Get(ctx, groupID)
	}
	<-done
}

func TestNoOpRosterCache(t *testing.T) {
	var c NoOpRosterCache
	ctx := context.Background()
	groupID := uuid.New()

	c.Set(ctx, groupID, testRoster(1))
	_, hit := c.Get(ctx, groupID)
	assert.False(t, hit)
	c.Invalidate(ctx, groupID)
}
