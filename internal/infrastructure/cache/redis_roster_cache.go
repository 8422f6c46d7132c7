package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appPayment "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRosterCache implements RosterStatusCache using Redis. Suitable
// for distributed deployments where multiple instances serve the same
// group rosters. Cache failures are logged and treated as misses; the
// read side must keep working when Redis is down.
type RedisRosterCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRosterCache creates a new Redis-backed roster cache
func NewRedisRosterCache(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisRosterCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRosterCacheWithClient(client, ttl, logger), nil
}

// NewRedisRosterCacheWithClient creates a roster cache over an existing
// Redis client. Useful for testing or when sharing a client.
func NewRedisRosterCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRosterCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisRosterCache{
		client:    client,
		keyPrefix: "roster:group:",
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the cached roster for a group, or a miss
func (c *RedisRosterCache) Get(ctx context.Context, groupID uuid.UUID) ([]appPayment.StudentRosterStatus, bool) {
	raw, err := c.client.Get(ctx, c.key(groupID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("roster cache read failed",
				zap.String("group_id", groupID.String()),
				zap.Error(err))
		}
		return nil, false
	}

	var statuses []appPayment.StudentRosterStatus
	if err := json.Unmarshal(raw, &statuses); err != nil {
		c.logger.Warn("roster cache entry corrupt, dropping",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
		c.client.Del(ctx, c.key(groupID))
		return nil, false
	}
	return statuses, true
}

// Set stores the roster for a group with the configured TTL
func (c *RedisRosterCache) Set(ctx context.Context, groupID uuid.UUID, statuses []appPayment.StudentRosterStatus) {
	raw, err := json.Marshal(statuses)
	if err != nil {
		c.logger.Warn("roster cache marshal failed",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(groupID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("roster cache write failed",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
	}
}

// Invalidate drops the cached roster for a group
func (c *RedisRosterCache) Invalidate(ctx context.Context, groupID uuid.UUID) {
	if err := c.client.Del(ctx, c.key(groupID)).Err(); err != nil {
		c.logger.Warn("roster cache invalidation failed",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisRosterCache) Close() error {
	return c.client.Close()
}

func (c *RedisRosterCache) key(groupID uuid.UUID) string {
	return c.keyPrefix + groupID.String()
}

var _ appPayment.RosterStatusCache = (*RedisRosterCache)(nil)
