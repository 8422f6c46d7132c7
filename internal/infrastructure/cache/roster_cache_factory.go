package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appPayment "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/schoolmgmt/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RosterCacheFactory creates roster caches based on configuration
type RosterCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           config.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RosterCacheFactoryOption is a functional option for configuring the factory
type RosterCacheFactoryOption func(*RosterCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RosterCacheFactoryOption {
	return func(f *RosterCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// cache when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) RosterCacheFactoryOption {
	return func(f *RosterCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRosterCacheFactory creates a new factory
func NewRosterCacheFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...RosterCacheFactoryOption) *RosterCacheFactory {
	f := &RosterCacheFactory{
		redisConfig:           redisCfg,
		cacheConfig:           cacheCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed roster cache
func (f *RosterCacheFactory) CreateRedisCache() (appPayment.RosterStatusCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	rosterCache, err := NewRedisRosterCache(redisCfg, f.cacheConfig.TTL, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis roster cache: %w", err)
	}

	return rosterCache, nil
}

// CreateInMemoryCache creates an in-memory roster cache
func (f *RosterCacheFactory) CreateInMemoryCache() appPayment.RosterStatusCache {
	return NewInMemoryRosterCache(f.cacheConfig.TTL)
}

// CreateCache creates a roster cache based on the configuration. When
// caching is disabled it returns a no-op cache, so callers never branch
// on the setting. Otherwise it tries Redis first and falls back to the
// in-memory cache if allowed.
func (f *RosterCacheFactory) CreateCache() (appPayment.RosterStatusCache, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info("roster caching disabled")
		return NoOpRosterCache{}, nil
	}

	rosterCache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis roster cache")
		return rosterCache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for roster cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory roster cache. "+
		"Invalidations will not propagate across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

// NoOpRosterCache never hits and swallows writes. Used when caching is
// disabled by configuration.
type NoOpRosterCache struct{}

func (NoOpRosterCache) Get(context.Context, uuid.UUID) ([]appPayment.StudentRosterStatus, bool) {
	return nil, false
}

func (NoOpRosterCache) Set(context.Context, uuid.UUID, []appPayment.StudentRosterStatus) {}

func (NoOpRosterCache) Invalidate(context.Context, uuid.UUID) {}

var _ appPayment.RosterStatusCache = NoOpRosterCache{}
