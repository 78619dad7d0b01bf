// Package cache stores raw upstream search responses with a TTL.
// Entries are written whole and only ever expire; nothing invalidates them explicitly.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a TTL'd key/value store
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// New creates the backend selected by configuration
func New(ctx context.Context, cfg config.CacheConfig, db *sqlx.DB, dbType config.DBType, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.CacheBackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("Using redis search cache", zap.String("addr", opt.Addr))
		return NewRedis(client), nil
	case config.CacheBackendDatabase:
		if db == nil {
			return nil, fmt.Errorf("database cache backend requires a database connection")
		}
		logger.Info("Using database search cache", zap.String("type", string(dbType)))
		return NewDatabase(repository.NewCacheRepository(db, dbType)), nil
	default:
		logger.Info("Using in-memory search cache")
		return NewMemory(), nil
	}
}
