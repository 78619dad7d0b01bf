package cache

import (
	"context"
	"time"

	"github.com/alexivanou/sportslocations/internal/repository"
)

// Database keeps cache entries in the search_cache table
type Database struct {
	repo repository.CacheRepository
	now  func() time.Time
}

// NewDatabase creates a database-backed cache
func NewDatabase(repo repository.CacheRepository) *Database {
	return &Database{repo: repo, now: time.Now}
}

func (d *Database) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := d.repo.GetEntry(ctx, key, d.now())
	if err != nil {
		return nil, false, err
	}
	if val == nil {
		return nil, false, nil
	}
	return val, true, nil
}

func (d *Database) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return d.repo.PutEntry(ctx, key, val, d.now().Add(ttl))
}

// Purge removes expired rows
func (d *Database) Purge(ctx context.Context) (int64, error) {
	return d.repo.DeleteExpired(ctx, d.now())
}
