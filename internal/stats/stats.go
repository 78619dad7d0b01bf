// Package stats reports what the service holds and how searches were served:
// layouts and their selections, the persisted search cache split by tier,
// and the search counters of this process.
package stats

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/metrics"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/jmoiron/sqlx"
)

type Stats struct {
	Timestamp time.Time        `json:"timestamp"`
	Layouts   LayoutStats      `json:"layouts"`
	Cache     CacheStats       `json:"search_cache"`
	Search    metrics.Snapshot `json:"search"`
	Tables    []TableStat      `json:"tables"`
	Runtime   RuntimeStats     `json:"runtime"`
}

type LayoutStats struct {
	Total             int64            `json:"total"`
	ByModule          map[string]int64 `json:"by_module"`
	Empty             int64            `json:"empty"`
	Selections        int64            `json:"selections"`
	DistinctLocations int64            `json:"distinct_locations"`
}

// CacheStats counts search_cache rows. Only the database backend persists
// entries there; other backends report just their name.
type CacheStats struct {
	Backend      string `json:"backend"`
	QueryEntries int64  `json:"query_entries" db:"query_entries"`
	RawEntries   int64  `json:"raw_entries" db:"raw_entries"`
	Expired      int64  `json:"expired" db:"expired"`
}

type TableStat struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type RuntimeStats struct {
	DBType        string `json:"db_type"`
	NumGoroutines int    `json:"num_goroutines"`
	HeapAlloc     uint64 `json:"heap_alloc"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

var tables = []string{"layouts", "layout_selections", "search_cache"}

type Collector struct {
	db        *sqlx.DB
	dbType    config.DBType
	backend   config.CacheBackend
	startTime time.Time
	now       func() time.Time
}

func NewCollector(db *sqlx.DB, cfg *config.Config) *Collector {
	return &Collector{
		db:        db,
		dbType:    cfg.DB.Type,
		backend:   cfg.Cache.Backend,
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	layouts, err := c.collectLayouts(ctx)
	if err != nil {
		return nil, err
	}

	cacheStats, err := c.collectCache(ctx)
	if err != nil {
		return nil, err
	}

	tableStats, err := c.collectTables(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Timestamp: c.now(),
		Layouts:   *layouts,
		Cache:     *cacheStats,
		Search:    metrics.TakeSnapshot(),
		Tables:    tableStats,
		Runtime:   c.collectRuntime(),
	}, nil
}

func (c *Collector) collectLayouts(ctx context.Context) (*LayoutStats, error) {
	var perModule []struct {
		Module string `db:"module"`
		Count  int64  `db:"count"`
	}
	err := c.db.SelectContext(ctx, &perModule, `SELECT module, COUNT(*) AS count FROM layouts GROUP BY module`)
	if err != nil {
		return nil, fmt.Errorf("failed to count layouts per module: %w", err)
	}

	stats := &LayoutStats{ByModule: make(map[string]int64, len(perModule))}
	for _, m := range perModule {
		stats.ByModule[m.Module] = m.Count
		stats.Total += m.Count
	}

	var sel struct {
		Selections int64 `db:"selections"`
		Distinct   int64 `db:"distinct_locations"`
	}
	err = c.db.GetContext(ctx, &sel,
		`SELECT COUNT(*) AS selections, COUNT(DISTINCT location_id) AS distinct_locations FROM layout_selections`)
	if err != nil {
		return nil, fmt.Errorf("failed to count selections: %w", err)
	}
	stats.Selections = sel.Selections
	stats.DistinctLocations = sel.Distinct

	err = c.db.GetContext(ctx, &stats.Empty, `
		SELECT COUNT(*) FROM layouts l
		WHERE NOT EXISTS (SELECT 1 FROM layout_selections s WHERE s.layout_id = l.id)`)
	if err != nil {
		return nil, fmt.Errorf("failed to count empty layouts: %w", err)
	}

	return stats, nil
}

// collectCache splits live rows by key prefix into the query and raw tiers
func (c *Collector) collectCache(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{Backend: string(c.backend)}
	if c.backend != config.CacheBackendDatabase {
		return stats, nil
	}

	now := c.now().UnixMilli()
	q := c.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN expires_at > ? AND cache_key LIKE ? THEN 1 ELSE 0 END), 0) AS query_entries,
			COALESCE(SUM(CASE WHEN expires_at > ? AND cache_key LIKE ? THEN 1 ELSE 0 END), 0) AS raw_entries,
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0) AS expired
		FROM search_cache`)
	err := c.db.GetContext(ctx, stats, q,
		now, model.QueryCachePrefix+"%",
		now, model.RawCachePrefix+"%",
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count search cache entries: %w", err)
	}
	return stats, nil
}

func (c *Collector) collectTables(ctx context.Context) ([]TableStat, error) {
	out := make([]TableStat, 0, len(tables))
	for _, table := range tables {
		var count int64
		if err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		out = append(out, TableStat{Name: table, RowCount: count})
	}
	return out, nil
}

func (c *Collector) collectRuntime() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		DBType:        string(c.dbType),
		NumGoroutines: runtime.NumGoroutine(),
		HeapAlloc:     m.HeapAlloc,
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}
}
