package repository

import (
	"context"
	"time"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/jmoiron/sqlx"
)

// LayoutRepository defines operations for layouts and their selections
type LayoutRepository interface {
	// GetLayout returns nil, nil when the layout does not exist
	GetLayout(ctx context.Context, id string) (*model.Layout, error)
	// SaveLayout upserts the layout and replaces its selection
	SaveLayout(ctx context.Context, layout *model.Layout) error
	DeleteLayout(ctx context.Context, id string) error
}

// CacheRepository defines operations for the search_cache table
type CacheRepository interface {
	// GetEntry returns nil, nil on a miss or an expired row
	GetEntry(ctx context.Context, key string, now time.Time) ([]byte, error)
	PutEntry(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Container holds all repositories
type Container struct {
	Layout LayoutRepository
	Cache  CacheRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	return &Container{
		Layout: NewLayoutRepository(db, dbType),
		Cache:  NewCacheRepository(db, dbType),
	}
}

// NewLayoutRepository creates the layout repository for the DB type
func NewLayoutRepository(db *sqlx.DB, dbType config.DBType) LayoutRepository {
	if dbType == config.DBTypePostgreSQL {
		return &pgLayoutRepository{db: db}
	}
	// Default to SQLite
	return &sqliteLayoutRepository{db: db}
}

// NewCacheRepository creates the cache repository for the DB type
func NewCacheRepository(db *sqlx.DB, dbType config.DBType) CacheRepository {
	if dbType == config.DBTypePostgreSQL {
		return &pgCacheRepository{db: db}
	}
	return &sqliteCacheRepository{db: db}
}

// selectionRow is one persisted selection entry
type selectionRow struct {
	LayoutID   string `db:"layout_id"`
	Position   int    `db:"position"`
	LocationID int    `db:"location_id"`
	Text       string `db:"text"`
}

func selectionRows(layout *model.Layout) []selectionRow {
	rows := make([]selectionRow, 0, len(layout.Selected))
	for i, e := range layout.Selected {
		rows = append(rows, selectionRow{
			LayoutID:   layout.ID,
			Position:   i,
			LocationID: e.ID,
			Text:       e.Text,
		})
	}
	return rows
}

// insertSelectionRows batches NamedExec inserts to stay under driver parameter limits
func insertSelectionRows(ctx context.Context, tx *sqlx.Tx, rows []selectionRow, chunkSize int) error {
	for i := 0; i < len(rows); i += chunkSize {
		end := i + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		_, err := tx.NamedExecContext(ctx, `
		INSERT INTO layout_selections (layout_id, position, location_id, text)
		VALUES (:layout_id, :position, :location_id, :text)`,
			batch)
		if err != nil {
			return err
		}
	}
	return nil
}
