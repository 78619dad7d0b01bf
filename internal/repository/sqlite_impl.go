package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/jmoiron/sqlx"
)

type sqliteLayoutRepository struct {
	db *sqlx.DB
}

func (r *sqliteLayoutRepository) GetLayout(ctx context.Context, id string) (*model.Layout, error) {
	var layout model.Layout
	q := `SELECT id, module, title, language, search, updated_at FROM layouts WHERE id = ?`
	if err := r.db.GetContext(ctx, &layout, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var entries []model.SelectionEntry
	q = `SELECT location_id, text FROM layout_selections WHERE layout_id = ? ORDER BY position`
	if err := r.db.SelectContext(ctx, &entries, q, id); err != nil {
		return nil, err
	}
	layout.Selected = model.Selection(entries)
	if layout.Selected == nil {
		layout.Selected = model.Selection{}
	}
	return &layout, nil
}

func (r *sqliteLayoutRepository) SaveLayout(ctx context.Context, layout *model.Layout) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if layout.UpdatedAt.IsZero() {
		layout.UpdatedAt = time.Now().UTC()
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO layouts (id, module, title, language, search, updated_at)
		VALUES (:id, :module, :title, :language, :search, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			module = excluded.module,
			title = excluded.title,
			language = excluded.language,
			search = excluded.search,
			updated_at = excluded.updated_at`,
		layout)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM layout_selections WHERE layout_id = ?`, layout.ID); err != nil {
		return err
	}

	// SQLite variable limit workaround (100 rows * 4 params)
	if err := insertSelectionRows(ctx, tx, selectionRows(layout), 100); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *sqliteLayoutRepository) DeleteLayout(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	return err
}

type sqliteCacheRepository struct {
	db *sqlx.DB
}

func (r *sqliteCacheRepository) GetEntry(ctx context.Context, key string, now time.Time) ([]byte, error) {
	var payload []byte
	q := `SELECT payload FROM search_cache WHERE cache_key = ? AND expires_at > ?`
	if err := r.db.GetContext(ctx, &payload, q, key, now.UnixMilli()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

func (r *sqliteCacheRepository) PutEntry(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	q := `INSERT OR REPLACE INTO search_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, key, payload, expiresAt.UnixMilli())
	return err
}

func (r *sqliteCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_cache WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
