package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

type pgLayoutRepository struct {
	db *sqlx.DB
}

func (r *pgLayoutRepository) GetLayout(ctx context.Context, id string) (*model.Layout, error) {
	var layout model.Layout
	q := `SELECT id, module, title, language, search, updated_at FROM layouts WHERE id = $1`
	if err := r.db.GetContext(ctx, &layout, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var entries []model.SelectionEntry
	q = `SELECT location_id, text FROM layout_selections WHERE layout_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &entries, q, id); err != nil {
		return nil, err
	}
	layout.Selected = model.Selection(entries)
	if layout.Selected == nil {
		layout.Selected = model.Selection{}
	}
	return &layout, nil
}

func (r *pgLayoutRepository) SaveLayout(ctx context.Context, layout *model.Layout) error {
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
			module = EXCLUDED.module,
			title = EXCLUDED.title,
			language = EXCLUDED.language,
			search = EXCLUDED.search,
			updated_at = EXCLUDED.updated_at`,
		layout)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM layout_selections WHERE layout_id = $1`, layout.ID); err != nil {
		return err
	}

	// Chunking to avoid parameter limit issues even in PG (max 65535 parameters)
	if err := insertSelectionRows(ctx, tx, selectionRows(layout), 2000); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *pgLayoutRepository) DeleteLayout(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = $1`, id)
	return err
}

type pgCacheRepository struct {
	db *sqlx.DB
}

func (r *pgCacheRepository) GetEntry(ctx context.Context, key string, now time.Time) ([]byte, error) {
	var payload []byte
	q := `SELECT payload FROM search_cache WHERE cache_key = $1 AND expires_at > $2`
	if err := r.db.GetContext(ctx, &payload, q, key, now.UnixMilli()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

func (r *pgCacheRepository) PutEntry(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	q := `
		INSERT INTO search_cache (cache_key, payload, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`
	_, err := r.db.ExecContext(ctx, q, key, payload, expiresAt.UnixMilli())
	return err
}

func (r *pgCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_cache WHERE expires_at <= $1`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
