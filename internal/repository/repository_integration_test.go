//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/database"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a test database connection
// This requires a running PostgreSQL instance
func setupTestDB(t *testing.T) *sqlx.DB {
	cfg := config.DBConfig{
		Type:     config.DBTypePostgreSQL,
		Host:     getenv("TEST_DB_HOST", "localhost"),
		Port:     getenv("TEST_DB_PORT", "5432"),
		User:     getenv("TEST_DB_USER", "sportslocations"),
		Password: getenv("TEST_DB_PASSWORD", "sportslocations_password"),
		Name:     getenv("TEST_DB_NAME", "sportslocations_test"),
		SSLMode:  "disable",
	}

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, cfg, "../../migrations"))

	return db
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestLayoutRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	repo := NewLayoutRepository(db, config.DBTypePostgreSQL)
	ctx := context.Background()
	id := "integration-" + time.Now().Format("150405.000")

	t.Run("SaveAndGet", func(t *testing.T) {
		err := repo.SaveLayout(ctx, &model.Layout{
			ID:       id,
			Module:   model.ModuleLocationsSelected,
			Title:    "Integration",
			Selected: model.Selection{{ID: 2, Text: "B"}, {ID: 1, Text: "A"}},
		})
		require.NoError(t, err)

		layout, err := repo.GetLayout(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, layout)
		assert.Equal(t, []int{2, 1}, layout.Selected.IDs())
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteLayout(ctx, id))
		layout, err := repo.GetLayout(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, layout)
	})
}

func TestCacheRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	repo := NewCacheRepository(db, config.DBTypePostgreSQL)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.PutEntry(ctx, "integration", []byte("payload"), now.Add(time.Minute)))
	val, err := repo.GetEntry(ctx, "integration", now)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(val))

	_, err = repo.DeleteExpired(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	val, err = repo.GetEntry(ctx, "integration", now)
	require.NoError(t, err)
	assert.Nil(t, val)
}
