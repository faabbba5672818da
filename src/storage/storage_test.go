package storage

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T, path string) *SQLiteDB {
	t.Helper()
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite", DBPath: path}}
	db, err := NewSQLiteDB(cfg, logger.NewWriterLogger(io.Discard, "SQLiteDB", logger.LevelDebug))
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	return db
}

func TestSQLiteWatchlistRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "watchlist.db")
	db := newSQLiteStore(t, path)

	syms, err := db.Symbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, syms)

	for _, s := range []string{"NABIL", "HDL", "UPPER"} {
		added, err := db.Add(ctx, s)
		require.NoError(t, err)
		assert.True(t, added)
	}

	added, err := db.Add(ctx, "HDL")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := db.Remove(ctx, "HDL")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.Remove(ctx, "HDL")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = db.Add(ctx, "API")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopen: order survives
	reopened := newSQLiteStore(t, path)
	defer reopened.Close()

	syms, err = reopened.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"NABIL", "UPPER", "API"}, syms)
}

func TestUninitializedStoreErrors(t *testing.T) {
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBPath: "unused.db"}}
	db, err := NewSQLiteDB(cfg, logger.NewWriterLogger(io.Discard, "SQLiteDB", logger.LevelDebug))
	require.NoError(t, err)

	_, err = db.Symbols(context.Background())
	var dbErr *helpers.DatabaseError
	assert.ErrorAs(t, err, &dbErr)
}

func TestNewWatchlistStore(t *testing.T) {
	log := logger.NewWriterLogger(io.Discard, "Storage", logger.LevelDebug)

	store, err := NewWatchlistStore(&models.MConfig{Storage: models.MStorageConfig{DBPath: "x.db"}}, log)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteDB{}, store)

	store, err = NewWatchlistStore(&models.MConfig{Name: "nepse-observer", Storage: models.MStorageConfig{
		DBType: "postgres", DBConnectionString: "postgres://localhost/nepse?sslmode=disable",
	}}, log)
	require.NoError(t, err)
	require.IsType(t, &PostgresDB{}, store)
	assert.Equal(t, "nepse_observer", store.(*PostgresDB).Schema)

	_, err = NewWatchlistStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "mongo"}}, log)
	var cfgErr *helpers.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewWatchlistStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "postgres"}}, log)
	var valErr *helpers.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDollarParams(t *testing.T) {
	assert.Equal(t,
		"DELETE FROM w WHERE list_key = $1 AND symbol = $2",
		dollarParams("DELETE FROM w WHERE list_key = ? AND symbol = ?"))
	assert.Equal(t, "SELECT 1", questionMarks("SELECT 1"))
}
