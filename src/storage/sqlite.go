package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	table *watchlistTable
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	if cfg.Storage.DBPath == "" {
		return nil, helpers.NewValidationError("sqlite db_path cannot be empty")
	}
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath

	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return helpers.NewDatabaseError("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	// A single connection serialises writers
	db.SetMaxOpenConns(1)
	d.DB = db

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.table = &watchlistTable{db: db, table: "watchlist", bind: questionMarks}
	d.Logger.Info("SQLite watchlist store ready at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS watchlist (
			list_key TEXT NOT NULL,
			symbol TEXT NOT NULL,
			position INTEGER NOT NULL,
			added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (list_key, symbol)
		);
	`
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Symbols(ctx context.Context) ([]string, error) {
	if d.table == nil {
		return nil, helpers.NewDatabaseError("sqlite store not initialized", nil)
	}
	return d.table.symbols(ctx)
}

func (d *SQLiteDB) Add(ctx context.Context, symbol string) (bool, error) {
	if d.table == nil {
		return false, helpers.NewDatabaseError("sqlite store not initialized", nil)
	}
	return d.table.add(ctx, symbol)
}

func (d *SQLiteDB) Remove(ctx context.Context, symbol string) (bool, error) {
	if d.table == nil {
		return false, helpers.NewDatabaseError("sqlite store not initialized", nil)
	}
	return d.table.remove(ctx, symbol)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
