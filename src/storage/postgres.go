package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	_ "github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-z0-9_]`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger

	table *watchlistTable
}

// -----------------------------------------------------------------------------

// NewPostgresDB keeps the watchlist in a schema named after the application.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	if cfg.Storage.DBConnectionString == "" {
		return nil, helpers.NewValidationError("postgres db_connection_string cannot be empty")
	}

	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(cfg.Name),
		Logger: log,
	}, nil
}

// SchemaName turns an application name into a safe Postgres identifier.
func SchemaName(name string) string {
	s := unsafeSchemaChars.ReplaceAllString(strings.ToLower(name), "_")
	if s == "" {
		return "nepse_observer"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}
	d.DB = db

	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	table := fmt.Sprintf(`"%s"."watchlist"`, d.Schema)
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			list_key TEXT NOT NULL,
			symbol TEXT NOT NULL,
			position BIGINT NOT NULL,
			added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (list_key, symbol)
		);
	`, table)
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}

	d.table = &watchlistTable{db: db, table: table, bind: dollarParams}
	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Symbols(ctx context.Context) ([]string, error) {
	if d.table == nil {
		return nil, helpers.NewDatabaseError("postgres store not initialized", nil)
	}
	return d.table.symbols(ctx)
}

func (d *PostgresDB) Add(ctx context.Context, symbol string) (bool, error) {
	if d.table == nil {
		return false, helpers.NewDatabaseError("postgres store not initialized", nil)
	}
	return d.table.add(ctx, symbol)
}

func (d *PostgresDB) Remove(ctx context.Context, symbol string) (bool, error) {
	if d.table == nil {
		return false, helpers.NewDatabaseError("postgres store not initialized", nil)
	}
	return d.table.remove(ctx, symbol)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
