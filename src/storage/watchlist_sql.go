package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
)

// WatchlistKey names the persisted symbol list.
const WatchlistKey = "nepse_watchlist"

// NewWatchlistStore picks the backend named by cfg.Storage.DBType.
func NewWatchlistStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IWatchlistStore, error) {
	switch cfg.Storage.DBType {
	case "", "sqlite":
		db, err := NewSQLiteDB(cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := NewPostgresDB(cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, &helpers.ConfigurationError{NepseError: helpers.NepseError{
			Message: fmt.Sprintf("unsupported database type: %s", cfg.Storage.DBType),
		}}
	}
}

// -----------------------------------------------------------------------------

// watchlistTable runs the watchlist statements shared by both backends.
// bind rewrites "?" placeholders for the driver.
type watchlistTable struct {
	db    *sql.DB
	table string
	bind  func(query string) string
}

func questionMarks(query string) string { return query }

func dollarParams(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (w *watchlistTable) symbols(ctx context.Context) ([]string, error) {
	query := w.bind(fmt.Sprintf(`SELECT symbol FROM %s WHERE list_key = ? ORDER BY position ASC`, w.table))
	rows, err := w.db.QueryContext(ctx, query, WatchlistKey)
	if err != nil {
		return nil, helpers.NewDatabaseError("query watchlist", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, helpers.NewDatabaseError("scan watchlist", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("iterate watchlist", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (w *watchlistTable) add(ctx context.Context, symbol string) (bool, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return false, helpers.NewDatabaseError("begin watchlist insert", err)
	}
	defer tx.Rollback()

	var next int64
	query := w.bind(fmt.Sprintf(`SELECT COALESCE(MAX(position), -1) + 1 FROM %s WHERE list_key = ?`, w.table))
	if err := tx.QueryRowContext(ctx, query, WatchlistKey).Scan(&next); err != nil {
		return false, helpers.NewDatabaseError("next watchlist position", err)
	}

	query = w.bind(fmt.Sprintf(`
		INSERT INTO %s (list_key, symbol, position) VALUES (?, ?, ?)
		ON CONFLICT (list_key, symbol) DO NOTHING`, w.table))
	res, err := tx.ExecContext(ctx, query, WatchlistKey, symbol, next)
	if err != nil {
		return false, helpers.NewDatabaseError("insert watchlist symbol", err)
	}

	if err := tx.Commit(); err != nil {
		return false, helpers.NewDatabaseError("commit watchlist insert", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, helpers.NewDatabaseError("watchlist rows affected", err)
	}
	return n > 0, nil
}

// -----------------------------------------------------------------------------

func (w *watchlistTable) remove(ctx context.Context, symbol string) (bool, error) {
	query := w.bind(fmt.Sprintf(`DELETE FROM %s WHERE list_key = ? AND symbol = ?`, w.table))
	res, err := w.db.ExecContext(ctx, query, WatchlistKey, symbol)
	if err != nil {
		return false, helpers.NewDatabaseError("delete watchlist symbol", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, helpers.NewDatabaseError("watchlist rows affected", err)
	}
	return n > 0, nil
}
