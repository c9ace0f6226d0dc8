package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository stores the history in a local SQLite database.
// It implements pipeline.HistoryRepository.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema migrations. ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) (string, error) {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL", nil
}

// NewSQLiteRepository wraps a database opened with OpenSQLite.
func NewSQLiteRepository(db *sql.DB, logger *slog.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: logger}
}

// Get loads every stored record. An empty table means no history yet.
func (r *SQLiteRepository) Get(ctx context.Context) ([]domain.RiskRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectHistory)
	if err != nil {
		return nil, fmt.Errorf("query history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	var records []domain.RiskRecord
	for rows.Next() {
		var (
			rec    domain.RiskRecord
			vp, am sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &rec.Hour, &rec.StationID, &vp, &am, &rec.RiskValue, &rec.Band); err != nil {
			return nil, fmt.Errorf("scan history: %w: %w", domain.ErrHistoryUnavailable, err)
		}
		rec.VP = nullable(vp)
		rec.AM = nullable(am)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w: %w", domain.ErrHistoryUnavailable, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("risk_history is empty: %w", domain.ErrHistoryNotFound)
	}
	return records, nil
}

// Put replaces the table contents in one transaction.
func (r *SQLiteRepository) Put(ctx context.Context, records []domain.RiskRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM risk_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, sqliteInsertHistory)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Date, rec.Hour, rec.StationID, rec.VP, rec.AM, rec.RiskValue, rec.Band); err != nil {
			return fmt.Errorf("insert history %s: %w", rec.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	r.logger.Debug("history written", "backend", "sqlite", "rows", len(records))
	return nil
}

const sqliteInsertHistory = `
INSERT INTO risk_history (data, hora, estacao, vp, am, nivel_risco_valor, classificacao_risco)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}
