package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores the history in the risk_history table.
// It implements pipeline.HistoryRepository.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresRepository wraps an open pool. The schema must already be
// migrated (see MigratePostgres).
func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{pool: pool, logger: logger}
}

// OpenPostgres migrates the schema, connects a pool and checks connectivity.
func OpenPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if err := MigratePostgres(databaseURL); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

const selectHistory = `
SELECT data, hora, estacao, vp, am, nivel_risco_valor, classificacao_risco
FROM risk_history
ORDER BY data DESC, hora DESC, estacao ASC`

const insertHistory = `
INSERT INTO risk_history (data, hora, estacao, vp, am, nivel_risco_valor, classificacao_risco)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Get loads every stored record. An empty table means no history yet.
func (r *PostgresRepository) Get(ctx context.Context) ([]domain.RiskRecord, error) {
	rows, err := r.pool.Query(ctx, selectHistory)
	if err != nil {
		return nil, fmt.Errorf("query history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	var records []domain.RiskRecord
	for rows.Next() {
		var (
			rec  domain.RiskRecord
			date time.Time
			hour int16
		)
		if err := rows.Scan(&date, &hour, &rec.StationID, &rec.VP, &rec.AM, &rec.RiskValue, &rec.Band); err != nil {
			return nil, fmt.Errorf("scan history: %w: %w", domain.ErrHistoryUnavailable, err)
		}
		rec.Date = date.Format(domain.DateLayout)
		rec.Hour = int(hour)
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
func (r *PostgresRepository) Put(ctx context.Context, records []domain.RiskRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM risk_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		date, err := time.Parse(domain.DateLayout, rec.Date)
		if err != nil {
			return fmt.Errorf("history record %s: %w", rec.Key(), err)
		}
		batch.Queue(insertHistory, date, int16(rec.Hour), rec.StationID, rec.VP, rec.AM, rec.RiskValue, rec.Band)
	}

	res := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := res.Exec(); err != nil {
			res.Close()
			return fmt.Errorf("insert history: %w", err)
		}
	}
	if err := res.Close(); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	r.logger.Debug("history written", "backend", "postgres", "rows", len(records))
	return nil
}
