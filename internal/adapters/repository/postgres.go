package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/streak/internal/domain/model"
)

const (
	createDayLogsTable = `CREATE TABLE IF NOT EXISTS day_logs (
	user_id    TEXT PRIMARY KEY,
	records    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectDayLogs = `SELECT records FROM day_logs WHERE user_id = $1`
	upsertDayLogs = `INSERT INTO day_logs (user_id, records, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET records = EXCLUDED.records, updated_at = EXCLUDED.updated_at`
	deleteDayLogs = `DELETE FROM day_logs WHERE user_id = $1`
)

// pgExecutor is the subset of pgxpool.Pool the backend needs.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend keeps each collection as one JSONB row in day_logs.
type PostgresBackend struct {
	db pgExecutor
}

// NewPostgresPool opens a connection pool for dsn.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}

// NewPostgresBackend wraps pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: pool}
}

// Name implements Backend.
func (p *PostgresBackend) Name() string { return "postgres" }

// EnsureSchema creates the day_logs table when missing.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createDayLogsTable); err != nil {
		return fmt.Errorf("create day_logs: %w", err)
	}
	return nil
}

// Load implements Backend.
func (p *PostgresBackend) Load(ctx context.Context, userID string) ([]model.DayLog, error) {
	var b []byte
	err := p.db.QueryRow(ctx, selectDayLogs, userID).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// Save implements Backend. An empty collection deletes the row.
func (p *PostgresBackend) Save(ctx context.Context, userID string, logs []model.DayLog) error {
	if len(logs) == 0 {
		_, err := p.db.Exec(ctx, deleteDayLogs, userID)
		return err
	}
	b, err := encode(logs)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, upsertDayLogs, userID, b)
	return err
}
