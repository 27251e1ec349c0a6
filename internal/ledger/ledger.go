// Package ledger keeps a history of runs in sqlite.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"histbars/internal/report"
)

// Fixed-width so that text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts r. Saving the same run id twice is an error.
func (r *Repository) Save(ctx context.Context, run report.Run) error {
	const query = `INSERT INTO runs (run_id, provider, symbol, timeframe, status, error_kind, error,
		fetched, rows_written, partitions, cutoff, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Provider, run.Symbol, run.Timeframe, string(run.Status),
		nullable(run.ErrorKind), nullable(run.Error),
		run.Fetched, run.Rows, len(run.Partitions),
		run.Cutoff.UTC().Format(timeFormat),
		run.StartedAt.UTC().Format(timeFormat),
		run.FinishedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Latest returns the most recently finished run for the series, or nil when none exists.
// When onlySucceeded is set, failed runs are skipped. Partition details are not stored, only their count.
func (r *Repository) Latest(ctx context.Context, provider, symbol, timeframe string, onlySucceeded bool) (*report.Run, error) {
	query := `SELECT run_id, provider, symbol, timeframe, status, error_kind, error,
		fetched, rows_written, cutoff, started_at, finished_at
		FROM runs WHERE provider = ? AND symbol = ? AND timeframe = ?`
	args := []any{provider, symbol, timeframe}
	if onlySucceeded {
		query += " AND status = ?"
		args = append(args, string(report.StatusSucceeded))
	}
	query += " ORDER BY finished_at DESC, id DESC LIMIT 1"

	var (
		run                         report.Run
		status                      string
		kind, msg                   sql.NullString
		cutoff, startedAt, finished string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&run.ID, &run.Provider, &run.Symbol, &run.Timeframe, &status, &kind, &msg,
		&run.Fetched, &run.Rows, &cutoff, &startedAt, &finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}

	run.Status = report.Status(status)
	run.ErrorKind = kind.String
	run.Error = msg.String
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"cutoff", cutoff, &run.Cutoff},
		{"started_at", startedAt, &run.StartedAt},
		{"finished_at", finished, &run.FinishedAt},
	} {
		t, err := time.Parse(time.RFC3339Nano, f.raw)
		if err != nil {
			return nil, fmt.Errorf("latest run %s: parse %s: %w", run.ID, f.name, err)
		}
		*f.dst = t
	}
	return &run, nil
}

// Count returns how many runs are recorded for the series.
func (r *Repository) Count(ctx context.Context, provider, symbol, timeframe string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE provider = ? AND symbol = ? AND timeframe = ?`,
		provider, symbol, timeframe,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
