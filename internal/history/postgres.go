package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/apply-agent/internal/types"
)

// Schema creates the attempts table.
const Schema = `CREATE TABLE IF NOT EXISTS application_attempts (
	id                UUID PRIMARY KEY,
	link              TEXT NOT NULL,
	title             TEXT NOT NULL,
	company           TEXT NOT NULL DEFAULT '',
	outcome           TEXT NOT NULL,
	score             INTEGER,
	reason            TEXT NOT NULL DEFAULT '',
	steps             INTEGER NOT NULL DEFAULT 0,
	recruiter_link    TEXT NOT NULL DEFAULT '',
	resume_path       TEXT NOT NULL DEFAULT '',
	cover_letter_path TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ NOT NULL,
	finished_at       TIMESTAMPTZ NOT NULL
)`

// querier is the subset of *pgxpool.Pool the recorder uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRecorder stores attempts in the application_attempts table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
	db   querier
}

// Connect opens a pool to databaseURL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRecorder{pool: pool, db: pool}, nil
}

// Close closes the connection pool.
func (r *PostgresRecorder) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// EnsureSchema creates the attempts table when it does not exist.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, a *Attempt) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO application_attempts
		   (id, link, title, company, outcome, score, reason, steps,
		    recruiter_link, resume_path, cover_letter_path, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.Link, a.Title, a.Company, string(a.Outcome), a.Score, a.Reason, a.Steps,
		a.RecruiterLink, a.ResumePath, a.CoverLetterPath, a.StartedAt, a.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Recent returns the latest attempts, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, link, title, company, outcome, score, reason, steps,
		        recruiter_link, resume_path, cover_letter_path, started_at, finished_at
		 FROM application_attempts
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var outcome string
		if err := rows.Scan(&a.ID, &a.Link, &a.Title, &a.Company, &outcome, &a.Score, &a.Reason, &a.Steps,
			&a.RecruiterLink, &a.ResumePath, &a.CoverLetterPath, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Outcome = types.Outcome(outcome)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attempts: %w", err)
	}
	return attempts, nil
}
