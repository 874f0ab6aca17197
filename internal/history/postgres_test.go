package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	execs   []execCall
	execErr error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestPostgresRecorder_Record(t *testing.T) {
	fake := &fakeQuerier{}
	rec := &PostgresRecorder{db: fake}
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	score := 65

	a := NewAttempt(&types.ApplicationJob{Link: "https://example.com/1", Title: "One", Company: "Acme"}, start)
	a.Score = &score
	a.Finish(&types.ApplicationJob{}, types.OutcomeSkipped, errors.New("score too low"), start.Add(time.Second))

	require.NoError(t, rec.Record(context.Background(), a))
	require.Len(t, fake.execs, 1)
	call := fake.execs[0]
	assert.Contains(t, call.sql, "INSERT INTO application_attempts")
	require.Len(t, call.args, 13)
	assert.Equal(t, a.ID, call.args[0])
	assert.Equal(t, "skipped", call.args[4])
	assert.Equal(t, &score, call.args[5])
	assert.Equal(t, "score too low", call.args[6])
}

func TestPostgresRecorder_RecordError(t *testing.T) {
	cause := errors.New("connection reset")
	rec := &PostgresRecorder{db: &fakeQuerier{execErr: cause}}

	err := rec.Record(context.Background(), &Attempt{})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to record attempt")
}

func TestPostgresRecorder_EnsureSchema(t *testing.T) {
	fake := &fakeQuerier{}
	rec := &PostgresRecorder{db: fake}

	require.NoError(t, rec.EnsureSchema(context.Background()))
	require.Len(t, fake.execs, 1)
	assert.Equal(t, Schema, fake.execs[0].sql)
}

func TestPostgresRecorder_CloseWithoutPool(t *testing.T) {
	assert.NotPanics(t, func() { (&PostgresRecorder{}).Close() })
}
