package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecorder_RecordAndLoad(t *testing.T) {
	ctx := context.Background()
	rec := NewFileRecorder(filepath.Join(t.TempDir(), "nested", "history.jsonl"))
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	score := 82

	first := NewAttempt(&types.ApplicationJob{Link: "https://example.com/1", Title: "One"}, start)
	first.Score = &score
	first.Finish(&types.ApplicationJob{}, types.OutcomeApplied, nil, start.Add(time.Minute))
	second := NewAttempt(&types.ApplicationJob{Link: "https://example.com/2", Title: "Two"}, start)
	second.Finish(&types.ApplicationJob{}, types.OutcomeSkipped, nil, start.Add(time.Minute))

	require.NoError(t, rec.Record(ctx, first))
	require.NoError(t, rec.Record(ctx, second))

	attempts, err := rec.Load(ctx)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, first.ID, attempts[0].ID)
	assert.Equal(t, 82, *attempts[0].Score)
	assert.Equal(t, types.OutcomeSkipped, attempts[1].Outcome)
	assert.Nil(t, attempts[1].Score)
	assert.True(t, attempts[0].StartedAt.Equal(start))
}

func TestFileRecorder_LoadMissingFile(t *testing.T) {
	rec := NewFileRecorder(filepath.Join(t.TempDir(), "history.jsonl"))

	attempts, err := rec.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestFileRecorder_LoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"title":"ok","outcome":"applied"}` + "\n" + "not json\n" + `{"title":"also ok","outcome":"failed"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	attempts, err := NewFileRecorder(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "also ok", attempts[1].Title)
}

func TestFileRecorder_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewFileRecorder("").Path())
}
