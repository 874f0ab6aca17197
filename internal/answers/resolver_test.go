package answers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/oracle"
	"github.com/jonathan/apply-agent/internal/oracle/oracletest"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memStore is an in-memory Store for resolver tests.
type memStore struct {
	mu      sync.Mutex
	records []types.QuestionRecord
	loadErr error
	appends int
}

func (m *memStore) Load(_ context.Context) ([]types.QuestionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]types.QuestionRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) Append(_ context.Context, record types.QuestionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	m.records = append(m.records, record)
	return nil
}

func licenseStore() *memStore {
	return &memStore{records: []types.QuestionRecord{
		{Type: types.FieldRadio, Question: "do you have a license?", Answer: "yes"},
	}}
}

func TestResolve_CacheHitWithOptions(t *testing.T) {
	fake := &oracletest.Fake{}
	resolver := NewResolver(licenseStore(), fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{
		Question: "Do you have a license?  ",
		Type:     types.FieldRadio,
		Options:  []string{"Yes", "No"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Yes", answer, "hit returns the offered option text")
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestResolve_TypeMismatchFallsThroughToOracle(t *testing.T) {
	fake := &oracletest.Fake{
		FreeText: func(string) (string, error) { return "I hold a class B license", nil },
	}
	store := licenseStore()
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{
		Question: "Do you have a license?",
		Type:     types.FieldTextbox,
	})
	require.NoError(t, err)
	assert.Equal(t, "I hold a class B license", answer)
	assert.Equal(t, 1, fake.Calls(oracle.OpAnswerFreeText))
	assert.Equal(t, 1, store.appends)
	assert.Equal(t, types.QuestionRecord{Type: types.FieldTextbox, Question: "Do you have a license?", Answer: "I hold a class B license"}, store.records[1])
}

func TestResolve_OptionConstraintRejectsHit(t *testing.T) {
	fake := &oracletest.Fake{
		FromOptions: func(_ string, options []string) (string, error) { return options[1], nil },
	}
	store := licenseStore()
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{
		Question: "do you have a license?",
		Type:     types.FieldRadio,
		Options:  []string{"Definitely", "Not at all"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Not at all", answer)
	assert.Equal(t, 1, fake.Calls(oracle.OpAnswerFromOptions))
	assert.Equal(t, 1, store.appends)
}

func TestResolve_FreeTextHitNeedsNoOptions(t *testing.T) {
	store := &memStore{records: []types.QuestionRecord{
		{Type: types.FieldTextbox, Question: "what is your current city?", Answer: "Lisbon"},
	}}
	fake := &oracletest.Fake{}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{Question: "What is your current city", Type: types.FieldTextbox})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", answer)
	assert.Equal(t, 0, fake.TotalCalls())
	assert.Equal(t, 0, store.appends)
}

func TestResolve_BelowThresholdIsMiss(t *testing.T) {
	store := &memStore{records: []types.QuestionRecord{
		{Type: types.FieldTextbox, Question: "what is your current city?", Answer: "Lisbon"},
	}}
	fake := &oracletest.Fake{FreeText: func(string) (string, error) { return "5 years", nil }}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{Question: "How many years of Go experience do you have?", Type: types.FieldTextbox})
	require.NoError(t, err)
	assert.Equal(t, "5 years", answer)
	assert.Equal(t, 1, fake.Calls(oracle.OpAnswerFreeText))
}

func TestResolve_NumericBypassesCache(t *testing.T) {
	store := &memStore{records: []types.QuestionRecord{
		{Type: types.FieldNumeric, Question: "years of experience with go", Answer: "3"},
	}}
	fake := &oracletest.Fake{Numeric: func(string) (string, error) { return "7", nil }}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{Question: "Years of experience with Go", Type: types.FieldNumeric})
	require.NoError(t, err)
	assert.Equal(t, "7", answer)
	assert.Equal(t, 1, fake.Calls(oracle.OpAnswerNumeric))
	assert.Equal(t, 0, store.appends, "numeric answers are not cached")
}

func TestResolve_OracleFailureIsWrapped(t *testing.T) {
	cause := errors.New("quota exhausted")
	fake := &oracletest.Fake{
		FromOptions: func(string, []string) (string, error) { return "", cause },
	}
	store := &memStore{}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	_, err := resolver.Resolve(context.Background(), Query{Question: "Relocate?", Type: types.FieldDropdown, Options: []string{"Yes", "No"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "quota exhausted")

	var oracleErr *OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.Equal(t, oracle.OpAnswerFromOptions, oracleErr.Operation)
	assert.Equal(t, 0, store.appends)
}

func TestResolve_LoadFailureTreatedAsEmpty(t *testing.T) {
	store := &memStore{loadErr: errors.New("redis down")}
	fake := &oracletest.Fake{FreeText: func(string) (string, error) { return "answer", nil }}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	answer, err := resolver.Resolve(context.Background(), Query{Question: "q", Type: types.FieldTextbox})
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
}

func TestResolveDate(t *testing.T) {
	want := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	fake := &oracletest.Fake{Date: func(string) (time.Time, error) { return want, nil }}
	store := &memStore{}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	got, err := resolver.ResolveDate(context.Background(), "Earliest start date")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 0, store.appends)

	fake.Date = func(string) (time.Time, error) { return time.Time{}, errors.New("bad date") }
	_, err = resolver.ResolveDate(context.Background(), "Earliest start date")
	var oracleErr *OracleError
	assert.ErrorAs(t, err, &oracleErr)
}

func TestBestMatch_FirstSeenMaximumWins(t *testing.T) {
	records := []types.QuestionRecord{
		{Type: types.FieldRadio, Question: "are you willing to relocate?", Answer: "first"},
		{Type: types.FieldTextbox, Question: "are you willing to relocate?", Answer: "other type"},
		{Type: types.FieldRadio, Question: "are you willing to relocate?", Answer: "second"},
	}

	match, ok := BestMatch(records, "Are you willing to relocate?", types.FieldRadio)
	require.True(t, ok)
	assert.Equal(t, "first", match.Record.Answer)
	assert.Equal(t, 1.0, match.Score)
}

func TestBestMatch_NoRecordsOfType(t *testing.T) {
	_, ok := BestMatch(licenseStore().records, "do you have a license?", types.FieldDropdown)
	assert.False(t, ok)
}

func TestIsHit_MonotonicInScore(t *testing.T) {
	record := types.QuestionRecord{Type: types.FieldRadio, Question: "q", Answer: "Yes"}
	options := []string{"yes", "no"}

	wasHit := false
	for score := 0.0; score <= 1.0; score += 0.01 {
		hit := IsHit(types.MatchResult{Record: record, Score: score}, DefaultThreshold, options)
		if wasHit {
			assert.True(t, hit, "score %.2f turned a hit into a miss", score)
		}
		wasHit = wasHit || hit
	}
	assert.True(t, wasHit)
}

func TestIsHit_Threshold(t *testing.T) {
	record := types.QuestionRecord{Answer: "Yes"}

	assert.True(t, IsHit(types.MatchResult{Record: record, Score: 0.85}, 0.85, nil))
	assert.False(t, IsHit(types.MatchResult{Record: record, Score: 0.849}, 0.85, nil))
	assert.True(t, IsHit(types.MatchResult{Record: record, Score: 0.9}, 0.85, []string{" YES "}))
	assert.False(t, IsHit(types.MatchResult{Record: record, Score: 0.9}, 0.85, []string{"No"}))
}

func TestNewResolver_ThresholdDefaults(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewResolver(&memStore{}, &oracletest.Fake{}, 0, nil).Threshold())
	assert.Equal(t, DefaultThreshold, NewResolver(&memStore{}, &oracletest.Fake{}, 1.5, nil).Threshold())
	assert.Equal(t, 0.9, NewResolver(&memStore{}, &oracletest.Fake{}, 0.9, nil).Threshold())
}

func TestResolve_EndToEndWithFileStore(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)
	fake := &oracletest.Fake{FromOptions: func(string, []string) (string, error) { return "No", nil }}
	resolver := NewResolver(store, fake, 0, zaptest.NewLogger(t))

	q := Query{Question: "Will you require sponsorship?", Type: types.FieldRadio, Options: []string{"Yes", "No"}}

	first, err := resolver.Resolve(ctx, q)
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, "No", first)
	assert.Equal(t, "No", second)
	assert.Equal(t, 1, fake.Calls(oracle.OpAnswerFromOptions), "second resolution is served from the cache")
}
