package answers

import (
	"context"
	"time"

	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/oracle"
	"github.com/jonathan/apply-agent/internal/textmatch"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// DefaultThreshold is the minimum similarity for a cached answer to count as a hit.
const DefaultThreshold = 0.85

// Query is one question to resolve. Options constrains the answer for radio
// and dropdown fields; it is empty for free text.
type Query struct {
	Question string
	Type     types.FieldType
	Options  []string
}

// Resolver answers questions from the Store when a close enough record exists
// and from the Oracle otherwise, writing oracle answers back to the Store.
type Resolver struct {
	store     Store
	oracle    oracle.Oracle
	threshold float64
	logger    *zap.Logger
}

// NewResolver creates a Resolver. A threshold outside (0,1] falls back to DefaultThreshold.
func NewResolver(store Store, o oracle.Oracle, threshold float64, logger *zap.Logger) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Resolver{store: store, oracle: o, threshold: threshold, logger: logging.OrNop(logger)}
}

// Threshold returns the similarity threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// BestMatch scans records of fieldType and returns the highest scoring one.
// The first record seen wins ties. ok is false when no record has fieldType.
func BestMatch(records []types.QuestionRecord, question string, fieldType types.FieldType) (types.MatchResult, bool) {
	normalized := textmatch.Normalize(question)
	var best types.MatchResult
	found := false
	for _, record := range records {
		if record.Type != fieldType {
			continue
		}
		score := textmatch.Ratio(normalized, record.Question)
		if !found || score > best.Score {
			best = types.MatchResult{Record: record, Score: score}
			found = true
		}
	}
	return best, found
}

// IsHit reports whether a match is usable: score at or above threshold and, when
// options are given, the cached answer equals one of them ignoring case and spacing.
func IsHit(match types.MatchResult, threshold float64, options []string) bool {
	if match.Score < threshold {
		return false
	}
	if len(options) == 0 {
		return true
	}
	return textmatch.IndexOption(match.Record.Answer, options) >= 0
}

// Lookup returns the best cached match for q and whether it is a hit.
func (r *Resolver) Lookup(ctx context.Context, q Query) (types.MatchResult, bool) {
	records, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Warn("answer cache load failed, treating as empty", zap.Error(err))
		return types.MatchResult{}, false
	}
	match, found := BestMatch(records, q.Question, q.Type)
	if !found {
		return types.MatchResult{}, false
	}
	return match, IsHit(match, r.threshold, q.Options)
}

// Resolve returns an answer for q. On a cache hit with options the offered
// option text is returned so callers can select it verbatim.
func (r *Resolver) Resolve(ctx context.Context, q Query) (string, error) {
	if q.Type == types.FieldNumeric {
		return r.ask(ctx, q)
	}

	match, hit := r.Lookup(ctx, q)
	if hit {
		metrics.AnswerLookups.WithLabelValues(string(q.Type), "hit").Inc()
		r.logger.Debug("answer cache hit",
			zap.String("question", q.Question),
			zap.String("matched", match.Record.Question),
			zap.Float64("score", match.Score))
		if idx := textmatch.IndexOption(match.Record.Answer, q.Options); idx >= 0 {
			return q.Options[idx], nil
		}
		return match.Record.Answer, nil
	}
	metrics.AnswerLookups.WithLabelValues(string(q.Type), "miss").Inc()

	answer, err := r.ask(ctx, q)
	if err != nil {
		return "", err
	}

	record := types.QuestionRecord{Type: q.Type, Question: q.Question, Answer: answer}
	if err := r.store.Append(ctx, record); err != nil {
		r.logger.Warn("failed to cache answer", zap.String("question", q.Question), zap.Error(err))
	}
	return answer, nil
}

// ResolveDate asks the oracle for a date. Dates are never cached.
func (r *Resolver) ResolveDate(ctx context.Context, question string) (time.Time, error) {
	date, err := r.oracle.AnswerDate(ctx, question)
	observeOracle(oracle.OpAnswerDate, err)
	if err != nil {
		return time.Time{}, &OracleError{Operation: oracle.OpAnswerDate, Question: question, Cause: err}
	}
	return date, nil
}

func (r *Resolver) ask(ctx context.Context, q Query) (string, error) {
	var (
		op     string
		answer string
		err    error
	)
	switch {
	case q.Type == types.FieldNumeric:
		op = oracle.OpAnswerNumeric
		answer, err = r.oracle.AnswerNumeric(ctx, q.Question)
	case len(q.Options) > 0:
		op = oracle.OpAnswerFromOptions
		answer, err = r.oracle.AnswerFromOptions(ctx, q.Question, q.Options)
	default:
		op = oracle.OpAnswerFreeText
		answer, err = r.oracle.AnswerFreeText(ctx, q.Question)
	}
	observeOracle(op, err)
	if err != nil {
		return "", &OracleError{Operation: op, Question: q.Question, Cause: err}
	}
	return answer, nil
}

func observeOracle(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OracleCalls.WithLabelValues(op, status).Inc()
}
