// Package oracle defines the answer oracle contract and its LLM-backed implementation.
package oracle

import (
	"context"
	"time"

	"github.com/jonathan/apply-agent/internal/types"
)

// Oracle produces answers the cache cannot supply. Every call is a blocking
// request/response and may fail; failures are returned unchanged to the caller.
type Oracle interface {
	// ScoreJobMatch rates how well the candidate fits the job description, 0-100.
	ScoreJobMatch(ctx context.Context, description string) (int, error)
	// AnswerFromOptions picks one of options for question.
	AnswerFromOptions(ctx context.Context, question string, options []string) (string, error)
	// AnswerFreeText writes an open-text answer.
	AnswerFreeText(ctx context.Context, question string) (string, error)
	// AnswerNumeric answers with a number rendered as a string.
	AnswerNumeric(ctx context.Context, question string) (string, error)
	// AnswerDate answers with a calendar date.
	AnswerDate(ctx context.Context, question string) (time.Time, error)
	// ClassifyUpload places a file upload control as resume, cover letter or unknown.
	ClassifyUpload(ctx context.Context, labelText string) (types.UploadKind, error)
}

// JobSetter is implemented by oracles that tailor answers to the job being applied to.
type JobSetter interface {
	SetJob(job *types.ApplicationJob)
}

// Operation names used in logs and metrics.
const (
	OpScoreJobMatch     = "score_job_match"
	OpAnswerFromOptions = "answer_from_options"
	OpAnswerFreeText    = "answer_free_text"
	OpAnswerNumeric     = "answer_numeric"
	OpAnswerDate        = "answer_date"
	OpClassifyUpload    = "classify_upload"
)
