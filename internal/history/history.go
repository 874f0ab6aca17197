// Package history records the outcome of every application attempt, either as
// JSON lines on disk or as rows in PostgreSQL.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/apply-agent/internal/types"
)

// Attempt is one application attempt and how it ended.
type Attempt struct {
	ID              uuid.UUID     `json:"id"`
	Link            string        `json:"link"`
	Title           string        `json:"title"`
	Company         string        `json:"company,omitempty"`
	Outcome         types.Outcome `json:"outcome"`
	Score           *int          `json:"score,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	Steps           int           `json:"steps"`
	RecruiterLink   string        `json:"recruiter_link,omitempty"`
	ResumePath      string        `json:"resume_path,omitempty"`
	CoverLetterPath string        `json:"cover_letter_path,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
}

// NewAttempt starts an attempt for job.
func NewAttempt(job *types.ApplicationJob, startedAt time.Time) *Attempt {
	return &Attempt{
		ID:        uuid.New(),
		Link:      job.Link,
		Title:     job.Title,
		Company:   job.Company,
		StartedAt: startedAt,
	}
}

// Finish copies what the attempt learned about job and stamps the outcome.
// A non-nil err becomes the reason.
func (a *Attempt) Finish(job *types.ApplicationJob, outcome types.Outcome, err error, finishedAt time.Time) {
	a.Outcome = outcome
	if err != nil {
		a.Reason = err.Error()
	}
	a.RecruiterLink = job.RecruiterLink
	a.ResumePath = job.ResumePath
	a.CoverLetterPath = job.CoverLetterPath
	a.FinishedAt = finishedAt
}

// Duration is how long the attempt ran.
func (a *Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// Recorder persists finished attempts.
type Recorder interface {
	Record(ctx context.Context, attempt *Attempt) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *Attempt) error { return nil }

// Nop discards every attempt.
var Nop Recorder = nopRecorder{}
