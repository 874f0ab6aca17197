package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAttempt_Lifecycle(t *testing.T) {
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	job := &types.ApplicationJob{Link: "https://example.com/jobs/1", Title: "SRE", Company: "Acme"}

	a := NewAttempt(job, start)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "SRE", a.Title)
	assert.Equal(t, "Acme", a.Company)

	job.ResumePath = "/tmp/resume.pdf"
	job.RecruiterLink = "https://www.linkedin.com/in/r"
	a.Finish(job, types.OutcomeFailed, errors.New("form validation failed"), start.Add(90*time.Second))

	assert.Equal(t, types.OutcomeFailed, a.Outcome)
	assert.Equal(t, "form validation failed", a.Reason)
	assert.Equal(t, "/tmp/resume.pdf", a.ResumePath)
	assert.Equal(t, "https://www.linkedin.com/in/r", a.RecruiterLink)
	assert.Equal(t, 90*time.Second, a.Duration())
}

func TestAttempt_FinishWithoutError(t *testing.T) {
	a := NewAttempt(&types.ApplicationJob{Link: "l", Title: "t"}, time.Now())
	a.Finish(&types.ApplicationJob{}, types.OutcomeApplied, nil, time.Now())
	assert.Empty(t, a.Reason)
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, Nop.Record(context.Background(), &Attempt{}))
}
