// Package oracletest provides a scriptable Oracle for tests.
package oracletest

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/apply-agent/internal/oracle"
	"github.com/jonathan/apply-agent/internal/types"
)

// Fake is an oracle.Oracle whose answers come from function fields.
// Nil functions return zero values. Every call is counted by operation name.
type Fake struct {
	Score       func(description string) (int, error)
	FromOptions func(question string, options []string) (string, error)
	FreeText    func(question string) (string, error)
	Numeric     func(question string) (string, error)
	Date        func(question string) (time.Time, error)
	Upload      func(labelText string) (types.UploadKind, error)

	mu    sync.Mutex
	calls map[string]int
	Job   *types.ApplicationJob
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of oracle invocations of any kind.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// SetJob records the job the oracle was tailored to.
func (f *Fake) SetJob(job *types.ApplicationJob) {
	f.Job = job
}

func (f *Fake) ScoreJobMatch(_ context.Context, description string) (int, error) {
	f.record(oracle.OpScoreJobMatch)
	if f.Score == nil {
		return 100, nil
	}
	return f.Score(description)
}

func (f *Fake) AnswerFromOptions(_ context.Context, question string, options []string) (string, error) {
	f.record(oracle.OpAnswerFromOptions)
	if f.FromOptions == nil {
		if len(options) > 0 {
			return options[0], nil
		}
		return "", nil
	}
	return f.FromOptions(question, options)
}

func (f *Fake) AnswerFreeText(_ context.Context, question string) (string, error) {
	f.record(oracle.OpAnswerFreeText)
	if f.FreeText == nil {
		return "", nil
	}
	return f.FreeText(question)
}

func (f *Fake) AnswerNumeric(_ context.Context, question string) (string, error) {
	f.record(oracle.OpAnswerNumeric)
	if f.Numeric == nil {
		return "0", nil
	}
	return f.Numeric(question)
}

func (f *Fake) AnswerDate(_ context.Context, question string) (time.Time, error) {
	f.record(oracle.OpAnswerDate)
	if f.Date == nil {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return f.Date(question)
}

func (f *Fake) ClassifyUpload(_ context.Context, labelText string) (types.UploadKind, error) {
	f.record(oracle.OpClassifyUpload)
	if f.Upload == nil {
		return types.UploadUnknown, nil
	}
	return f.Upload(labelText)
}

var _ oracle.Oracle = (*Fake)(nil)
