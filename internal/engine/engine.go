// Package engine applies to one job at a time: it opens the application form,
// fills every step, advances until the form is submitted, and discards the
// application when anything fatal happens along the way.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/history"
	"github.com/jonathan/apply-agent/internal/jobpage"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/navigator"
	"github.com/jonathan/apply-agent/internal/oracle"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// DefaultScoreThreshold is the lowest job match score that is applied to.
const DefaultScoreThreshold = 70

// Stages reported in progress events and ApplyError.
const (
	StageOpen    = "open"
	StageScore   = "score"
	StageFill    = "fill"
	StageAdvance = "advance"
)

// ProgressEvent describes a step of an application attempt.
type ProgressEvent struct {
	Link    string          `json:"link"`
	State   navigator.State `json:"state"`
	Step    int             `json:"step"`
	Message string          `json:"message"`
}

// ProgressCallback is called as an attempt moves through its states.
type ProgressCallback func(event ProgressEvent)

// Options tunes an Engine.
type Options struct {
	// ScoreThreshold defaults to DefaultScoreThreshold when zero.
	ScoreThreshold int
	OnProgress     ProgressCallback
}

// Components are the collaborators an Engine drives. Recorder may be nil.
type Components struct {
	Page       driver.Driver
	Oracle     oracle.Oracle
	Navigator  *navigator.Navigator
	Classifier *forms.Classifier
	Filler     *forms.Filler
	Reader     *jobpage.Reader
	Recorder   history.Recorder
}

// Engine runs application attempts against one browser tab.
type Engine struct {
	c      Components
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates an Engine.
func New(c Components, opts Options, logger *zap.Logger) *Engine {
	if opts.ScoreThreshold == 0 {
		opts.ScoreThreshold = DefaultScoreThreshold
	}
	if c.Recorder == nil {
		c.Recorder = history.Nop
	}
	return &Engine{c: c, opts: opts, logger: logging.OrNop(logger), now: time.Now}
}

// Apply runs one attempt for job. It returns OutcomeSkipped with a *SkipError
// when the job scores below the threshold, OutcomeFailed with an *ApplyError
// when the attempt aborts, and OutcomeApplied otherwise.
func (e *Engine) Apply(ctx context.Context, job *types.ApplicationJob) (types.Outcome, error) {
	logger := e.logger.With(zap.String("title", job.Title), zap.String("link", job.Link))
	attempt := history.NewAttempt(job, e.now())

	outcome, err := e.apply(ctx, job, attempt, logger)

	attempt.Finish(job, outcome, err, e.now())
	if recErr := e.c.Recorder.Record(ctx, attempt); recErr != nil {
		logger.Warn("failed to record attempt", zap.Error(recErr))
	}
	metrics.Applications.WithLabelValues(string(outcome)).Inc()
	metrics.ApplicationDuration.WithLabelValues(string(outcome)).Observe(attempt.Duration().Seconds())

	switch outcome {
	case types.OutcomeApplied:
		logger.Info("application submitted", zap.Int("steps", attempt.Steps))
	case types.OutcomeSkipped:
		logger.Warn("skipping job", zap.Error(err))
	default:
		logger.Error("application failed", zap.Error(err))
	}
	return outcome, err
}

func (e *Engine) apply(ctx context.Context, job *types.ApplicationJob, attempt *history.Attempt, logger *zap.Logger) (types.Outcome, error) {
	m := e.c.Navigator.NewMachine(job)
	defer func() { attempt.Steps = m.Steps() }()

	entry, err := e.open(ctx, job)
	if err != nil {
		return e.fail(ctx, job, m, StageOpen, err)
	}

	score, err := e.score(ctx, job)
	if err != nil {
		return e.fail(ctx, job, m, StageScore, err)
	}
	attempt.Score = &score
	if score < e.opts.ScoreThreshold {
		return types.OutcomeSkipped, &SkipError{Score: score, Threshold: e.opts.ScoreThreshold}
	}

	if job.RecruiterLink == "" {
		job.RecruiterLink = e.c.Reader.RecruiterLink(ctx)
	}
	if err := driver.ClickWithFallback(ctx, entry); err != nil {
		return e.fail(ctx, job, m, StageOpen, &driver.BrowserError{Action: "click", Target: "entry control", Cause: err})
	}
	if setter, ok := e.c.Oracle.(oracle.JobSetter); ok {
		setter.SetJob(job)
	}

	if err := e.to(ctx, job, m, navigator.FillingStep); err != nil {
		return e.fail(ctx, job, m, StageOpen, err)
	}
	for {
		if err := e.fillStep(ctx, job, logger); err != nil {
			return e.fail(ctx, job, m, StageFill, err)
		}
		if err := e.to(ctx, job, m, navigator.Advancing); err != nil {
			return e.fail(ctx, job, m, StageAdvance, err)
		}
		submitted, err := e.c.Navigator.Advance(ctx)
		if err != nil {
			return e.fail(ctx, job, m, StageAdvance, err)
		}
		if submitted {
			if err := e.to(ctx, job, m, navigator.Submitted); err != nil {
				return e.fail(ctx, job, m, StageAdvance, err)
			}
			metrics.StepsPerApplication.Observe(float64(m.Steps()))
			return types.OutcomeApplied, nil
		}
		if err := e.to(ctx, job, m, navigator.FillingStep); err != nil {
			return e.fail(ctx, job, m, StageAdvance, err)
		}
	}
}

// open loads the job page and locates the entry control.
func (e *Engine) open(ctx context.Context, job *types.ApplicationJob) (driver.Element, error) {
	if err := e.c.Page.Navigate(ctx, job.Link); err != nil {
		return nil, &driver.BrowserError{Action: "navigate", Target: job.Link, Cause: err}
	}
	if err := e.c.Navigator.Pace(ctx); err != nil {
		return nil, err
	}
	if err := e.c.Navigator.Guard(ctx, job); err != nil {
		return nil, err
	}
	if err := e.c.Page.Execute(ctx, driver.ScriptBlurActive); err != nil {
		e.logger.Debug("blur failed", zap.Error(err))
	}
	e.emit(job, navigator.AwaitingEntry, 0, "searching for entry control")
	return e.c.Navigator.FindEntry(ctx, job)
}

// score reads the description when the job does not carry one and rates the match.
func (e *Engine) score(ctx context.Context, job *types.ApplicationJob) (int, error) {
	if !job.HasDescription() {
		description, err := e.c.Reader.Description(ctx)
		if err != nil {
			return 0, err
		}
		job.Description = description
	}
	score, err := e.c.Oracle.ScoreJobMatch(ctx, job.Description)
	if err != nil {
		return 0, fmt.Errorf("score job match: %w", err)
	}
	e.logger.Debug("job scored", zap.Int("score", score))
	return score, nil
}

// fillStep fills every recognized field of the current step. Upload sections
// go to the uploader; unrecognized sections are skipped.
func (e *Engine) fillStep(ctx context.Context, job *types.ApplicationJob, logger *zap.Logger) error {
	container, err := forms.Container(ctx, e.c.Page)
	if err != nil {
		logger.Warn("no form container on step", zap.Error(err))
		return nil
	}
	sections, err := forms.Sections(ctx, container)
	if err != nil {
		logger.Warn("could not enumerate form sections", zap.Error(err))
		return nil
	}

	for _, section := range sections {
		if forms.HasUpload(ctx, section) {
			uploads, err := forms.Uploads(ctx, section)
			if err != nil {
				logger.Warn("could not read upload controls", zap.Error(err))
				continue
			}
			for _, upload := range uploads {
				if err := e.c.Filler.Fill(ctx, job, upload); err != nil {
					return err
				}
			}
			continue
		}

		variant, ok := e.c.Classifier.Classify(ctx, section)
		if !ok {
			continue
		}
		if err := e.c.Filler.Fill(ctx, job, variant); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) to(ctx context.Context, job *types.ApplicationJob, m *navigator.Machine, next navigator.State) error {
	if err := m.To(ctx, next); err != nil {
		return err
	}
	e.emit(job, next, m.Steps(), "")
	return nil
}

// fail aborts the attempt and discards the application exactly once.
func (e *Engine) fail(ctx context.Context, job *types.ApplicationJob, m *navigator.Machine, stage string, cause error) (types.Outcome, error) {
	if m.Abort() {
		e.emit(job, navigator.Aborted, m.Steps(), cause.Error())
		e.c.Navigator.Discard(ctx)
	}
	return types.OutcomeFailed, &ApplyError{Title: job.Title, Link: job.Link, Stage: stage, Cause: cause}
}

func (e *Engine) emit(job *types.ApplicationJob, state navigator.State, step int, message string) {
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(ProgressEvent{Link: job.Link, State: state, Step: step, Message: message})
	}
}
