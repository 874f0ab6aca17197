// Package navigator moves an application through its form: it opens the form,
// advances step by step, recognizes submission, and recovers from redirects
// away from the job page.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

const (
	DefaultRedirectAttempts     = 3
	DefaultEntryRefreshAttempts = 2
	DefaultRedirectMarker       = "linkedin.com/premium"
)

// Selectors and labels of the application dialog.
const (
	PrimaryButtonSelector  = ".artdeco-button--primary"
	InlineErrorSelector    = ".artdeco-inline-feedback--error"
	DismissSelector        = ".artdeco-modal__dismiss"
	ConfirmDiscardSelector = ".artdeco-modal__confirm-dialog-btn"

	submitLabel   = "submit application"
	unfollowLabel = "to stay up to date with their page."
)

// Pacing is the randomized delay between UI actions.
type Pacing struct {
	Min time.Duration
	Max time.Duration
}

// DefaultPacing mirrors a person clicking through a form.
var DefaultPacing = Pacing{Min: 1500 * time.Millisecond, Max: 2500 * time.Millisecond}

// Wait sleeps for a random duration in [Min, Max], or until ctx is done.
func (p Pacing) Wait(ctx context.Context) error {
	d := p.Min
	if p.Max > p.Min {
		d += rand.N(p.Max - p.Min + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options tunes a Navigator. Zero values select the defaults, except Pacing,
// where zero means no delay, and MaxSteps, where zero means no step limit.
type Options struct {
	RedirectAttempts     int
	EntryRefreshAttempts int
	MaxSteps             int
	RedirectMarker       string
	Pacing               Pacing
	Strategies           []Strategy
}

func (o Options) withDefaults() Options {
	if o.RedirectAttempts <= 0 {
		o.RedirectAttempts = DefaultRedirectAttempts
	}
	if o.EntryRefreshAttempts <= 0 {
		o.EntryRefreshAttempts = DefaultEntryRefreshAttempts
	}
	if o.RedirectMarker == "" {
		o.RedirectMarker = DefaultRedirectMarker
	}
	if len(o.Strategies) == 0 {
		o.Strategies = DefaultEntryStrategies()
	}
	return o
}

// Navigator drives page-level movement through one browser tab.
type Navigator struct {
	page   driver.Driver
	opts   Options
	logger *zap.Logger
}

// New creates a Navigator for page.
func New(page driver.Driver, opts Options, logger *zap.Logger) *Navigator {
	return &Navigator{page: page, opts: opts.withDefaults(), logger: logging.OrNop(logger)}
}

// Options returns the effective options.
func (n *Navigator) Options() Options {
	return n.opts
}

// Pace waits for the configured pacing delay.
func (n *Navigator) Pace(ctx context.Context) error {
	return n.opts.Pacing.Wait(ctx)
}

// NewMachine returns a state machine for job that runs Guard before every transition.
func (n *Navigator) NewMachine(job *types.ApplicationJob) *Machine {
	return NewMachine(n.opts.MaxSteps, func(ctx context.Context) error {
		return n.Guard(ctx, job)
	})
}

// Guard returns the page to the job link while it sits on the off-topic
// redirect destination. It fails with *RedirectError once the attempts are spent.
func (n *Navigator) Guard(ctx context.Context, job *types.ApplicationJob) error {
	url, err := n.page.URL(ctx)
	if err != nil {
		n.logger.Warn("could not read page url, skipping redirect check", zap.Error(err))
		return nil
	}
	redirected := strings.Contains(url, n.opts.RedirectMarker)

	for attempt := 0; strings.Contains(url, n.opts.RedirectMarker) && attempt < n.opts.RedirectAttempts; attempt++ {
		n.logger.Warn("redirected away from job, returning",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
		)
		if err := n.page.Navigate(ctx, job.Link); err != nil {
			n.logger.Warn("navigation back to job failed", zap.Error(err))
		}
		if err := n.Pace(ctx); err != nil {
			return err
		}
		if url, err = n.page.URL(ctx); err != nil {
			return &driver.BrowserError{Action: "read url", Cause: err}
		}
	}

	if strings.Contains(url, n.opts.RedirectMarker) {
		n.logger.Error("could not return to job page", zap.String("url", url))
		metrics.Redirects.WithLabelValues("failed").Inc()
		return &RedirectError{URL: url, Attempts: n.opts.RedirectAttempts}
	}
	if redirected {
		metrics.Redirects.WithLabelValues("recovered").Inc()
	}
	return nil
}

// FindEntry locates the control that opens the application form. Every
// strategy is tried in order on each pass, and the page is refreshed between
// passes.
func (n *Navigator) FindEntry(ctx context.Context, job *types.ApplicationJob) (driver.Element, error) {
	for pass := 0; pass < n.opts.EntryRefreshAttempts; pass++ {
		if err := n.Guard(ctx, job); err != nil {
			return nil, err
		}
		n.scrollPage(ctx)

		for _, s := range n.opts.Strategies {
			el, err := s.locate(ctx, n.page)
			if err != nil {
				n.logger.Warn("entry strategy failed", zap.String("strategy", s.Name), zap.Error(err))
				continue
			}
			if el != nil {
				n.logger.Debug("entry control found", zap.String("strategy", s.Name), zap.Int("pass", pass+1))
				return el, nil
			}
		}

		if err := n.Guard(ctx, job); err != nil {
			return nil, err
		}
		if pass < n.opts.EntryRefreshAttempts-1 {
			n.logger.Debug("entry control not found, refreshing")
			if err := n.page.Refresh(ctx); err != nil {
				n.logger.Warn("refresh failed", zap.Error(err))
			}
			if err := n.Pace(ctx); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w after %d passes", ErrEntryNotFound, n.opts.EntryRefreshAttempts)
}

// Advance clicks the primary action of the current step. It reports true when
// that action submitted the application. After a non-final click the step is
// checked for inline validation errors, returned as *ValidationError.
func (n *Navigator) Advance(ctx context.Context) (bool, error) {
	button, err := driver.FindFirst(ctx, n.page, PrimaryButtonSelector)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrNoAdvanceControl, err)
	}
	label := strings.ToLower(driver.TextOf(ctx, button))

	if strings.Contains(label, submitLabel) {
		n.logger.Debug("submit control found")
		n.unfollow(ctx)
		if err := n.Pace(ctx); err != nil {
			return false, err
		}
		if err := driver.ClickWithFallback(ctx, button); err != nil {
			return false, &driver.BrowserError{Action: "click", Target: PrimaryButtonSelector, Cause: err}
		}
		return true, n.Pace(ctx)
	}

	if err := n.Pace(ctx); err != nil {
		return false, err
	}
	if err := driver.ClickWithFallback(ctx, button); err != nil {
		return false, &driver.BrowserError{Action: "click", Target: PrimaryButtonSelector, Cause: err}
	}
	if err := n.Pace(ctx); err != nil {
		return false, err
	}
	return false, n.checkErrors(ctx)
}

func (n *Navigator) checkErrors(ctx context.Context) error {
	elems, err := n.page.Find(ctx, InlineErrorSelector)
	if err != nil {
		n.logger.Warn("could not check for validation errors", zap.Error(err))
		return nil
	}
	if len(elems) == 0 {
		return nil
	}
	messages := make([]string, 0, len(elems))
	for _, el := range elems {
		messages = append(messages, driver.TextOf(ctx, el))
	}
	n.logger.Error("form submission errors", zap.Strings("messages", messages))
	return &ValidationError{Messages: messages}
}

// unfollow clears the follow-company checkbox. Failures are ignored.
func (n *Navigator) unfollow(ctx context.Context) {
	labels, err := n.page.Find(ctx, "label")
	if err != nil {
		return
	}
	matched := driver.FilterText(ctx, labels, func(text string) bool {
		return strings.Contains(normalizeSpace(text), unfollowLabel)
	})
	if len(matched) == 0 {
		return
	}
	if err := matched[0].Click(ctx); err != nil {
		n.logger.Debug("unfollow failed", zap.Error(err))
	}
}

// Discard dismisses the application dialog and confirms the discard. It is
// best effort; failures are logged.
func (n *Navigator) Discard(ctx context.Context) {
	n.logger.Debug("discarding application")
	if err := n.clickFirst(ctx, DismissSelector); err != nil {
		n.logger.Warn("failed to discard application", zap.Error(err))
		return
	}
	_ = n.Pace(ctx)
	if err := n.clickFirst(ctx, ConfirmDiscardSelector); err != nil {
		n.logger.Warn("failed to confirm discard", zap.Error(err))
		return
	}
	_ = n.Pace(ctx)
}

func (n *Navigator) clickFirst(ctx context.Context, selector string) error {
	el, err := driver.FindFirst(ctx, n.page, selector)
	if err != nil {
		return &driver.BrowserError{Action: "find", Target: selector, Cause: err}
	}
	if err := el.Click(ctx); err != nil {
		return &driver.BrowserError{Action: "click", Target: selector, Cause: err}
	}
	return nil
}

func (n *Navigator) scrollPage(ctx context.Context) {
	err := errors.Join(
		n.page.Execute(ctx, driver.ScriptScrollToEnd),
		n.page.Execute(ctx, driver.ScriptScrollToTop),
	)
	if err != nil {
		n.logger.Debug("page scroll failed", zap.Error(err))
	}
}
