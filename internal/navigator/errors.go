package navigator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntryNotFound is returned when no entry strategy located a control on any pass.
	ErrEntryNotFound = errors.New("no clickable entry control found")
	// ErrNoAdvanceControl is returned when a step has no primary action control.
	ErrNoAdvanceControl = errors.New("advance control not found")
	// ErrTooManySteps is returned when a form keeps producing new steps past the step limit.
	ErrTooManySteps = errors.New("too many form steps")
)

// RedirectError is returned when the page stays on an off-topic destination
// after every attempt to return to the job.
type RedirectError struct {
	URL      string
	Attempts int
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirected to %s and failed to return after %d attempts", e.URL, e.Attempts)
}

// ValidationError carries the inline error texts shown after an advance.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form validation failed: %s", strings.Join(e.Messages, "; "))
}

// TransitionError is returned for a state change the machine does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}
