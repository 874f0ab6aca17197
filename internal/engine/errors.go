package engine

import "fmt"

// SkipError is returned when a job is gated out before the form is touched.
// It is an outcome, not a failure.
type SkipError struct {
	Score     int
	Threshold int
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("job match score %d is below threshold %d", e.Score, e.Threshold)
}

// ApplyError is returned when an application attempt aborts. Cause is the
// underlying failure, unmodified.
type ApplyError struct {
	Title string
	Link  string
	Stage string
	Cause error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply to %q during %s: %v", e.Title, e.Stage, e.Cause)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}
