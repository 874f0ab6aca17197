// Package attach supplies documents for file upload controls: an existing
// resume, a resume generated for the job, or a rendered cover letter.
package attach

import "fmt"

// GenerationError is returned when the resume generation service fails.
type GenerationError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("resume generation failed: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("resume generation failed: %s", msg)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// AttachError wraps a failure to provide a document for an upload control.
type AttachError struct {
	Kind  string
	Label string
	Cause error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach %s for %q: %v", e.Kind, e.Label, e.Cause)
}

func (e *AttachError) Unwrap() error {
	return e.Cause
}
