// Package rendering turns cover letter text into a one-page PDF through LaTeX.
package rendering

import "fmt"

// TemplateError represents an error parsing or executing a LaTeX template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// CompilationError represents a LaTeX compilation failure
type CompilationError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *CompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LaTeX compilation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("LaTeX compilation error: %s", e.Message)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}
