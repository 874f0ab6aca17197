// Package answers caches previously given form answers and resolves new questions
// against the cache or the answer oracle.
package answers

import "fmt"

// OracleError represents a failed oracle call during answer resolution.
type OracleError struct {
	Operation string
	Question  string
	Cause     error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s failed for question %q: %v", e.Operation, e.Question, e.Cause)
}

func (e *OracleError) Unwrap() error {
	return e.Cause
}

// StoreError represents a failure persisting the answer cache.
type StoreError struct {
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("answer store error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("answer store error: %s", e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
