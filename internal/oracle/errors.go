package oracle

import "fmt"

// ResponseError is returned when a model reply cannot be turned into an answer.
type ResponseError struct {
	Operation string
	Response  string
	Cause     error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: unusable model response %q: %v", e.Operation, e.Response, e.Cause)
	}
	return fmt.Sprintf("%s: unusable model response %q", e.Operation, e.Response)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}
