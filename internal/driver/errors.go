package driver

import "fmt"

// BrowserError wraps a failed browser action.
type BrowserError struct {
	Action string
	Target string
	Cause  error
}

func (e *BrowserError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("browser %s %q failed: %v", e.Action, e.Target, e.Cause)
	}
	return fmt.Sprintf("browser %s failed: %v", e.Action, e.Cause)
}

func (e *BrowserError) Unwrap() error {
	return e.Cause
}
