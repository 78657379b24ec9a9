package browser

import "fmt"

// SessionStartError wraps any failure while launching the automation engine
// or preparing the landing page. It is fatal to the whole run: no batch
// starts without a usable session.
type SessionStartError struct {
	Err error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("session start: %v", e.Err)
}

func (e *SessionStartError) Unwrap() error { return e.Err }

func startError(format string, args ...interface{}) error {
	return &SessionStartError{Err: fmt.Errorf(format, args...)}
}
