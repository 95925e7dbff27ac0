// File: internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrNotConnected      = errors.New("identity has no browser session")
	ErrRuntimeNotStarted = errors.New("browser I/O runtime not started")
	ErrRuntimeStopped    = errors.New("browser I/O runtime stopped")
	ErrSessionStillHeld  = errors.New("session for deleted index still registered")
)

// ConnectErrorKind classifies attach failures.
type ConnectErrorKind int

const (
	NoOpenContext ConnectErrorKind = iota + 1
	NoOpenPage
	TransportFailure
)

func (k ConnectErrorKind) String() string {
	switch k {
	case NoOpenContext:
		return "no open browser context"
	case NoOpenPage:
		return "no open page"
	case TransportFailure:
		return "transport failure"
	}
	return "unknown connect error"
}

// ConnectError is returned when attaching to a remote browser fails.
type ConnectError struct {
	Kind     ConnectErrorKind
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connect %s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("connect %s: %s", e.Endpoint, e.Kind)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Is matches another ConnectError by kind, so callers can test
// errors.Is(err, &ConnectError{Kind: NoOpenPage}).
func (e *ConnectError) Is(target error) bool {
	t, ok := target.(*ConnectError)
	return ok && t.Kind == e.Kind
}

// FieldFillError records a single field that could not be populated.
type FieldFillError struct {
	Field  string
	Index  int
	Reason string
}

func (e *FieldFillError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("field %s (input #%d): %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// OptionNotFoundError reports a dropdown option that had no visible match.
// Level is the zero-based cascade level, or -1 for independent fields.
type OptionNotFoundError struct {
	Level int
	Field string
	Label string
}

func (e *OptionNotFoundError) Error() string {
	if e.Level >= 0 {
		return fmt.Sprintf("level %d: option %q not found", e.Level+1, e.Label)
	}
	return fmt.Sprintf("%s: option %q not found", e.Field, e.Label)
}
