// Package errs defines the failure taxonomy shared by the client packages.
package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrBusy is returned when a submission is started while another is in flight.
	ErrBusy = errors.New("a task is already being submitted or polled")
	// ErrUnauthorized is matched by every UnauthorizedError.
	ErrUnauthorized = errors.New("invalid PIN code")
	// ErrTermNotFound is returned when deleting a term the server does not know.
	ErrTermNotFound = errors.New("term not found")
)

// ValidationError reports a rejected input before any request is made.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError is the single error shape for network and HTTP failures.
// Status is 0 when no response was received.
type TransportError struct {
	Method  string
	URL     string
	Status  int
	Body    []byte
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	if e.Status > 0 {
		fmt.Fprintf(&b, "API error (%d)", e.Status)
	} else {
		b.WriteString("request failed")
	}
	if e.Method != "" && e.URL != "" {
		fmt.Fprintf(&b, " %s %s", e.Method, e.URL)
	}
	switch {
	case e.Message != "":
		b.WriteString(": " + e.Message)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnauthorizedError wraps a 403 answer to a PIN-gated request.
type UnauthorizedError struct {
	Err error
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return "unauthorized: " + e.Err.Error()
	}
	return "unauthorized"
}

func (e *UnauthorizedError) Unwrap() error { return e.Err }

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// TaskFailure means the server reported status "error" for a task.
type TaskFailure struct {
	TaskID  string
	Message string
}

func (e *TaskFailure) Error() string {
	return "Task failed: " + e.Message
}

// TaskTimeout means the poll budget ran out before a terminal status.
type TaskTimeout struct {
	TaskID   string
	Polls    int
	Interval time.Duration
}

func (e *TaskTimeout) Error() string {
	return fmt.Sprintf("Task timed out after %d seconds", int((time.Duration(e.Polls) * e.Interval).Seconds()))
}

// PartialSaveFailure is returned by a bulk save when at least one side failed.
// A nil side succeeded and was not rolled back.
type PartialSaveFailure struct {
	Correction error
	Protection error
}

func (e *PartialSaveFailure) Error() string {
	var parts []string
	if e.Correction != nil {
		parts = append(parts, "correction: "+e.Correction.Error())
	}
	if e.Protection != nil {
		parts = append(parts, "protection: "+e.Protection.Error())
	}
	return "save dictionaries: " + strings.Join(parts, "; ")
}

func (e *PartialSaveFailure) Unwrap() []error {
	var out []error
	if e.Correction != nil {
		out = append(out, e.Correction)
	}
	if e.Protection != nil {
		out = append(out, e.Protection)
	}
	return out
}

// Applied reports which dictionaries were saved before the failure.
func (e *PartialSaveFailure) Applied() []string {
	var out []string
	if e.Correction == nil {
		out = append(out, "correction")
	}
	if e.Protection == nil {
		out = append(out, "protection")
	}
	return out
}
