package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind is a coarse error category used for exit messages and logging.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindValidation   Kind = "validation"
	KindTransport    Kind = "transport"
	KindTaskFailure  Kind = "task_failure"
	KindTaskTimeout  Kind = "task_timeout"
	KindUnauthorized Kind = "unauthorized"
	KindPartialSave  Kind = "partial_save"
	KindNotFound     Kind = "not_found"
	KindCanceled     Kind = "canceled"
	KindBusy         Kind = "busy"
)

// Classify maps err to a Kind using errors.Is / errors.As only.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	// cancellation first
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.Is(err, ErrUnauthorized) {
		return KindUnauthorized
	}
	if errors.Is(err, ErrBusy) {
		return KindBusy
	}
	if errors.Is(err, ErrTermNotFound) {
		return KindNotFound
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var tf *TaskFailure
	if errors.As(err, &tf) {
		return KindTaskFailure
	}
	var tt *TaskTimeout
	if errors.As(err, &tt) {
		return KindTaskTimeout
	}
	var ps *PartialSaveFailure
	if errors.As(err, &ps) {
		return KindPartialSave
	}
	var te *TransportError
	if errors.As(err, &te) {
		return KindTransport
	}
	return KindUnknown
}

// Message renders err as a user-facing line. Each Kind reads differently so
// a rejected PIN is never confused with a generic failure.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case KindUnauthorized:
		return "Invalid PIN code. Re-enter the PIN (--pin or SRTCTL_SERVER_PIN) and try again."
	case KindValidation:
		var ve *ValidationError
		errors.As(err, &ve)
		return "Invalid input: " + ve.Error()
	case KindTaskFailure:
		var tf *TaskFailure
		errors.As(err, &tf)
		return tf.Error()
	case KindTaskTimeout:
		var tt *TaskTimeout
		errors.As(err, &tt)
		return tt.Error() + ". The server may still be processing; check again later."
	case KindPartialSave:
		var ps *PartialSaveFailure
		errors.As(err, &ps)
		applied := ps.Applied()
		if len(applied) == 0 {
			return "Saving dictionaries failed: " + ps.Error()
		}
		return fmt.Sprintf("Saving dictionaries partly failed (%s saved, not rolled back): %s",
			strings.Join(applied, ", "), ps.Error())
	case KindNotFound:
		return "Term not found."
	case KindCanceled:
		return "Canceled."
	case KindBusy:
		return "A task is already running. Wait for it to finish or cancel it first."
	case KindTransport:
		var te *TransportError
		errors.As(err, &te)
		if te.Status == 0 {
			return "Cannot reach the correction service: " + te.Error()
		}
		return "Server error: " + te.Error()
	default:
		return "Error: " + err.Error()
	}
}
