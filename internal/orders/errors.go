package orders

import (
	"errors"
	"fmt"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrNotAccepting = errors.New("the canteen is not taking orders right now")
	ErrNotStaff     = errors.New("staff access required")
)

// ValidationError reports missing or invalid caller input. Its message is
// surfaced to the user verbatim and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SubmissionError wraps a storage failure while placing an order. The
// caller sees a generic message and decides whether to resubmit.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to place order: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// UpdateError wraps a storage failure during a status transition.
type UpdateError struct {
	Err error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("failed to update order: %v", e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// TransitionError reports a disallowed lifecycle move. It is an error, not
// a silent no-op: stored status is left untouched.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}
