package scenario

import (
	"errors"
	"fmt"

	"github.com/entrhq/navcheck/pkg/navigation"
)

var (
	// ErrAssertion marks a step that ran but whose expectation did not hold.
	ErrAssertion = errors.New("assertion failed")

	// ErrPrecondition marks a step whose required state could not be
	// established.
	ErrPrecondition = errors.New("precondition not met")

	// ErrSessionInvalid is reported for steps that were not run because an
	// earlier restoration failure left the session in an unknown state.
	ErrSessionInvalid = errors.New("session is invalid")

	// ErrSessionNotStarted is reported when steps run before Start.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrSessionBusy is reported when a step is run while another is still
	// running on the same session.
	ErrSessionBusy = errors.New("session is busy")
)

// Assertf returns an ErrAssertion with a formatted message.
func Assertf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAssertion, fmt.Sprintf(format, args...))
}

// OutcomeError reports a link verification that did not pass.
type OutcomeError struct {
	Outcome navigation.VerificationOutcome
}

func (e *OutcomeError) Error() string {
	o := e.Outcome
	if o.Detail != "" {
		return fmt.Sprintf("link %q: %s: %s", o.Link.Href, o.Status, o.Detail)
	}
	return fmt.Sprintf("link %q: %s", o.Link.Href, o.Status)
}

// Unwrap lets errors.Is match ErrAssertion.
func (e *OutcomeError) Unwrap() error {
	return ErrAssertion
}

// PreconditionError reports which precondition failed and why.
type PreconditionError struct {
	Name string
	Err  error
}

func (e *PreconditionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("precondition %q not met", e.Name)
	}
	return fmt.Sprintf("precondition %q not met: %v", e.Name, e.Err)
}

// Unwrap returns ErrPrecondition and the underlying cause.
func (e *PreconditionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPrecondition}
	}
	return []error{ErrPrecondition, e.Err}
}
