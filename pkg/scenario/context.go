package scenario

import (
	"context"
	"errors"

	"github.com/entrhq/navcheck/pkg/navigation"
)

// StepContext is everything a step may touch. It is created per step and is
// only valid while that step runs.
type StepContext struct {
	Scenario string
	Step     string

	Session Session
	Checker *navigation.Checker
	Logger  navigation.Logger

	outcomes []navigation.VerificationOutcome
}

// Record adds a verification outcome to the step result.
func (sc *StepContext) Record(outcome navigation.VerificationOutcome) {
	sc.outcomes = append(sc.outcomes, outcome)
}

// Outcomes returns the outcomes recorded so far.
func (sc *StepContext) Outcomes() []navigation.VerificationOutcome {
	return sc.outcomes
}

// CheckLink runs one verification cycle and records its outcome. A cycle
// that completes without passing returns an *OutcomeError; skipped links
// pass. Driver and restoration errors are returned as they are.
func (sc *StepContext) CheckLink(ctx context.Context, spec navigation.LinkSpec) (navigation.VerificationOutcome, error) {
	outcome, err := sc.Checker.Check(ctx, spec)
	sc.Record(outcome)
	if err != nil {
		return outcome, err
	}
	if !outcome.Passed() && outcome.Status != navigation.StatusSkipped {
		return outcome, &OutcomeError{Outcome: outcome}
	}
	return outcome, nil
}

// ActiveURL returns the URL of the focused context.
func (sc *StepContext) ActiveURL() (string, error) {
	id, err := sc.Session.ActiveContext()
	if err != nil {
		return "", err
	}
	return sc.Session.CurrentURL(id)
}

// isRestorationFailure reports whether err leaves the session unusable.
func isRestorationFailure(err error) bool {
	return errors.Is(err, navigation.ErrRestoration)
}
