package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/entrhq/navcheck/pkg/navigation"
)

// Session is the browsing session steps drive. *browser.Session and
// *browsertest.Browser implement it.
type Session interface {
	navigation.Driver
	navigation.Navigator

	// Goto navigates the active context.
	Goto(url string) error

	// Fill types value into the element matching selector.
	Fill(selector, value string) error

	// WaitFor waits until selector is present in the active context.
	WaitFor(selector string, timeout time.Duration) error

	// Attribute reads an attribute of the element matching selector.
	Attribute(selector, name string) (string, error)

	// Content returns the active context's HTML.
	Content() (string, error)

	// Quit ends the session.
	Quit() error
}

// Opener creates the session an Orchestrator runs on.
type Opener func(ctx context.Context) (Session, error)

// StepFunc performs one step. A nil error means the step passed.
type StepFunc func(ctx context.Context, sc *StepContext) error

// Step is one named action in a scenario.
type Step struct {
	Name string

	// Requires lists preconditions, by name, checked before Run.
	Requires []string

	Run StepFunc
}

// Scenario is an ordered list of steps. Steps are never reordered.
type Scenario struct {
	Name  string
	Steps []Step
}

// Precondition is a named session state that steps can require.
type Precondition struct {
	Name string

	// Check reports whether the state currently holds.
	Check func(ctx context.Context, sc *StepContext) (bool, error)

	// Establish brings the session into the state.
	Establish StepFunc
}

// StepState is the lifecycle state of a step.
type StepState int

const (
	NotRun StepState = iota
	Running
	Passed
	Failed
)

func (s StepState) String() string {
	switch s {
	case NotRun:
		return "not_run"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in reports.
func (s StepState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StepResult is what happened to one step.
type StepResult struct {
	Scenario string                           `json:"scenario"`
	Step     string                           `json:"step"`
	State    StepState                        `json:"state"`
	Err      error                            `json:"-"`
	Reason   string                           `json:"reason,omitempty"`
	Outcomes []navigation.VerificationOutcome `json:"outcomes,omitempty"`
	Started  time.Time                        `json:"started,omitempty"`
	Duration time.Duration                    `json:"-"`
}

// FullName is "scenario/step".
func (r StepResult) FullName() string {
	return r.Scenario + "/" + r.Step
}

// MarshalJSON adds the error text and duration in milliseconds.
func (r StepResult) MarshalJSON() ([]byte, error) {
	type plain StepResult
	out := struct {
		plain
		Error      string `json:"error,omitempty"`
		DurationMs int64  `json:"duration_ms"`
	}{
		plain:      plain(r),
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// ScenarioResult collects the step results of one scenario, in order.
type ScenarioResult struct {
	Name   string       `json:"name"`
	Steps  []StepResult `json:"steps"`
	Halted bool         `json:"halted,omitempty"`
}

// Passed reports whether every step passed.
func (r ScenarioResult) Passed() bool {
	for _, s := range r.Steps {
		if s.State != Passed {
			return false
		}
	}
	return true
}

// Counts tallies steps by final state.
type Counts struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	NotRun int `json:"not_run"`
}

// Total is the number of steps counted.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.NotRun
}

// Tally counts the steps of results by state.
func Tally(results ...ScenarioResult) Counts {
	var c Counts
	for _, r := range results {
		for _, s := range r.Steps {
			switch s.State {
			case Passed:
				c.Passed++
			case Failed:
				c.Failed++
			default:
				c.NotRun++
			}
		}
	}
	return c
}
