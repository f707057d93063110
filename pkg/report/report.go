// Package report collects the results of a navcheck run and writes them as
// artifacts and as a console summary.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/navcheck/pkg/navigation"
	"github.com/entrhq/navcheck/pkg/scenario"
)

// Run statuses
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusError  = "error"
)

// Report is the complete record of one run.
type Report struct {
	RunID      string                    `json:"run_id"`
	Suite      string                    `json:"suite"`
	BaseURL    string                    `json:"base_url,omitempty"`
	Status     string                    `json:"status"`
	Error      string                    `json:"error,omitempty"`
	StartTime  time.Time                 `json:"start_time"`
	EndTime    time.Time                 `json:"end_time"`
	Duration   time.Duration             `json:"duration"`
	Steps      scenario.Counts           `json:"steps"`
	Links      LinkCounts                `json:"links"`
	Filtered   []string                  `json:"filtered,omitempty"`
	Scenarios  []scenario.ScenarioResult `json:"scenarios"`
	SessionLog string                    `json:"session_log,omitempty"`
}

// LinkCounts tallies verification outcomes by status.
type LinkCounts struct {
	Verified     int `json:"verified"`
	HostMismatch int `json:"host_mismatch"`
	Timeout      int `json:"timeout"`
	Ambiguous    int `json:"ambiguous"`
	Skipped      int `json:"skipped"`
}

// Total is the number of outcomes counted.
func (c LinkCounts) Total() int {
	return c.Verified + c.HostMismatch + c.Timeout + c.Ambiguous + c.Skipped
}

func (c *LinkCounts) add(o navigation.VerificationOutcome) {
	switch o.Status {
	case navigation.StatusVerified:
		c.Verified++
	case navigation.StatusHostMismatch:
		c.HostMismatch++
	case navigation.StatusTimeout:
		c.Timeout++
	case navigation.StatusAmbiguous:
		c.Ambiguous++
	case navigation.StatusSkipped:
		c.Skipped++
	}
}

// New starts a report for suite. An empty runID gets a fresh one.
func New(suite, baseURL, runID string) *Report {
	if runID == "" {
		runID = uuid.New().String()
	}
	return &Report{
		RunID:     runID,
		Suite:     suite,
		BaseURL:   baseURL,
		Status:    StatusError,
		StartTime: time.Now(),
	}
}

// Finish records the results and settles the run status.
func (r *Report) Finish(results []scenario.ScenarioResult) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Scenarios = results
	r.Steps = scenario.Tally(results...)

	r.Links = LinkCounts{}
	for _, sc := range results {
		for _, step := range sc.Steps {
			for _, o := range step.Outcomes {
				r.Links.add(o)
			}
		}
	}

	switch {
	case r.Error != "":
		r.Status = StatusError
	case r.Steps.Failed > 0 || r.Steps.NotRun > 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPassed
	}
}

// Fail records an error that stopped the run before or during scenarios.
func (r *Report) Fail(err error) {
	r.Error = err.Error()
	r.Status = StatusError
	if r.EndTime.IsZero() {
		r.EndTime = time.Now()
		r.Duration = r.EndTime.Sub(r.StartTime)
	}
}

// Passed reports whether every step passed.
func (r *Report) Passed() bool {
	return r.Status == StatusPassed
}

// Failures returns the results of steps that did not pass, in run order.
func (r *Report) Failures() []scenario.StepResult {
	var out []scenario.StepResult
	for _, sc := range r.Scenarios {
		for _, step := range sc.Steps {
			if step.State != scenario.Passed {
				out = append(out, step)
			}
		}
	}
	return out
}
