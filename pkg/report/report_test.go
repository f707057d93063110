package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/navcheck/pkg/navigation"
	"github.com/entrhq/navcheck/pkg/scenario"
)

func sampleResults() []scenario.ScenarioResult {
	return []scenario.ScenarioResult{
		{
			Name: "footer",
			Steps: []scenario.StepResult{
				{
					Scenario: "footer",
					Step:     "twitter",
					State:    scenario.Passed,
					Duration: 120 * time.Millisecond,
					Outcomes: []navigation.VerificationOutcome{{
						Status:       navigation.StatusVerified,
						Link:         navigation.LinkTarget{Href: "https://twitter.com/saucelabs"},
						ObservedURL:  "https://twitter.com/saucelabs",
						ObservedHost: "twitter.com",
						Via:          navigation.NewContext,
					}},
				},
				{
					Scenario: "footer",
					Step:     "linkedin",
					State:    scenario.Failed,
					Err:      errors.New(`link "https://www.linkedin.com/company/sauce-labs/": host_mismatch`),
					Outcomes: []navigation.VerificationOutcome{
						{
							Status: navigation.StatusHostMismatch,
							Link:   navigation.LinkTarget{Href: "https://www.linkedin.com/company/sauce-labs/"},
							Detail: `expected host "www.linkedin.com", observed "example.org"`,
						},
						{
							Status: navigation.StatusSkipped,
							Link:   navigation.LinkTarget{Href: "mailto:info@saucelabs.com"},
						},
					},
				},
			},
		},
		{
			Name: "checkout",
			Steps: []scenario.StepResult{
				{Scenario: "checkout", Step: "cart", State: scenario.NotRun, Reason: "session is invalid"},
			},
		},
	}
}

func TestReport_Finish(t *testing.T) {
	r := New("saucedemo", "https://www.saucedemo.com/", "")
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, StatusError, r.Status, "unfinished runs are errors")

	r.Finish(sampleResults())

	assert.Equal(t, StatusFailed, r.Status)
	assert.False(t, r.Passed())
	assert.Equal(t, scenario.Counts{Passed: 1, Failed: 1, NotRun: 1}, r.Steps)
	assert.Equal(t, LinkCounts{Verified: 1, HostMismatch: 1, Skipped: 1}, r.Links)
	assert.Equal(t, 3, r.Links.Total())

	failures := r.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "linkedin", failures[0].Step)
	assert.Equal(t, "cart", failures[1].Step)
}

func TestReport_AllPassed(t *testing.T) {
	r := New("s", "", "run-1")
	r.Finish([]scenario.ScenarioResult{{Name: "a", Steps: []scenario.StepResult{{State: scenario.Passed}}}})

	assert.Equal(t, "run-1", r.RunID)
	assert.True(t, r.Passed())
	assert.Empty(t, r.Failures())
}

func TestReport_Fail(t *testing.T) {
	r := New("s", "", "run-2")
	r.Fail(errors.New("failed to open session: no browser"))

	assert.Equal(t, StatusError, r.Status)
	assert.False(t, r.EndTime.IsZero())

	// An error recorded before Finish keeps the run an error
	r.Finish(nil)
	assert.Equal(t, StatusError, r.Status)
}

func TestMarkdown(t *testing.T) {
	r := New("saucedemo", "https://www.saucedemo.com/", "run-3")
	r.Filtered = []string{"footer/facebook"}
	r.Finish(sampleResults())

	md := Markdown(r)
	for _, want := range []string{
		"# navcheck: saucedemo",
		"**Run:** `run-3`",
		"**Status:** failed",
		"❌ **1 failed, 1 not run**",
		"## Scenario: footer",
		"| twitter | ✅ passed |",
		"| linkedin | ❌ failed |",
		"| cart | ⏭ not_run | session is invalid |",
		"| https://twitter.com/saucelabs | verified | https://twitter.com/saucelabs | new_context |",
		"- `footer/facebook`",
		"1 verified, 1 host mismatch, 0 timeout, 0 ambiguous, 1 skipped",
	} {
		assert.Contains(t, md, want)
	}
}

func TestArtifactWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	r := New("saucedemo", "", "run-4")
	r.Finish(sampleResults())

	w := NewArtifactWriter(dir, true, true)
	require.NoError(t, w.WriteAll(r))

	data, err := os.ReadFile(filepath.Join(dir, "run-4", ReportFile))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-4", decoded["run_id"])
	assert.Equal(t, "failed", decoded["status"])

	scenarios := decoded["scenarios"].([]interface{})
	steps := scenarios[0].(map[string]interface{})["steps"].([]interface{})
	failed := steps[1].(map[string]interface{})
	assert.Equal(t, "failed", failed["state"])
	assert.Contains(t, failed["error"], "host_mismatch")

	md, err := os.ReadFile(filepath.Join(dir, "run-4", SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# navcheck: saucedemo")
}

func TestArtifactWriter_Disabled(t *testing.T) {
	dir := t.TempDir()
	r := New("s", "", "run-5")
	r.Finish(nil)

	require.NoError(t, NewArtifactWriter(dir, false, false).WriteAll(r))
	_, err := os.Stat(filepath.Join(dir, "run-5"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, NewArtifactWriter(dir, false, true).WriteAll(r))
	_, err = os.Stat(filepath.Join(dir, "run-5", ReportFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "run-5", SummaryFile))
	assert.NoError(t, err)
}

func TestConsole(t *testing.T) {
	r := New("saucedemo", "", "run-6")
	r.Finish(sampleResults())

	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf, false).Print(r))
	out := buf.String()

	assert.Contains(t, out, "navcheck · saucedemo")
	assert.Contains(t, out, "twitter")
	assert.Contains(t, out, `expected host "www.linkedin.com", observed "example.org"`)
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "steps: 1 passed, 1 failed, 1 not run")
	assert.NotContains(t, out, "→ twitter.com", "passing outcomes are hidden unless verbose")

	buf.Reset()
	require.NoError(t, NewConsole(&buf, true).Print(r))
	assert.Contains(t, buf.String(), "https://twitter.com/saucelabs → twitter.com")
}
