package config

import (
	"time"
)

// Suite is the data-driven definition of one navcheck run: a browser
// session, the scenarios to run against it and where to write results.
type Suite struct {
	// Name identifies the suite in reports
	Name string `yaml:"name" json:"name"`

	// BaseURL is opened in the first context before any scenario runs
	BaseURL string `yaml:"base_url" json:"base_url"`

	Browser   BrowserConfig  `yaml:"browser" json:"browser"`
	Wait      WaitConfig     `yaml:"wait" json:"wait"`
	Logging   LoggingConfig  `yaml:"logging" json:"logging"`
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
	Filter    FilterConfig   `yaml:"filter" json:"filter"`

	Preconditions []PreconditionConfig `yaml:"preconditions" json:"preconditions"`
	Scenarios     []ScenarioConfig     `yaml:"scenarios" json:"scenarios"`
}

// BrowserConfig configures the automated browser session.
type BrowserConfig struct {
	// Engine is one of chromium, firefox, webkit
	Engine   string        `yaml:"engine" json:"engine"`
	Headless bool          `yaml:"headless" json:"headless"`
	Viewport Viewport      `yaml:"viewport" json:"viewport"`
	Timeout  time.Duration `yaml:"action_timeout" json:"action_timeout"` // Default timeout for clicks, fills and waits
}

// Viewport is the browser viewport size in pixels.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// WaitConfig holds the defaults for link verification waits.
type WaitConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ReturnToOriginURL bool          `yaml:"return_to_origin_url" json:"return_to_origin_url"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines which report files are written.
type ArtifactConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	JSON      bool   `yaml:"json" json:"json"`
	Markdown  bool   `yaml:"markdown" json:"markdown"`
}

// FilterConfig selects steps by "scenario/step" glob patterns.
type FilterConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// PreconditionConfig is a named session state steps can require.
type PreconditionConfig struct {
	Name string `yaml:"name" json:"name"`

	// Check decides whether the state already holds
	Check CheckConfig `yaml:"check" json:"check"`

	// Establish is run when the check fails
	Establish []StepConfig `yaml:"establish" json:"establish"`
}

// CheckConfig is satisfied when every non-empty field holds.
type CheckConfig struct {
	URLContains string `yaml:"url_contains" json:"url_contains"`
	Selector    string `yaml:"selector" json:"selector"`
}

// ScenarioConfig is an ordered list of steps.
type ScenarioConfig struct {
	Name  string       `yaml:"name" json:"name"`
	Steps []StepConfig `yaml:"steps" json:"steps"`
}

// StepConfig is one step. Exactly one action field must be set.
type StepConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Requires []string `yaml:"requires" json:"requires"`

	Navigate  *NavigateAction  `yaml:"navigate,omitempty" json:"navigate,omitempty"`
	Click     *SelectorAction  `yaml:"click,omitempty" json:"click,omitempty"`
	Fill      *FillAction      `yaml:"fill,omitempty" json:"fill,omitempty"`
	Wait      *SelectorAction  `yaml:"wait,omitempty" json:"wait,omitempty"`
	ExpectURL *ExpectURLAction `yaml:"expect_url,omitempty" json:"expect_url,omitempty"`
	Link      *LinkAction      `yaml:"link,omitempty" json:"link,omitempty"`
	Sweep     *SweepAction     `yaml:"sweep,omitempty" json:"sweep,omitempty"`
}

// Step kinds, as reported by StepConfig.Kind.
const (
	KindNavigate  = "navigate"
	KindClick     = "click"
	KindFill      = "fill"
	KindWait      = "wait"
	KindExpectURL = "expect_url"
	KindLink      = "link"
	KindSweep     = "sweep"
)

// Kinds returns the action kinds set on the step.
func (s StepConfig) Kinds() []string {
	var kinds []string
	if s.Navigate != nil {
		kinds = append(kinds, KindNavigate)
	}
	if s.Click != nil {
		kinds = append(kinds, KindClick)
	}
	if s.Fill != nil {
		kinds = append(kinds, KindFill)
	}
	if s.Wait != nil {
		kinds = append(kinds, KindWait)
	}
	if s.ExpectURL != nil {
		kinds = append(kinds, KindExpectURL)
	}
	if s.Link != nil {
		kinds = append(kinds, KindLink)
	}
	if s.Sweep != nil {
		kinds = append(kinds, KindSweep)
	}
	return kinds
}

// Kind returns the step's single action kind, or "" when zero or several
// are set.
func (s StepConfig) Kind() string {
	kinds := s.Kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// NavigateAction opens a URL in the active context.
type NavigateAction struct {
	URL string `yaml:"url" json:"url"`
}

// SelectorAction targets one element.
type SelectorAction struct {
	Selector string `yaml:"selector" json:"selector"`
}

// FillAction types a value into an input.
type FillAction struct {
	Selector string `yaml:"selector" json:"selector"`
	Value    string `yaml:"value" json:"value"`
}

// ExpectURLAction asserts on the active context's URL.
type ExpectURLAction struct {
	Contains string `yaml:"contains" json:"contains"`
}

// LinkAction verifies where one link leads.
type LinkAction struct {
	Selector string `yaml:"selector" json:"selector"`

	// Href is read from the element when empty
	Href string `yaml:"href" json:"href"`

	// ExpectedHost is derived from the link when empty
	ExpectedHost string `yaml:"expected_host" json:"expected_host"`

	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SweepAction verifies every anchor inside a container.
type SweepAction struct {
	// Selector scopes the sweep: a tag, #id or .class of the container.
	// Empty sweeps the whole page.
	Selector string `yaml:"selector" json:"selector"`

	// Limit caps how many anchors are verified (0 means all)
	Limit int `yaml:"limit" json:"limit"`

	// SkipInternal only verifies External links
	SkipInternal bool `yaml:"skip_internal" json:"skip_internal"`
}
