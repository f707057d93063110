package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Browser engines accepted by BrowserConfig.Engine.
const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

// DefaultConfig returns a suite with every default filled in and no
// scenarios.
func DefaultConfig() *Suite {
	return &Suite{
		Name: "navcheck",
		Browser: BrowserConfig{
			Engine:   EngineChromium,
			Headless: true,
			Viewport: Viewport{Width: 1280, Height: 720},
			Timeout:  10 * time.Second,
		},
		Wait: WaitConfig{
			Timeout:      10 * time.Second,
			PollInterval: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
		Artifacts: ArtifactConfig{
			OutputDir: ".navcheck/artifacts",
			JSON:      true,
			Markdown:  true,
		},
	}
}

// Load reads a YAML suite file on top of DefaultConfig and validates it.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suite, nil
}

// Parse decodes YAML suite data on top of DefaultConfig and validates it.
// Unknown keys are rejected so typos in step kinds surface early.
func Parse(data []byte) (*Suite, error) {
	suite := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(suite); err != nil {
		return nil, fmt.Errorf("failed to decode suite: %w", err)
	}

	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return suite, nil
}

// Validate checks the suite and fills in defaults that depend on other
// fields. Every problem found is reported in one ValidationError.
func (s *Suite) Validate() error {
	v := &ValidationError{}

	if s.BaseURL != "" {
		if u, err := url.Parse(s.BaseURL); err != nil || u.Host == "" {
			v.add("base_url", "must be an absolute URL, got %q", s.BaseURL)
		}
	}

	switch s.Browser.Engine {
	case "":
		s.Browser.Engine = EngineChromium
	case EngineChromium, EngineFirefox, EngineWebKit:
	default:
		v.add("browser.engine", "must be chromium, firefox or webkit, got %q", s.Browser.Engine)
	}
	if s.Browser.Viewport.Width < 0 || s.Browser.Viewport.Height < 0 {
		v.add("browser.viewport", "cannot be negative")
	}
	if s.Browser.Timeout < 0 {
		v.add("browser.action_timeout", "cannot be negative")
	}

	if s.Wait.Timeout < 0 {
		v.add("wait.timeout", "cannot be negative")
	}
	if s.Wait.PollInterval < 0 {
		v.add("wait.poll_interval", "cannot be negative")
	}
	if s.Wait.Timeout > 0 && s.Wait.PollInterval > s.Wait.Timeout {
		v.add("wait.poll_interval", "(%s) cannot exceed wait.timeout (%s)", s.Wait.PollInterval, s.Wait.Timeout)
	}

	if s.Logging.Verbosity == "" {
		s.Logging.Verbosity = "normal"
	}
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[s.Logging.Verbosity] {
		v.add("logging.verbosity", "must be 'quiet', 'normal', 'verbose', or 'debug', got %q", s.Logging.Verbosity)
	}

	preconditions := make(map[string]bool, len(s.Preconditions))
	for i, p := range s.Preconditions {
		field := fmt.Sprintf("preconditions[%d]", i)
		if p.Name == "" {
			v.add(field+".name", "is required")
		} else if preconditions[p.Name] {
			v.add(field+".name", "duplicate precondition %q", p.Name)
		}
		preconditions[p.Name] = true

		if p.Check.URLContains == "" && p.Check.Selector == "" {
			v.add(field+".check", "needs url_contains or selector")
		}
		for j, step := range p.Establish {
			validateStep(v, fmt.Sprintf("%s.establish[%d]", field, j), step, nil)
			if len(step.Requires) > 0 {
				v.add(fmt.Sprintf("%s.establish[%d].requires", field, j), "is not allowed inside a precondition")
			}
		}
	}

	if len(s.Scenarios) == 0 {
		v.add("scenarios", "at least one scenario is required")
	}
	scenarios := make(map[string]bool, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		if sc.Name == "" {
			v.add(field+".name", "is required")
		} else if scenarios[sc.Name] {
			v.add(field+".name", "duplicate scenario %q", sc.Name)
		}
		scenarios[sc.Name] = true

		if len(sc.Steps) == 0 {
			v.add(field+".steps", "at least one step is required")
		}
		for j, step := range sc.Steps {
			validateStep(v, fmt.Sprintf("%s.steps[%d]", field, j), step, preconditions)
		}
	}

	return v.orNil()
}

func validateStep(v *ValidationError, field string, step StepConfig, preconditions map[string]bool) {
	kinds := step.Kinds()
	switch len(kinds) {
	case 0:
		v.add(field, "needs one of navigate, click, fill, wait, expect_url, link, sweep")
		return
	case 1:
	default:
		v.add(field, "sets several actions (%s); use one per step", strings.Join(kinds, ", "))
		return
	}

	for _, name := range step.Requires {
		if preconditions != nil && !preconditions[name] {
			v.add(field+".requires", "unknown precondition %q", name)
		}
	}

	switch kinds[0] {
	case KindNavigate:
		if step.Navigate.URL == "" {
			v.add(field+".navigate.url", "is required")
		}
	case KindClick:
		if step.Click.Selector == "" {
			v.add(field+".click.selector", "is required")
		}
	case KindFill:
		if step.Fill.Selector == "" {
			v.add(field+".fill.selector", "is required")
		}
	case KindWait:
		if step.Wait.Selector == "" {
			v.add(field+".wait.selector", "is required")
		}
	case KindExpectURL:
		if step.ExpectURL.Contains == "" {
			v.add(field+".expect_url.contains", "is required")
		}
	case KindLink:
		if step.Link.Selector == "" {
			v.add(field+".link.selector", "is required")
		}
		if step.Link.Timeout < 0 {
			v.add(field+".link.timeout", "cannot be negative")
		}
	case KindSweep:
		if step.Sweep.Limit < 0 {
			v.add(field+".sweep.limit", "cannot be negative")
		}
	}
}
