package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSuite = `
name: saucedemo
base_url: https://www.saucedemo.com/
browser:
  headless: false
  viewport: {width: 1024, height: 768}
wait:
  timeout: 5s
  poll_interval: 150ms
filter:
  exclude: ["checkout/*"]
preconditions:
  - name: logged-in
    check:
      url_contains: inventory
    establish:
      - navigate: {url: "https://www.saucedemo.com/"}
      - fill: {selector: "#user-name", value: standard_user}
      - fill: {selector: "#password", value: secret_sauce}
      - click: {selector: "#login-button"}
scenarios:
  - name: sidebar
    steps:
      - name: about opens saucelabs
        requires: [logged-in]
        link:
          selector: "#about_sidebar_link"
          expected_host: saucelabs.com
          timeout: 15s
  - name: footer
    steps:
      - name: social links
        requires: [logged-in]
        sweep: {selector: ".social", limit: 3}
`

func TestParse(t *testing.T) {
	suite, err := Parse([]byte(sampleSuite))
	require.NoError(t, err)

	assert.Equal(t, "saucedemo", suite.Name)
	assert.False(t, suite.Browser.Headless)
	assert.Equal(t, EngineChromium, suite.Browser.Engine, "default engine kept")
	assert.Equal(t, 1024, suite.Browser.Viewport.Width)
	assert.Equal(t, 10*time.Second, suite.Browser.Timeout, "default action timeout kept")
	assert.Equal(t, 5*time.Second, suite.Wait.Timeout)
	assert.Equal(t, 150*time.Millisecond, suite.Wait.PollInterval)
	assert.Equal(t, "normal", suite.Logging.Verbosity)
	assert.Equal(t, []string{"checkout/*"}, suite.Filter.Exclude)

	require.Len(t, suite.Preconditions, 1)
	assert.Len(t, suite.Preconditions[0].Establish, 4)
	assert.Equal(t, KindFill, suite.Preconditions[0].Establish[1].Kind())

	require.Len(t, suite.Scenarios, 2)
	link := suite.Scenarios[0].Steps[0]
	assert.Equal(t, KindLink, link.Kind())
	assert.Equal(t, []string{"logged-in"}, link.Requires)
	assert.Equal(t, 15*time.Second, link.Link.Timeout)
	assert.Equal(t, 3, suite.Scenarios[1].Steps[0].Sweep.Limit)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("name: x\nscenarios:\n  - name: s\n    steps:\n      - clik: {selector: a}\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Suite {
		s := DefaultConfig()
		s.Scenarios = []ScenarioConfig{{
			Name:  "s",
			Steps: []StepConfig{{Name: "go", Navigate: &NavigateAction{URL: "https://example.com"}}},
		}}
		return s
	}

	tests := []struct {
		name    string
		mutate  func(s *Suite)
		wantErr string
	}{
		{name: "valid", mutate: func(s *Suite) {}},
		{name: "no scenarios", mutate: func(s *Suite) { s.Scenarios = nil }, wantErr: "at least one scenario"},
		{name: "bad base url", mutate: func(s *Suite) { s.BaseURL = "example" }, wantErr: "base_url"},
		{name: "bad engine", mutate: func(s *Suite) { s.Browser.Engine = "netscape" }, wantErr: "browser.engine"},
		{name: "bad verbosity", mutate: func(s *Suite) { s.Logging.Verbosity = "loud" }, wantErr: "logging.verbosity"},
		{name: "poll exceeds timeout", mutate: func(s *Suite) { s.Wait.PollInterval = time.Minute }, wantErr: "wait.poll_interval"},
		{
			name:    "step without action",
			mutate:  func(s *Suite) { s.Scenarios[0].Steps = append(s.Scenarios[0].Steps, StepConfig{Name: "empty"}) },
			wantErr: "needs one of",
		},
		{
			name: "step with two actions",
			mutate: func(s *Suite) {
				s.Scenarios[0].Steps[0].Click = &SelectorAction{Selector: "a"}
			},
			wantErr: "sets several actions",
		},
		{
			name: "unknown precondition",
			mutate: func(s *Suite) {
				s.Scenarios[0].Steps[0].Requires = []string{"logged-in"}
			},
			wantErr: `unknown precondition "logged-in"`,
		},
		{
			name: "link without selector",
			mutate: func(s *Suite) {
				s.Scenarios[0].Steps[0] = StepConfig{Name: "l", Link: &LinkAction{}}
			},
			wantErr: "link.selector",
		},
		{
			name: "duplicate scenario",
			mutate: func(s *Suite) {
				s.Scenarios = append(s.Scenarios, s.Scenarios[0])
			},
			wantErr: "duplicate scenario",
		},
		{
			name: "precondition without check",
			mutate: func(s *Suite) {
				s.Preconditions = []PreconditionConfig{{Name: "p"}}
			},
			wantErr: "needs url_contains or selector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	s := DefaultConfig()
	s.Browser.Engine = "netscape"
	s.Logging.Verbosity = "loud"

	err := s.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
	assert.Contains(t, err.Error(), "3 problems")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSuite), 0600))

	suite, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saucedemo", suite.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Example(t *testing.T) {
	s, err := Load(filepath.Join("..", "..", "examples", "saucedemo.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "saucedemo", s.Name)
	assert.Len(t, s.Scenarios, 3)
	assert.Equal(t, KindSweep, s.Scenarios[1].Steps[3].Kind())
	assert.Equal(t, 15*time.Second, s.Scenarios[2].Steps[2].Link.Timeout)
}
