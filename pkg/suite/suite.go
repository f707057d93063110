// Package suite turns a YAML suite definition into scenarios the
// orchestrator can run.
package suite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/navcheck/pkg/browser"
	"github.com/entrhq/navcheck/pkg/config"
	"github.com/entrhq/navcheck/pkg/navigation"
	"github.com/entrhq/navcheck/pkg/scenario"
)

// DefaultCheckTimeout bounds how long a precondition's selector check waits.
const DefaultCheckTimeout = 2 * time.Second

// Options tunes how a suite is built.
type Options struct {
	// CheckTimeout bounds selector checks of preconditions
	CheckTimeout time.Duration
}

// Plan is a built suite.
type Plan struct {
	Scenarios     []scenario.Scenario
	Preconditions []scenario.Precondition

	// Filtered lists "scenario/step" names the filter left out
	Filtered []string
}

// Steps returns the number of steps in the plan.
func (p *Plan) Steps() int {
	n := 0
	for _, sc := range p.Scenarios {
		n += len(sc.Steps)
	}
	return n
}

type builder struct {
	suite *config.Suite
	opts  Options
}

// Build turns s into a Plan. Steps rejected by s.Filter are left out and
// scenarios left without steps are dropped.
func Build(s *config.Suite, opts Options) (*Plan, error) {
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = DefaultCheckTimeout
	}
	b := &builder{suite: s, opts: opts}

	filter, err := NewFilter(s.Filter.Include, s.Filter.Exclude)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, pc := range s.Preconditions {
		p, err := b.precondition(pc)
		if err != nil {
			return nil, fmt.Errorf("precondition %q: %w", pc.Name, err)
		}
		plan.Preconditions = append(plan.Preconditions, p)
	}

	for _, sc := range s.Scenarios {
		built := scenario.Scenario{Name: sc.Name}
		for i, cfg := range sc.Steps {
			step, err := b.step(cfg, i)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", sc.Name, i+1, err)
			}
			name := sc.Name + "/" + step.Name
			if !filter.Match(name) {
				plan.Filtered = append(plan.Filtered, name)
				continue
			}
			built.Steps = append(built.Steps, step)
		}
		if len(built.Steps) > 0 {
			plan.Scenarios = append(plan.Scenarios, built)
		}
	}
	return plan, nil
}

// CheckerOptions maps the suite's wait settings onto a link checker.
func CheckerOptions(s *config.Suite, logger navigation.Logger) navigation.CheckerOptions {
	return navigation.CheckerOptions{
		Timeout:      s.Wait.Timeout,
		PollInterval: s.Wait.PollInterval,
		Restore: navigation.RestoreOptions{
			ReturnToOriginURL: s.Wait.ReturnToOriginURL,
		},
		Logger: logger,
	}
}

// StepName is the configured name, or "<kind>-<n>" with n counted from 1.
func StepName(cfg config.StepConfig, index int) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return fmt.Sprintf("%s-%d", cfg.Kind(), index+1)
}

func (b *builder) step(cfg config.StepConfig, index int) (scenario.Step, error) {
	run, err := b.action(cfg)
	if err != nil {
		return scenario.Step{}, err
	}
	return scenario.Step{
		Name:     StepName(cfg, index),
		Requires: cfg.Requires,
		Run:      run,
	}, nil
}

func (b *builder) action(cfg config.StepConfig) (scenario.StepFunc, error) {
	switch cfg.Kind() {
	case config.KindNavigate:
		return b.navigate(cfg.Navigate), nil
	case config.KindClick:
		return b.click(cfg.Click), nil
	case config.KindFill:
		return b.fill(cfg.Fill), nil
	case config.KindWait:
		return b.wait(cfg.Wait), nil
	case config.KindExpectURL:
		return b.expectURL(cfg.ExpectURL), nil
	case config.KindLink:
		return b.link(cfg.Link), nil
	case config.KindSweep:
		return b.sweep(cfg.Sweep), nil
	default:
		return nil, fmt.Errorf("step needs exactly one action, got %v", cfg.Kinds())
	}
}

func (b *builder) precondition(cfg config.PreconditionConfig) (scenario.Precondition, error) {
	steps := make([]scenario.StepFunc, 0, len(cfg.Establish))
	names := make([]string, 0, len(cfg.Establish))
	for i, sc := range cfg.Establish {
		run, err := b.action(sc)
		if err != nil {
			return scenario.Precondition{}, fmt.Errorf("establish step %d: %w", i+1, err)
		}
		steps = append(steps, run)
		names = append(names, StepName(sc, i))
	}

	check := cfg.Check
	p := scenario.Precondition{
		Name: cfg.Name,
		Check: func(ctx context.Context, sc *scenario.StepContext) (bool, error) {
			if check.URLContains != "" {
				current, err := sc.ActiveURL()
				if err != nil {
					return false, err
				}
				if !strings.Contains(current, check.URLContains) {
					return false, nil
				}
			}
			if check.Selector != "" {
				if err := sc.Session.WaitFor(check.Selector, b.opts.CheckTimeout); err != nil {
					sc.Logger.Debugf("precondition %q: %s not present: %v", cfg.Name, check.Selector, err)
					return false, nil
				}
			}
			return true, nil
		},
	}
	if len(steps) > 0 {
		p.Establish = func(ctx context.Context, sc *scenario.StepContext) error {
			for i, run := range steps {
				if err := run(ctx, sc); err != nil {
					return fmt.Errorf("%s: %w", names[i], err)
				}
			}
			return nil
		}
	}
	return p, nil
}

// resolve makes ref absolute against the suite's base URL.
func (b *builder) resolve(ref string) string {
	if b.suite.BaseURL == "" {
		return ref
	}
	base, err := url.Parse(b.suite.BaseURL)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func (b *builder) navigate(a *config.NavigateAction) scenario.StepFunc {
	target := b.resolve(a.URL)
	return func(ctx context.Context, sc *scenario.StepContext) error {
		return sc.Session.Goto(target)
	}
}

func (b *builder) click(a *config.SelectorAction) scenario.StepFunc {
	return func(ctx context.Context, sc *scenario.StepContext) error {
		return sc.Session.Click(a.Selector)
	}
}

func (b *builder) fill(a *config.FillAction) scenario.StepFunc {
	return func(ctx context.Context, sc *scenario.StepContext) error {
		return sc.Session.Fill(a.Selector, a.Value)
	}
}

func (b *builder) wait(a *config.SelectorAction) scenario.StepFunc {
	timeout := b.suite.Browser.Timeout
	return func(ctx context.Context, sc *scenario.StepContext) error {
		return sc.Session.WaitFor(a.Selector, timeout)
	}
}

func (b *builder) expectURL(a *config.ExpectURLAction) scenario.StepFunc {
	return func(ctx context.Context, sc *scenario.StepContext) error {
		current, err := sc.ActiveURL()
		if err != nil {
			return err
		}
		if !strings.Contains(current, a.Contains) {
			return scenario.Assertf("expected URL containing %q, got %q", a.Contains, current)
		}
		return nil
	}
}

func (b *builder) link(a *config.LinkAction) scenario.StepFunc {
	return func(ctx context.Context, sc *scenario.StepContext) error {
		href := a.Href
		if href == "" {
			attr, err := sc.Session.Attribute(a.Selector, "href")
			if err != nil {
				return fmt.Errorf("failed to read href of %s: %w", a.Selector, err)
			}
			href = attr
		}

		_, err := sc.CheckLink(ctx, navigation.LinkSpec{
			Selector:     a.Selector,
			Href:         href,
			ExpectedHost: a.ExpectedHost,
			Timeout:      a.Timeout,
		})
		return err
	}
}

func (b *builder) sweep(a *config.SweepAction) scenario.StepFunc {
	return func(ctx context.Context, sc *scenario.StepContext) error {
		content, err := sc.Session.Content()
		if err != nil {
			return err
		}
		anchors, err := browser.ExtractAnchors(content, a.Selector)
		if err != nil {
			return scenario.Assertf("sweep: %v", err)
		}
		originID, err := sc.Session.ActiveContext()
		if err != nil {
			return err
		}
		origin, err := sc.Session.CurrentURL(originID)
		if err != nil {
			return err
		}

		var failures []error
		checked := 0
		for _, anchor := range anchors {
			if a.Limit > 0 && checked >= a.Limit {
				break
			}
			if a.SkipInternal && navigation.Classify(anchor.Href, origin).Classification == navigation.Internal {
				continue
			}
			checked++

			_, err := sc.CheckLink(ctx, navigation.LinkSpec{
				Selector: anchor.Selector,
				Href:     anchor.Href,
			})
			if err != nil {
				failures = append(failures, err)
				if !errors.Is(err, scenario.ErrAssertion) {
					// Driver or restoration failure: the page is no longer the
					// one the anchors came from.
					break
				}
			}

			// The remaining selectors only exist on the swept page
			if err := returnTo(sc, originID, origin); err != nil {
				failures = append(failures, err)
				break
			}
		}

		if checked == 0 {
			return scenario.Assertf("sweep found no links in %q", scopeName(a.Selector))
		}
		sc.Logger.Infof("sweep %q: %d links checked, %d failed", scopeName(a.Selector), checked, len(failures))
		return errors.Join(failures...)
	}
}

// returnTo sends context id back to target if a link navigated it in place.
func returnTo(sc *scenario.StepContext, id navigation.ContextID, target string) error {
	current, err := sc.Session.CurrentURL(id)
	if err != nil {
		return fmt.Errorf("sweep: failed to read origin URL: %w", err)
	}
	if current == target {
		return nil
	}
	if err := sc.Session.Navigate(id, target); err != nil {
		return fmt.Errorf("sweep: failed to return to %s: %w", target, err)
	}
	sc.Logger.Debugf("sweep returned to %s from %s", target, current)
	return nil
}

func scopeName(selector string) string {
	if selector == "" {
		return "page"
	}
	return selector
}
