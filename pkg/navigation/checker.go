package navigation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LinkSpec is the scenario input for one link verification.
type LinkSpec struct {
	// Selector is clicked through the driver when Trigger is nil.
	Selector string

	// Trigger overrides Selector with a custom action.
	Trigger Trigger

	// Href is the link's href attribute, used for classification. When empty
	// the link is treated as Internal, so the expected host is the origin host
	// unless ExpectedHost is set.
	Href string

	// ExpectedHost is matched against the observed URL. When empty it is
	// derived from the classification: the origin host for Internal links,
	// the resolved host for External ones.
	ExpectedHost string

	// Timeout overrides CheckerOptions.Timeout when positive.
	Timeout time.Duration

	// PollInterval overrides CheckerOptions.PollInterval when positive.
	PollInterval time.Duration
}

// CheckerOptions configures a Checker.
type CheckerOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Restore      RestoreOptions
	Logger       Logger
}

// Checker runs complete verification cycles against one driver.
type Checker struct {
	driver   Driver
	waiter   *Waiter
	restorer *Restorer
	logger   Logger
	opts     CheckerOptions
}

// NewChecker creates a checker over driver.
func NewChecker(driver Driver, opts CheckerOptions) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Checker{
		driver:   driver,
		waiter:   NewWaiter(driver, logger),
		restorer: NewRestorer(driver, logger, opts.Restore),
		logger:   logger,
		opts:     opts,
	}
}

// Restorer exposes the checker's restorer so callers can clean up after
// their own triggers.
func (c *Checker) Restorer() *Restorer {
	return c.restorer
}

// Check classifies, triggers, waits, verifies and restores. Verification
// results are reported through the outcome, never as errors. The returned
// error is non-nil only for driver/trigger failures and restoration
// failures; the latter wrap ErrRestoration. Restoration runs on every path.
func (c *Checker) Check(ctx context.Context, spec LinkSpec) (outcome VerificationOutcome, err error) {
	origin, err := c.driver.ActiveContext()
	if err != nil {
		return VerificationOutcome{Status: StatusTimeout, Detail: err.Error()}, fmt.Errorf("failed to read active context: %w", err)
	}
	originURL, err := c.driver.CurrentURL(origin)
	if err != nil {
		return VerificationOutcome{Status: StatusTimeout, Detail: err.Error()}, fmt.Errorf("failed to read origin URL: %w", err)
	}

	originHost := hostOf(originURL)
	outcome.Link = c.classify(spec.Href, originURL)
	if !outcome.Link.Navigable() {
		outcome.Status = StatusSkipped
		if outcome.Link.Err != nil {
			outcome.Detail = outcome.Link.Err.Error()
		} else {
			outcome.Detail = "link is not navigable"
		}
		c.logger.Infof("skipping non-navigable link %q", spec.Href)
		return outcome, nil
	}

	outcome.ExpectedHost = c.expectedHost(spec, outcome.Link, originHost)

	trigger := spec.Trigger
	if trigger == nil {
		if spec.Selector == "" {
			return outcome, errors.New("link spec needs a selector or a trigger")
		}
		trigger = ClickTrigger(c.driver, spec.Selector)
	}

	before, err := c.driver.ListContexts()
	if err != nil {
		return outcome, fmt.Errorf("failed to list contexts: %w", err)
	}

	var opened []ContextID
	defer func() {
		// Contexts that show up late, or that a panicking trigger opened,
		// are not in raw.Opened; close them too.
		opened = append(opened, c.strays(before)...)
		restoreErr := c.restorer.RestoreURL(origin, originURL, opened...)
		if restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
	}()

	raw, err := c.waiter.Await(ctx, trigger, origin, WaitOptions{
		Timeout:      firstPositive(spec.Timeout, c.opts.Timeout),
		PollInterval: firstPositive(spec.PollInterval, c.opts.PollInterval),
	})
	opened = raw.Opened
	outcome.Polls = raw.Polls
	outcome.Via = raw.Kind
	outcome.Elapsed = raw.Elapsed
	outcome.ElapsedMs = raw.Elapsed.Milliseconds()
	if err != nil {
		outcome.Status = StatusTimeout
		outcome.Detail = failureDetail(err)
		return outcome, err
	}

	switch raw.Kind {
	case TimedOut:
		outcome.Status = StatusTimeout
		outcome.Detail = fmt.Sprintf("no new context or URL change within %s", firstPositive(spec.Timeout, c.opts.Timeout, DefaultTimeout))
	case AmbiguousContextDelta:
		outcome.Status = StatusAmbiguous
		outcome.Detail = fmt.Sprintf("%d contexts opened: %v", len(raw.Opened), raw.Opened)
	case NewContext, OriginURLChanged:
		c.verify(&outcome, raw)
	}

	c.logger.Infof("link %q -> %s (%s, %d polls, %dms)", spec.Href, outcome.Status, raw.Kind, raw.Polls, outcome.ElapsedMs)
	return outcome, nil
}

// failureDetail labels an Await error so a failed trigger or a cancelled run
// does not read as a plain timeout.
func failureDetail(err error) string {
	switch {
	case errors.Is(err, ErrTrigger):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled: " + err.Error()
	default:
		return "driver error: " + err.Error()
	}
}

func (c *Checker) classify(href, originURL string) LinkTarget {
	if href == "" {
		// Unknown href: nothing to classify, the observed destination decides.
		return LinkTarget{Classification: Internal, ResolvedHost: NormalizeHost(hostOf(originURL))}
	}
	return Classify(href, originURL)
}

func (c *Checker) expectedHost(spec LinkSpec, target LinkTarget, originHost string) string {
	if spec.ExpectedHost != "" {
		return spec.ExpectedHost
	}
	if target.Classification == External {
		return target.ResolvedHost
	}
	return NormalizeHost(originHost)
}

func (c *Checker) verify(outcome *VerificationOutcome, raw RawOutcome) {
	outcome.ObservedURL = raw.URL
	check := CheckHost(raw.URL, outcome.ExpectedHost)
	outcome.ObservedHost = check.ObservedHost
	outcome.Match = check.Match

	switch {
	case check.OK:
		outcome.Status = StatusVerified
		if check.Match == MatchLoose {
			outcome.Detail = fmt.Sprintf("loose match: %s and %s have different registrable domains", check.ObservedHost, check.ExpectedHost)
			c.logger.Warnf("%s", outcome.Detail)
		}
	case check.Err != nil:
		outcome.Status = StatusHostMismatch
		outcome.Detail = check.Err.Error()
	default:
		outcome.Status = StatusHostMismatch
		outcome.Detail = fmt.Sprintf("expected host %q, observed %q", check.ExpectedHost, check.ObservedHost)
	}
}

// strays returns contexts open now that were not open before the trigger.
func (c *Checker) strays(before []ContextID) []ContextID {
	now, err := c.driver.ListContexts()
	if err != nil {
		return nil
	}
	known := make(map[ContextID]bool, len(before))
	for _, id := range before {
		known[id] = true
	}
	var out []ContextID
	for _, id := range now {
		if !known[id] {
			out = append(out, id)
		}
	}
	return out
}

func firstPositive(ds ...time.Duration) time.Duration {
	for _, d := range ds {
		if d > 0 {
			return d
		}
	}
	return 0
}
