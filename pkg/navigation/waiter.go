package navigation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Trigger performs the navigation-causing action, usually a click.
type Trigger func() error

// ClickTrigger returns a Trigger that clicks ref through the driver.
func ClickTrigger(d Driver, ref string) Trigger {
	return func() error {
		if err := d.Click(ref); err != nil {
			return fmt.Errorf("click %q failed: %w", ref, err)
		}
		return nil
	}
}

// ErrTrigger wraps failures returned by the trigger itself.
var ErrTrigger = errors.New("trigger failed")

// WaitOptions configures Waiter.Await.
type WaitOptions struct {
	// Timeout bounds the whole wait, including settling a new context's URL.
	Timeout time.Duration

	// PollInterval is the pause between two observations.
	PollInterval time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollInterval < MinPollInterval {
		o.PollInterval = MinPollInterval
	}
	if o.PollInterval > o.Timeout {
		o.PollInterval = o.Timeout
	}
	return o
}

// Waiter detects what a trigger did to the browsing session.
type Waiter struct {
	driver Driver
	logger Logger
}

// NewWaiter creates a waiter over driver. A nil logger discards output.
func NewWaiter(driver Driver, logger Logger) *Waiter {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Waiter{driver: driver, logger: logger}
}

// Await snapshots the session, invokes trigger, and polls until either a new
// browsing context appears or the origin's URL changes. Nothing is observed
// before the first poll interval has passed. On deadline it returns a
// TimedOut outcome, not an error.
//
// Errors are returned for a failed snapshot, a failed trigger, driver
// failures while polling, and ctx cancellation. Contexts already known to be
// opened are still reported in RawOutcome.Opened alongside an error.
func (w *Waiter) Await(ctx context.Context, trigger Trigger, origin ContextID, opts WaitOptions) (RawOutcome, error) {
	opts = opts.withDefaults()

	snapshot, err := Snapshot(w.driver, origin)
	if err != nil {
		return RawOutcome{Kind: TimedOut, ContextID: origin}, err
	}
	originURL := snapshot.OriginURL()

	w.logger.Debugf("awaiting navigation from %s (%d contexts, url=%s, timeout=%s, poll=%s)",
		origin, snapshot.Len(), originURL, opts.Timeout, opts.PollInterval)

	start := time.Now()
	deadline := start.Add(opts.Timeout)

	if trigger != nil {
		if err := trigger(); err != nil {
			out, pollErr := w.observeOnce(snapshot, origin, start)
			if pollErr != nil {
				w.logger.Warnf("could not inspect contexts after failed trigger: %v", pollErr)
			}
			return out, fmt.Errorf("%w: %w", ErrTrigger, err)
		}
	}

	out := RawOutcome{Kind: TimedOut, ContextID: origin}
	timer := time.NewTimer(opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			out.Elapsed = time.Since(start)
			return out, ctx.Err()
		case <-timer.C:
		}
		out.Polls++

		ids, err := w.driver.ListContexts()
		if err != nil {
			out.Elapsed = time.Since(start)
			return out, fmt.Errorf("failed to list contexts while polling: %w", err)
		}

		if added := snapshot.Added(ids); len(added) > 0 {
			out.Opened = added
			if len(added) > 1 {
				out.Kind = AmbiguousContextDelta
				out.Elapsed = time.Since(start)
				w.logger.Warnf("%d contexts appeared between polls: %v", len(added), added)
				return out, nil
			}
			out.Kind = NewContext
			out.ContextID = added[0]
			return w.settle(ctx, out, deadline, opts.PollInterval, start)
		}

		current, err := w.driver.CurrentURL(origin)
		if err != nil {
			out.Elapsed = time.Since(start)
			return out, fmt.Errorf("failed to read origin URL while polling: %w", err)
		}
		if current != originURL {
			out.Kind = OriginURLChanged
			out.URL = current
			out.Elapsed = time.Since(start)
			w.logger.Debugf("origin %s navigated in place to %s after %d polls", origin, current, out.Polls)
			return out, nil
		}

		if !time.Now().Before(deadline) {
			out.Elapsed = time.Since(start)
			w.logger.Debugf("no navigation observed from %s after %d polls", origin, out.Polls)
			return out, nil
		}
		timer.Reset(nextWait(deadline, opts.PollInterval))
	}
}

// settle keeps reading a freshly opened context until it leaves about:blank
// or the deadline passes. The outcome stays NewContext either way; a blank
// URL simply fails host verification later.
func (w *Waiter) settle(ctx context.Context, out RawOutcome, deadline time.Time, interval time.Duration, start time.Time) (RawOutcome, error) {
	for {
		url, err := w.driver.CurrentURL(out.ContextID)
		if err != nil {
			out.Elapsed = time.Since(start)
			return out, fmt.Errorf("failed to read new context URL: %w", err)
		}
		out.URL = url
		if !blankURLs[url] || !time.Now().Before(deadline) {
			out.Elapsed = time.Since(start)
			w.logger.Debugf("new context %s at %s after %d polls", out.ContextID, url, out.Polls)
			return out, nil
		}

		select {
		case <-ctx.Done():
			out.Elapsed = time.Since(start)
			return out, ctx.Err()
		case <-time.After(nextWait(deadline, interval)):
		}
	}
}

// observeOnce records contexts opened by a trigger that then reported an
// error, so they can still be closed.
func (w *Waiter) observeOnce(snapshot *ContextSet, origin ContextID, start time.Time) (RawOutcome, error) {
	out := RawOutcome{Kind: TimedOut, ContextID: origin, Elapsed: time.Since(start)}
	ids, err := w.driver.ListContexts()
	if err != nil {
		return out, err
	}
	out.Opened = snapshot.Added(ids)
	return out, nil
}

// nextWait returns the pause before the next poll, shortened so the final
// poll lands on the deadline instead of overshooting it.
func nextWait(deadline time.Time, interval time.Duration) time.Duration {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}
	if remaining < interval {
		return remaining
	}
	return interval
}
