package navigation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRestoration is the sentinel for every restoration failure. A session
// whose state could not be restored must not be used for further steps.
var ErrRestoration = errors.New("browsing state restoration failed")

// RestorationError lists what the Restorer could not undo.
type RestorationError struct {
	Origin   ContextID
	Failures []error
}

func (e *RestorationError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%v (origin %s): %s", ErrRestoration, e.Origin, strings.Join(msgs, "; "))
}

func (e *RestorationError) Unwrap() []error {
	return append([]error{ErrRestoration}, e.Failures...)
}

// RestoreOptions configures the Restorer.
type RestoreOptions struct {
	// ReturnToOriginURL navigates the origin back to its pre-trigger URL when
	// the trigger changed it in place. Requires the driver to implement
	// Navigator; otherwise it is ignored.
	ReturnToOriginURL bool
}

// Restorer puts the session back into its pre-trigger state.
type Restorer struct {
	driver Driver
	logger Logger
	opts   RestoreOptions
}

// NewRestorer creates a restorer over driver. A nil logger discards output.
func NewRestorer(driver Driver, logger Logger, opts RestoreOptions) *Restorer {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Restorer{driver: driver, logger: logger, opts: opts}
}

// Restore closes every opened context that is still open and switches focus
// back to origin. The origin itself is never closed. Calling Restore again,
// or with ids that are already gone, is a no-op.
func (r *Restorer) Restore(origin ContextID, opened ...ContextID) error {
	return r.restore(origin, "", opened)
}

// RestoreURL is Restore plus sending the origin back to originURL when it has
// navigated away and ReturnToOriginURL is enabled.
func (r *Restorer) RestoreURL(origin ContextID, originURL string, opened ...ContextID) error {
	return r.restore(origin, originURL, opened)
}

func (r *Restorer) restore(origin ContextID, originURL string, opened []ContextID) error {
	var failures []error

	open, err := r.driver.ListContexts()
	if err != nil {
		return &RestorationError{Origin: origin, Failures: []error{fmt.Errorf("failed to list contexts: %w", err)}}
	}
	stillOpen := make(map[ContextID]bool, len(open))
	for _, id := range open {
		stillOpen[id] = true
	}

	attempted := make(map[ContextID]bool, len(opened))
	for _, id := range opened {
		if id == origin || !stillOpen[id] || attempted[id] {
			continue
		}
		attempted[id] = true
		if err := r.driver.Close(id); err != nil {
			failures = append(failures, fmt.Errorf("failed to close context %s: %w", id, err))
			continue
		}
		stillOpen[id] = false
		r.logger.Debugf("closed context %s", id)
	}

	if !stillOpen[origin] {
		failures = append(failures, fmt.Errorf("origin context %s is gone", origin))
	} else {
		if err := r.driver.SwitchTo(origin); err != nil {
			failures = append(failures, fmt.Errorf("failed to switch to origin %s: %w", origin, err))
		}
		if r.opts.ReturnToOriginURL && originURL != "" {
			if err := r.returnToURL(origin, originURL); err != nil {
				failures = append(failures, err)
			}
		}
	}

	if len(failures) > 0 {
		r.logger.Errorf("restoration of %s failed: %v", origin, failures)
		return &RestorationError{Origin: origin, Failures: failures}
	}
	return nil
}

func (r *Restorer) returnToURL(origin ContextID, originURL string) error {
	nav, ok := r.driver.(Navigator)
	if !ok {
		return nil
	}
	current, err := r.driver.CurrentURL(origin)
	if err != nil {
		return fmt.Errorf("failed to read origin URL: %w", err)
	}
	if current == originURL {
		return nil
	}
	if err := nav.Navigate(origin, originURL); err != nil {
		return fmt.Errorf("failed to return origin to %s: %w", originURL, err)
	}
	r.logger.Debugf("returned origin %s to %s", origin, originURL)
	return nil
}
