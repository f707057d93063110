// Package navigation verifies where a clicked link actually goes.
//
// A link may open a new tab, redirect the current tab, or do nothing visible,
// and which one happens is decided by the page, not by the caller. The package
// races those outcomes under a timeout and always puts the browsing session
// back the way it found it.
//
// # Components
//
//   - Classify: pure href classification (Internal, External, NonNavigable)
//   - ContextSet: snapshot of the open browsing contexts and the origin
//   - Waiter: polls after a trigger for a new context or an in-place URL change
//   - CheckHost / Verify: lenient host matching of the observed URL
//   - Restorer: closes contexts opened by the trigger and refocuses the origin
//   - Checker: runs one full verification cycle through all of the above
//
// # Example Usage
//
//	checker := navigation.NewChecker(driver, navigation.CheckerOptions{})
//	outcome, err := checker.Check(ctx, navigation.LinkSpec{
//	    Selector:     "a#twitter",
//	    Href:         "https://twitter.com/x",
//	    ExpectedHost: "twitter.com",
//	})
//	if err != nil {
//	    // restoration failed; the session is no longer trustworthy
//	}
//	if outcome.Status != navigation.StatusVerified {
//	    // assert on outcome.Status / outcome.ObservedURL
//	}
//
// The package never drives the browser itself. It talks to the host
// automation layer through the Driver interface.
package navigation
