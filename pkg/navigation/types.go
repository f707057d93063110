package navigation

import (
	"time"
)

// ContextID is an opaque handle for a browsing context (tab or window).
type ContextID string

// BrowsingContext is one independently addressable tab or window.
type BrowsingContext struct {
	ID  ContextID `json:"id"`
	URL string    `json:"url"`
}

// Classification categorizes a link by where it points relative to the origin.
type Classification string

const (
	// Internal links resolve to the origin host (or have no host at all).
	Internal Classification = "internal"

	// External links resolve to a different host.
	External Classification = "external"

	// NonNavigable links cannot be followed (empty, javascript:, mailto:, malformed).
	NonNavigable Classification = "non_navigable"
)

// LinkTarget is the result of classifying an href.
type LinkTarget struct {
	Href           string         `json:"href"`
	ResolvedURL    string         `json:"resolved_url,omitempty"`
	ResolvedHost   string         `json:"resolved_host,omitempty"`
	Classification Classification `json:"classification"`

	// Err holds the parse failure for malformed hrefs or the rejected scheme.
	Err error `json:"-"`
}

// Navigable reports whether the link can be clicked and followed.
func (t LinkTarget) Navigable() bool {
	return t.Classification == Internal || t.Classification == External
}

// Status is the terminal result of one verification cycle.
type Status string

const (
	// StatusVerified means the observed location matched the expected host.
	StatusVerified Status = "verified"

	// StatusHostMismatch means navigation happened but to an unexpected host.
	StatusHostMismatch Status = "host_mismatch"

	// StatusTimeout means neither a new context nor a URL change was seen in time.
	StatusTimeout Status = "timeout"

	// StatusAmbiguous means more than one new context appeared between polls.
	StatusAmbiguous Status = "ambiguous_context_delta"

	// StatusSkipped means the link was NonNavigable and nothing was clicked.
	StatusSkipped Status = "skipped"
)

// VerificationOutcome is the record handed to scenario code and reports.
type VerificationOutcome struct {
	Status       Status        `json:"status"`
	Link         LinkTarget    `json:"link"`
	ObservedURL  string        `json:"observed_url,omitempty"`
	ObservedHost string        `json:"observed_host,omitempty"`
	ExpectedHost string        `json:"expected_host,omitempty"`
	Match        MatchKind     `json:"match,omitempty"`
	Via          OutcomeKind   `json:"via,omitempty"`
	Polls        int           `json:"polls"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMs    int64         `json:"elapsed_ms"`
	Detail       string        `json:"detail,omitempty"`
}

// Passed reports whether the outcome is a successful verification.
func (o VerificationOutcome) Passed() bool {
	return o.Status == StatusVerified
}

// OutcomeKind is what the waiter observed after a trigger.
type OutcomeKind string

const (
	// NewContext means exactly one browsing context appeared.
	NewContext OutcomeKind = "new_context"

	// OriginURLChanged means the origin context navigated in place.
	OriginURLChanged OutcomeKind = "origin_url_changed"

	// TimedOut means nothing detectable happened before the deadline.
	TimedOut OutcomeKind = "timed_out"

	// AmbiguousContextDelta means several contexts appeared between two polls.
	AmbiguousContextDelta OutcomeKind = "ambiguous_context_delta"
)

// RawOutcome is the unverified result of Waiter.Await.
type RawOutcome struct {
	Kind OutcomeKind

	// ContextID is the new context for NewContext, the origin otherwise.
	ContextID ContextID

	// Opened lists every context that appeared after the trigger. The caller
	// must hand these to the Restorer regardless of Kind.
	Opened []ContextID

	// URL is the observed location (settled URL of the new context, or the
	// origin's changed URL).
	URL string

	Polls   int
	Elapsed time.Duration
}

// Default timing values, matching the explicit waits used across the suites.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
	MinPollInterval     = 10 * time.Millisecond
)

// blankURLs are the placeholder locations a freshly opened tab reports before
// its first navigation commits.
var blankURLs = map[string]bool{
	"":            true,
	"about:blank": true,
}
