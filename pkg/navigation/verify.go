package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MatchKind describes how an observed host matched the expected one.
type MatchKind string

const (
	// MatchNone means the hosts did not match.
	MatchNone MatchKind = "none"

	// MatchExact means the hosts are equal.
	MatchExact MatchKind = "exact"

	// MatchSubdomain means the hosts share a registrable domain
	// (www.example.com vs example.com).
	MatchSubdomain MatchKind = "subdomain"

	// MatchLoose means one host is a substring of the other but their
	// registrable domains differ (git.com vs github.com). It still verifies.
	MatchLoose MatchKind = "loose"
)

// ErrNoHost is reported when a URL parses but carries no host.
var ErrNoHost = errors.New("url has no host")

// HostCheck is the diagnostic result of CheckHost.
type HostCheck struct {
	OK           bool
	ObservedHost string
	ExpectedHost string
	Match        MatchKind

	// Err is set when the observed URL could not be parsed.
	Err error
}

// Verify reports whether rawURL's host matches expected under the lenient
// substring policy.
func Verify(rawURL, expected string) bool {
	return CheckHost(rawURL, expected).OK
}

// CheckHost parses the host out of rawURL and compares it against expected.
// The comparison is case-insensitive and succeeds when either host contains
// the other, which tolerates www. and subdomain variance. An empty expected
// host never matches.
func CheckHost(rawURL, expected string) HostCheck {
	check := HostCheck{
		ExpectedHost: NormalizeHost(hostOf(expected)),
		Match:        MatchNone,
	}
	if check.ExpectedHost == "" {
		check.ExpectedHost = strings.ToLower(strings.TrimSpace(expected))
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		check.Err = fmt.Errorf("failed to parse observed url: %w", err)
		return check
	}
	if u.Hostname() == "" {
		check.Err = fmt.Errorf("%w: %q", ErrNoHost, rawURL)
		return check
	}

	observed := NormalizeHost(u.Hostname())
	check.ObservedHost = observed

	if check.ExpectedHost == "" {
		return check
	}

	switch {
	case observed == check.ExpectedHost:
		check.Match = MatchExact
	case strings.Contains(observed, check.ExpectedHost) || strings.Contains(check.ExpectedHost, observed):
		if sameRegistrableDomain(observed, check.ExpectedHost) {
			check.Match = MatchSubdomain
		} else {
			check.Match = MatchLoose
		}
	default:
		return check
	}

	check.OK = true
	return check
}

// sameRegistrableDomain compares the eTLD+1 of both hosts. Hosts without a
// registrable domain (localhost, bare IPs) fall back to plain equality.
func sameRegistrableDomain(a, b string) bool {
	da, errA := publicsuffix.EffectiveTLDPlusOne(a)
	db, errB := publicsuffix.EffectiveTLDPlusOne(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da == db
}
