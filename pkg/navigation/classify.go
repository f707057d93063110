package navigation

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// nonNavigableSchemes never lead anywhere a browser context can be verified.
var nonNavigableSchemes = []string{
	"javascript:",
	"mailto:",
	"tel:",
	"data:",
}

// ClassificationError describes an href that could not be parsed.
type ClassificationError struct {
	Href string
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify href %q: %v", e.Href, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Classify categorizes href relative to originHost. originHost may be a bare
// host ("example.com", "example.com:8080") or a full URL. Relative hrefs are
// resolved against the origin first. Only http and https destinations are
// navigable: any other scheme is NonNavigable with an "unsupported scheme"
// error. Classify never panics; anything it cannot parse is NonNavigable with
// the reason in LinkTarget.Err.
func Classify(href, originHost string) LinkTarget {
	target := LinkTarget{Href: href}

	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		target.Classification = NonNavigable
		return target
	}

	lower := strings.ToLower(trimmed)
	for _, scheme := range nonNavigableSchemes {
		if strings.HasPrefix(lower, scheme) {
			target.Classification = NonNavigable
			return target
		}
	}

	base := originBase(originHost)

	ref, err := url.Parse(trimmed)
	if err != nil {
		target.Classification = NonNavigable
		target.Err = &ClassificationError{Href: href, Err: err}
		return target
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	target.ResolvedURL = resolved.String()

	if resolved.Scheme != "" && resolved.Scheme != "http" && resolved.Scheme != "https" {
		target.Classification = NonNavigable
		target.Err = &ClassificationError{Href: href, Err: fmt.Errorf("unsupported scheme %q", resolved.Scheme)}
		return target
	}

	host := NormalizeHost(resolved.Hostname())
	target.ResolvedHost = host

	if host == "" || host == NormalizeHost(hostOf(originHost)) {
		target.Classification = Internal
		return target
	}

	target.Classification = External
	return target
}

// NormalizeHost lower-cases host, strips a trailing dot and converts
// internationalized names to their ASCII form. Hosts idna rejects are only
// lower-cased.
func NormalizeHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	return strings.ToLower(host)
}

// hostOf extracts the hostname from a bare host or a full URL, dropping any port.
func hostOf(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}
	if strings.Contains(origin, "://") {
		u, err := url.Parse(origin)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}
	u, err := url.Parse("https://" + origin)
	if err != nil {
		return origin
	}
	return u.Hostname()
}

// originBase returns the URL relative hrefs are resolved against.
func originBase(origin string) *url.URL {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil
	}
	if strings.Contains(origin, "://") {
		u, err := url.Parse(origin)
		if err != nil {
			return nil
		}
		return u
	}
	u, err := url.Parse("https://" + origin + "/")
	if err != nil {
		return nil
	}
	return u
}
