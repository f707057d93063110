package navigation

import (
	"fmt"
	"sort"
)

// Driver is the capability surface consumed from the host automation layer.
// Element lookup behind Click is entirely the driver's business.
type Driver interface {
	// ListContexts returns the ids of all open browsing contexts.
	ListContexts() ([]ContextID, error)

	// ActiveContext returns the context that currently has focus.
	ActiveContext() (ContextID, error)

	// CurrentURL returns the location of the given context.
	CurrentURL(id ContextID) (string, error)

	// SwitchTo moves focus to the given context.
	SwitchTo(id ContextID) error

	// Close closes the given context.
	Close(id ContextID) error

	// Click clicks the element identified by ref in the active context.
	Click(ref string) error
}

// Navigator is implemented by drivers that can send a context to a URL.
// The Restorer uses it to undo an in-place navigation when asked to.
type Navigator interface {
	Navigate(id ContextID, url string) error
}

// ContextSet is a point-in-time view of the open browsing contexts with one
// of them marked as the origin.
type ContextSet struct {
	Origin   ContextID
	Contexts map[ContextID]BrowsingContext
	order    []ContextID
}

// Snapshot reads the driver's contexts and marks origin. The origin's URL is
// always read; other contexts are listed without their URLs to keep the
// snapshot cheap.
func Snapshot(d Driver, origin ContextID) (*ContextSet, error) {
	ids, err := d.ListContexts()
	if err != nil {
		return nil, fmt.Errorf("failed to list contexts: %w", err)
	}

	set := &ContextSet{
		Origin:   origin,
		Contexts: make(map[ContextID]BrowsingContext, len(ids)),
		order:    make([]ContextID, 0, len(ids)),
	}
	for _, id := range ids {
		if _, dup := set.Contexts[id]; dup {
			continue
		}
		set.Contexts[id] = BrowsingContext{ID: id}
		set.order = append(set.order, id)
	}

	if _, ok := set.Contexts[origin]; !ok {
		return nil, fmt.Errorf("origin context %q is not open", origin)
	}

	url, err := d.CurrentURL(origin)
	if err != nil {
		return nil, fmt.Errorf("failed to read origin URL: %w", err)
	}
	set.Contexts[origin] = BrowsingContext{ID: origin, URL: url}

	return set, nil
}

// Len returns the number of contexts in the set.
func (s *ContextSet) Len() int {
	return len(s.Contexts)
}

// Has reports whether id was open when the snapshot was taken.
func (s *ContextSet) Has(id ContextID) bool {
	_, ok := s.Contexts[id]
	return ok
}

// IDs returns the context ids in the order the driver listed them.
func (s *ContextSet) IDs() []ContextID {
	out := make([]ContextID, len(s.order))
	copy(out, s.order)
	return out
}

// OriginURL returns the origin's URL at snapshot time.
func (s *ContextSet) OriginURL() string {
	return s.Contexts[s.Origin].URL
}

// Added returns the ids present in current but not in the snapshot, sorted
// so that ambiguous deltas are reported deterministically.
func (s *ContextSet) Added(current []ContextID) []ContextID {
	var added []ContextID
	seen := make(map[ContextID]bool, len(current))
	for _, id := range current {
		if seen[id] || s.Has(id) {
			continue
		}
		seen[id] = true
		added = append(added, id)
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	return added
}
