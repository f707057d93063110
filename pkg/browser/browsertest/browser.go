// Package browsertest provides a scripted, in-memory browser for tests of the
// navigation engine and the scenario runner. It implements the same driver
// surface as the Playwright-backed browser.Session without launching anything.
package browsertest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/navcheck/pkg/navigation"
)

// ErrNoElement is returned when a selector has no scripted element.
var ErrNoElement = errors.New("no element matches selector")

// Link scripts what happens when a selector is clicked.
type Link struct {
	// Href is reported by Attribute(selector, "href").
	Href string

	// Opens lists URLs of contexts the click opens. More than one produces an
	// ambiguous delta.
	Opens []string

	// Navigate sends the active context to this URL in place.
	Navigate string

	// Delay postpones the effect of the click.
	Delay time.Duration

	// BlankFor keeps newly opened contexts at about:blank for this long
	// before they commit their URL.
	BlankFor time.Duration

	// Err is returned from Click after the effect is scheduled.
	Err error

	// On limits the link to the page at this URL. Elsewhere the selector
	// matches nothing.
	On string
}

// Page scripts what a URL serves.
type Page struct {
	HTML     string
	Elements []string
}

type tab struct {
	id  navigation.ContextID
	url string
}

// Browser is a fake browsing session. All methods are safe for concurrent use;
// scheduled click effects run on timer goroutines.
type Browser struct {
	mu     sync.Mutex
	tabs   map[navigation.ContextID]*tab
	order  []navigation.ContextID
	active navigation.ContextID
	nextID int

	links map[string]Link
	pages map[string]Page
	fills map[string]string

	// CloseErr and SwitchErr inject failures into Close and SwitchTo.
	CloseErr  error
	SwitchErr error

	closeCalls  int
	switchCalls int
	clicks      []string
	quit        bool
}

// New creates a browser with one tab open at startURL.
func New(startURL string) *Browser {
	b := &Browser{
		tabs:  make(map[navigation.ContextID]*tab),
		links: make(map[string]Link),
		pages: make(map[string]Page),
		fills: make(map[string]string),
	}
	b.active = b.openLocked(startURL)
	return b
}

// AddLink scripts a clickable selector.
func (b *Browser) AddLink(selector string, link Link) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.links[selector] = link
	return b
}

// AddPage scripts the content served at url.
func (b *Browser) AddPage(url string, page Page) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[url] = page
	return b
}

// OpenTab opens a context directly, as if the site had done it on its own.
func (b *Browser) OpenTab(url string) navigation.ContextID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked(url)
}

func (b *Browser) openLocked(url string) navigation.ContextID {
	b.nextID++
	id := navigation.ContextID(fmt.Sprintf("tab-%d", b.nextID))
	b.tabs[id] = &tab{id: id, url: url}
	b.order = append(b.order, id)
	return id
}

// ListContexts implements navigation.Driver.
func (b *Browser) ListContexts() ([]navigation.ContextID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quit {
		return nil, errors.New("browser has quit")
	}
	ids := make([]navigation.ContextID, len(b.order))
	copy(ids, b.order)
	return ids, nil
}

// ActiveContext implements navigation.Driver.
func (b *Browser) ActiveContext() (navigation.ContextID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tabs[b.active]; !ok {
		return "", errors.New("no active context")
	}
	return b.active, nil
}

// CurrentURL implements navigation.Driver.
func (b *Browser) CurrentURL(id navigation.ContextID) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[id]
	if !ok {
		return "", fmt.Errorf("context %s not found", id)
	}
	return t.url, nil
}

// SwitchTo implements navigation.Driver.
func (b *Browser) SwitchTo(id navigation.ContextID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.switchCalls++
	if b.SwitchErr != nil {
		return b.SwitchErr
	}
	if _, ok := b.tabs[id]; !ok {
		return fmt.Errorf("context %s not found", id)
	}
	b.active = id
	return nil
}

// Close implements navigation.Driver.
func (b *Browser) Close(id navigation.ContextID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCalls++
	if b.CloseErr != nil {
		return b.CloseErr
	}
	if _, ok := b.tabs[id]; !ok {
		return fmt.Errorf("context %s not found", id)
	}
	delete(b.tabs, id)
	for i, other := range b.order {
		if other == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Click implements navigation.Driver.
func (b *Browser) Click(ref string) error {
	b.mu.Lock()
	link, ok := b.links[ref]
	if !ok || !b.onPageLocked(link) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoElement, ref)
	}
	b.clicks = append(b.clicks, ref)
	origin := b.active
	b.mu.Unlock()

	apply := func() { b.apply(origin, link) }
	if link.Delay > 0 {
		time.AfterFunc(link.Delay, apply)
	} else {
		apply()
	}
	return link.Err
}

func (b *Browser) apply(origin navigation.ContextID, link Link) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if link.Navigate != "" {
		if t, ok := b.tabs[origin]; ok {
			t.url = link.Navigate
		}
	}
	for _, url := range link.Opens {
		if link.BlankFor <= 0 {
			b.openLocked(url)
			continue
		}
		id := b.openLocked("about:blank")
		target := url
		time.AfterFunc(link.BlankFor, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if t, ok := b.tabs[id]; ok {
				t.url = target
			}
		})
	}
}

// Navigate implements navigation.Navigator.
func (b *Browser) Navigate(id navigation.ContextID, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[id]
	if !ok {
		return fmt.Errorf("context %s not found", id)
	}
	t.url = url
	return nil
}

// Goto navigates the active context.
func (b *Browser) Goto(url string) error {
	b.mu.Lock()
	id := b.active
	b.mu.Unlock()
	return b.Navigate(id, url)
}

// Fill records value for selector. Only scripted elements can be filled.
func (b *Browser) Fill(selector, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasElementLocked(selector) {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	b.fills[selector] = value
	return nil
}

// WaitFor succeeds when selector is a scripted element or link on the
// active page.
func (b *Browser) WaitFor(selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		b.mu.Lock()
		found := b.hasElementLocked(selector)
		b.mu.Unlock()
		if found {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timed out waiting for %s: %w", selector, ErrNoElement)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Attribute returns a scripted link attribute. Only href is supported.
func (b *Browser) Attribute(selector, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	link, ok := b.links[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	if name != "href" {
		return "", nil
	}
	return link.Href, nil
}

// Content returns the scripted HTML for the active context's URL.
func (b *Browser) Content() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[b.active]
	if !ok {
		return "", errors.New("no active context")
	}
	return b.pages[t.url].HTML, nil
}

func (b *Browser) onPageLocked(link Link) bool {
	if link.On == "" {
		return true
	}
	t, ok := b.tabs[b.active]
	return ok && t.url == link.On
}

func (b *Browser) hasElementLocked(selector string) bool {
	if link, ok := b.links[selector]; ok && b.onPageLocked(link) {
		return true
	}
	t, ok := b.tabs[b.active]
	if !ok {
		return false
	}
	for _, el := range b.pages[t.url].Elements {
		if el == selector {
			return true
		}
	}
	return false
}

// Quit ends the session. Further listing fails.
func (b *Browser) Quit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quit = true
	return nil
}

// Filled returns the value last filled into selector.
func (b *Browser) Filled(selector string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fills[selector]
}

// Clicks returns the selectors clicked so far, in order.
func (b *Browser) Clicks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.clicks))
	copy(out, b.clicks)
	return out
}

// CloseCalls returns how many times Close was called.
func (b *Browser) CloseCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeCalls
}

// Quitted reports whether Quit was called.
func (b *Browser) Quitted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quit
}

// URLs returns the URL of every open context, sorted.
func (b *Browser) URLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	urls := make([]string, 0, len(b.tabs))
	for _, t := range b.tabs {
		urls = append(urls, t.url)
	}
	sort.Strings(urls)
	return urls
}

// Describe renders the open contexts for test failure messages.
func (b *Browser) Describe() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts := make([]string, 0, len(b.order))
	for _, id := range b.order {
		marker := ""
		if id == b.active {
			marker = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%s=%s", marker, id, b.tabs[id].url))
	}
	return strings.Join(parts, " ")
}
