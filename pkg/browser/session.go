package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/navcheck/pkg/navigation"
)

// ErrSessionClosed is returned by every operation after Quit.
var ErrSessionClosed = errors.New("browser session is closed")

// Session represents an active browser session with its associated resources.
// It is driven by one logical caller at a time; the mutex only protects the
// page id table, which Playwright can change from its own goroutine.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Engine is the browser engine the session runs on
	Engine string

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Headless indicates if the browser is running in headless mode
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session
	LastUsedAt time.Time

	timeout time.Duration

	mu     sync.Mutex
	ids    map[playwright.Page]navigation.ContextID
	pages  map[navigation.ContextID]playwright.Page
	active navigation.ContextID
	closed bool
}

func newSession(name, engine string, browser playwright.Browser, bctx playwright.BrowserContext, first playwright.Page, opts SessionOptions) *Session {
	now := time.Now()
	s := &Session{
		Name:       name,
		Engine:     engine,
		Browser:    browser,
		Context:    bctx,
		Headless:   opts.Headless,
		CreatedAt:  now,
		LastUsedAt: now,
		timeout:    opts.Timeout,
		ids:        make(map[playwright.Page]navigation.ContextID),
		pages:      make(map[navigation.ContextID]playwright.Page),
	}
	s.active = s.idFor(first)
	return s
}

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastUsedAt = time.Now()
}

// idFor returns the id of page, assigning one on first sight. Caller must
// hold no lock.
func (s *Session) idFor(page playwright.Page) navigation.ContextID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idForLocked(page)
}

func (s *Session) idForLocked(page playwright.Page) navigation.ContextID {
	if id, ok := s.ids[page]; ok {
		return id
	}
	id := navigation.ContextID(uuid.New().String())
	s.ids[page] = id
	s.pages[id] = page
	return id
}

func (s *Session) forgetLocked(id navigation.ContextID) {
	if page, ok := s.pages[id]; ok {
		delete(s.ids, page)
		delete(s.pages, id)
	}
}

// page looks up an open page by id.
func (s *Session) page(id navigation.ContextID) (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	page, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("context %s not found", id)
	}
	if page.IsClosed() {
		s.forgetLocked(id)
		return nil, fmt.Errorf("context %s is closed", id)
	}
	return page, nil
}

func (s *Session) activePage() (playwright.Page, error) {
	s.mu.Lock()
	id := s.active
	s.mu.Unlock()
	return s.page(id)
}

func (s *Session) timeoutMs() *float64 {
	if s.timeout <= 0 {
		return nil
	}
	return playwright.Float(float64(s.timeout.Milliseconds()))
}

// ListContexts implements navigation.Driver. Pages opened by the site are
// picked up here.
func (s *Session) ListContexts() ([]navigation.ContextID, error) {
	pages := s.Context.Pages()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	ids := make([]navigation.ContextID, 0, len(pages))
	live := make(map[navigation.ContextID]bool, len(pages))
	for _, page := range pages {
		if page.IsClosed() {
			continue
		}
		id := s.idForLocked(page)
		live[id] = true
		ids = append(ids, id)
	}
	for id := range s.pages {
		if !live[id] {
			s.forgetLocked(id)
		}
	}
	return ids, nil
}

// ActiveContext implements navigation.Driver.
func (s *Session) ActiveContext() (navigation.ContextID, error) {
	s.mu.Lock()
	id := s.active
	s.mu.Unlock()

	if _, err := s.page(id); err != nil {
		return "", fmt.Errorf("no active context: %w", err)
	}
	return id, nil
}

// CurrentURL implements navigation.Driver.
func (s *Session) CurrentURL(id navigation.ContextID) (string, error) {
	page, err := s.page(id)
	if err != nil {
		return "", err
	}
	return page.URL(), nil
}

// SwitchTo implements navigation.Driver.
func (s *Session) SwitchTo(id navigation.ContextID) error {
	page, err := s.page(id)
	if err != nil {
		return err
	}
	if err := page.BringToFront(); err != nil {
		return fmt.Errorf("failed to focus context %s: %w", id, err)
	}

	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	return nil
}

// Close implements navigation.Driver.
func (s *Session) Close(id navigation.ContextID) error {
	page, err := s.page(id)
	if err != nil {
		return err
	}
	if err := page.Close(); err != nil {
		return fmt.Errorf("failed to close context %s: %w", id, err)
	}

	s.mu.Lock()
	s.forgetLocked(id)
	s.mu.Unlock()
	return nil
}

// Click implements navigation.Driver. ref is a Playwright selector.
func (s *Session) Click(ref string) error {
	s.UpdateLastUsed()

	page, err := s.activePage()
	if err != nil {
		return err
	}
	if err := page.Click(ref, playwright.PageClickOptions{Timeout: s.timeoutMs()}); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Navigate implements navigation.Navigator.
func (s *Session) Navigate(id navigation.ContextID, url string) error {
	s.UpdateLastUsed()

	page, err := s.page(id)
	if err != nil {
		return err
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   s.timeoutMs(),
	}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Goto navigates the active context.
func (s *Session) Goto(url string) error {
	id, err := s.ActiveContext()
	if err != nil {
		return err
	}
	return s.Navigate(id, url)
}

// Fill fills an input element with the specified value.
func (s *Session) Fill(selector, value string) error {
	s.UpdateLastUsed()

	page, err := s.activePage()
	if err != nil {
		return err
	}
	if err := page.Fill(selector, value, playwright.PageFillOptions{Timeout: s.timeoutMs()}); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// WaitFor waits until selector is visible in the active context.
func (s *Session) WaitFor(selector string, timeout time.Duration) error {
	s.UpdateLastUsed()

	page, err := s.activePage()
	if err != nil {
		return err
	}

	opts := playwright.PageWaitForSelectorOptions{State: playwright.WaitForSelectorStateVisible}
	if timeout > 0 {
		opts.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	} else {
		opts.Timeout = s.timeoutMs()
	}
	if _, err := page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// Attribute reads an attribute of the first element matching selector.
func (s *Session) Attribute(selector, name string) (string, error) {
	page, err := s.activePage()
	if err != nil {
		return "", err
	}
	value, err := page.Locator(selector).First().GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: s.timeoutMs()})
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", name, selector, err)
	}
	return value, nil
}

// Content returns the active context's serialized HTML.
func (s *Session) Content() (string, error) {
	page, err := s.activePage()
	if err != nil {
		return "", err
	}
	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// Info returns current session metadata.
func (s *Session) Info() SessionInfo {
	url := ""
	if page, err := s.activePage(); err == nil {
		url = page.URL()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		Name:       s.Name,
		Engine:     s.Engine,
		CurrentURL: url,
		Headless:   s.Headless,
		Pages:      len(s.pages),
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
	}
}

// Quit closes the browser context and the browser. Safe to call twice.
func (s *Session) Quit() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if err := s.Context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser context: %w", err))
	}
	if err := s.Browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	return errors.Join(errs...)
}
