package browser

import (
	"time"
)

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Engine selects the browser: chromium (default), firefox or webkit
	Engine string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout is the default timeout for clicks, fills and waits
	Timeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// SessionInfo contains metadata about a browser session.
type SessionInfo struct {
	Name       string
	Engine     string
	CurrentURL string
	Headless   bool
	Pages      int
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Default values for sessions
const (
	DefaultEngine         = "chromium"
	DefaultTimeout        = 10 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
)
