package browser

import (
	"time"

	"github.com/entrhq/pagehand/pkg/frames"
)

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for Playwright operations
	Timeout time.Duration

	// Channel selects a branded Chromium build ("chrome", "msedge"); empty
	// uses the bundled one
	Channel string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle", "commit"
	WaitUntil string

	// Timeout for the navigation (0 means the session default)
	Timeout time.Duration
}

// SessionInfo contains metadata about a browser session.
type SessionInfo struct {
	Name       string
	CurrentURL string
	Headless   bool
	Pages      int
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// PageInfo describes one tab of a session.
type PageInfo struct {
	ID     frames.PageID `json:"id"`
	URL    string        `json:"url"`
	Title  string        `json:"title,omitempty"`
	Active bool          `json:"active"`
}

// ActResult reports what an action did to the session's tabs.
type ActResult struct {
	// PageID is the tab the action ran in.
	PageID frames.PageID
	// ActivePageID is the active tab once the action finished.
	ActivePageID frames.PageID
	URLBefore    string
	URLAfter     string
	Duration     time.Duration
}

// SwitchedPage reports whether the action left a different tab active.
func (r *ActResult) SwitchedPage() bool {
	return r.ActivePageID != r.PageID
}

// Default values for sessions
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
	DefaultIdleTimeout    = 5 * time.Minute
)
