package frames

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// PageID identifies a tab for the lifetime of the tracker. It is assigned at
// adoption and never reused.
type PageID string

// Session is the control-plane channel to one tab. playwright.CDPSession
// satisfies it.
type Session interface {
	Send(method string, params map[string]interface{}) (interface{}, error)
	On(name string, handler interface{})
	Detach() error
}

// SessionOpener opens a control-plane session for a tab.
type SessionOpener func(page playwright.Page) (Session, error)

// Page wraps one native tab.
type Page struct {
	id      PageID
	native  playwright.Page
	created time.Time

	ready chan struct{}

	mu        sync.Mutex
	claimed   bool
	trackErr  error
	session   Session
	lifecycle *lifecycle
}

func newPage(native playwright.Page) (*Page, error) {
	lc, err := newLifecycle()
	if err != nil {
		return nil, fmt.Errorf("failed to build page lifecycle: %w", err)
	}
	return &Page{
		id:        PageID(uuid.New().String()),
		native:    native,
		created:   time.Now(),
		ready:     make(chan struct{}),
		lifecycle: lc,
	}, nil
}

// ID returns the tracker-assigned identifier.
func (p *Page) ID() PageID { return p.id }

// Native returns the underlying Playwright page.
func (p *Page) Native() playwright.Page { return p.native }

// Created returns when the tab was adopted.
func (p *Page) Created() time.Time { return p.created }

// RootFrameID returns the browser's identifier for the tab's top-level
// frame, empty until tracking starts.
func (p *Page) RootFrameID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifecycle.ctx.RootFrameID
}

// Navigations counts top-level frame identity changes seen so far.
func (p *Page) Navigations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifecycle.ctx.Navigations
}

// State returns the lifecycle state.
func (p *Page) State() LifecycleState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifecycle.state()
}

// Closed reports whether the tab has been closed.
func (p *Page) Closed() bool {
	return p.State() == StateClosed
}

// Session returns the control-plane session, nil before tracking starts.
func (p *Page) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// URL returns the tab's current URL.
func (p *Page) URL() string { return p.native.URL() }

// claim reports whether the caller is the first to start tracking p.
func (p *Page) claim() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claimed {
		return false
	}
	p.claimed = true
	return true
}

// finishTracking records the outcome of tracking and releases waiters.
func (p *Page) finishTracking(err error) {
	p.mu.Lock()
	p.trackErr = err
	p.mu.Unlock()
	close(p.ready)
}

// waitTracked blocks until the first tracking attempt has finished.
func (p *Page) waitTracked() error {
	<-p.ready
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trackErr
}

func (p *Page) setSession(s Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = s
}

// track moves the page into tracking with its first root frame id.
func (p *Page) track(frameID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifecycle.track(frameID)
}

// navigate rebinds the root frame id and returns the previous one. ok is
// false when the event was ignored.
func (p *Page) navigate(frameID string) (previous string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	previous = p.lifecycle.ctx.RootFrameID
	return previous, p.lifecycle.navigate(frameID)
}

// close finalizes the lifecycle and returns the last root frame id.
func (p *Page) close() (frameID string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifecycle.ctx.RootFrameID, p.lifecycle.close()
}
