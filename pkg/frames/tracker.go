package frames

import (
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/logging"
)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// Sink receives diagnostics. Nil discards them.
	Sink logging.Sink
	// OpenSession opens the control-plane session for a tab. Nil uses the
	// browser context's CDP sessions.
	OpenSession SessionOpener
}

// Tracker maps tabs and their top-level frame identities to Page wrappers
// and keeps the active page pointer.
//
// Playwright delivers page, close and CDP events on its own goroutine, so
// handlers only take locks and never block on the browser. Lock order is
// Tracker.mu before Page.mu.
type Tracker struct {
	sink logging.Sink
	open SessionOpener

	mu       sync.RWMutex
	bc       playwright.BrowserContext
	pages    map[PageID]*Page
	order    []PageID
	natives  map[playwright.Page]PageID
	frames   map[string]*Page
	active   PageID
	history  []PageID
	watchers map[*PageWatch]struct{}
	closed   bool

	wg sync.WaitGroup
}

// NewTracker creates an empty tracker. Call Attach to bind it to a context.
func NewTracker(opts TrackerOptions) *Tracker {
	return &Tracker{
		sink:     logging.OrNop(opts.Sink),
		open:     opts.OpenSession,
		pages:    make(map[PageID]*Page),
		natives:  make(map[playwright.Page]PageID),
		frames:   make(map[string]*Page),
		watchers: make(map[*PageWatch]struct{}),
	}
}

// Attach binds the tracker to bc: every open tab is adopted and tracked,
// the first becomes active, and tabs opened later are adopted as they appear.
// A tab that opens while Attach runs is adopted once and ends up active.
func (t *Tracker) Attach(bc playwright.BrowserContext) error {
	t.mu.Lock()
	if t.bc != nil {
		t.mu.Unlock()
		return fmt.Errorf("tracker already attached")
	}
	t.bc = bc
	if t.open == nil {
		t.open = func(p playwright.Page) (Session, error) {
			return bc.NewCDPSession(p)
		}
	}
	t.mu.Unlock()

	// subscribe before listing so no tab falls between the two
	bc.OnPage(t.onPage)

	existing := make(map[PageID]bool)
	var first *Page
	for _, native := range bc.Pages() {
		p, err := t.adopt(native)
		if err != nil {
			return err
		}
		if err := t.track(p); err != nil {
			return err
		}
		existing[p.id] = true
		if first == nil {
			first = p
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	var target PageID
	if first != nil {
		target = first.id
	}
	for _, id := range t.order {
		if !existing[id] {
			target = id
		}
	}
	if target != "" {
		t.setActiveLocked(target)
	}
	return nil
}

// Context returns the attached browser context, nil before Attach.
func (t *Tracker) Context() playwright.BrowserContext {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bc
}

// onPage runs on Playwright's event goroutine. The wrapper is registered and
// activated immediately; the control session is opened in the background.
func (t *Tracker) onPage(native playwright.Page) {
	p, err := t.adopt(native)
	if errors.Is(err, ErrTrackerClosed) {
		return
	}
	if err != nil {
		t.sink.Log(logging.LogLine{
			Category:  "frames",
			Message:   "failed to adopt new page",
			Level:     logging.LevelError,
			Auxiliary: map[string]any{"error": err.Error()},
		})
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		_ = t.track(p)
	}()
}

// adopt registers native and makes it active. Adopting a known tab returns
// the existing wrapper and only updates the active pointer.
func (t *Tracker) adopt(native playwright.Page) (*Page, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTrackerClosed
	}
	if id, ok := t.natives[native]; ok {
		p := t.pages[id]
		t.setActiveLocked(id)
		t.mu.Unlock()
		return p, nil
	}

	p, err := newPage(native)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	t.pages[p.id] = p
	t.order = append(t.order, p.id)
	t.natives[native] = p.id
	t.setActiveLocked(p.id)
	for w := range t.watchers {
		w.offer(p)
	}
	t.mu.Unlock()

	native.OnClose(func(playwright.Page) { t.handleClose(p) })

	t.sink.Log(logging.LogLine{
		Category:  "frames",
		Message:   "page created",
		Level:     logging.LevelDebug,
		Auxiliary: map[string]any{"page": string(p.id), "url": native.URL()},
	})
	return p, nil
}

// track opens the control session, subscribes to top-level navigations and
// records the tab's current root frame. Only the first call per page does
// the work; later callers wait for its outcome.
func (t *Tracker) track(p *Page) error {
	if !p.claim() {
		return p.waitTracked()
	}
	err := t.startTracking(p)
	p.finishTracking(err)
	return err
}

func (t *Tracker) startTracking(p *Page) error {
	session, err := t.open(p.native)
	if err != nil {
		t.logTrackFailure(p, "open session", err)
		return fmt.Errorf("failed to open session for page %s: %w", p.id, err)
	}
	p.setSession(session)

	session.On("Page.frameNavigated", func(params map[string]interface{}) {
		t.onFrameNavigated(p, params)
	})

	if _, err := session.Send("Page.enable", map[string]interface{}{}); err != nil {
		t.logTrackFailure(p, "Page.enable", err)
		return fmt.Errorf("failed to enable page events for %s: %w", p.id, err)
	}

	tree, err := session.Send("Page.getFrameTree", map[string]interface{}{})
	if err != nil {
		t.logTrackFailure(p, "Page.getFrameTree", err)
		return fmt.Errorf("failed to read frame tree for %s: %w", p.id, err)
	}

	rootID := rootFrameID(tree)
	if rootID == "" {
		return fmt.Errorf("frame tree for page %s has no root frame", p.id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if p.track(rootID) {
		t.frames[rootID] = p
	}
	return nil
}

func (t *Tracker) logTrackFailure(p *Page, step string, err error) {
	t.sink.Log(logging.LogLine{
		Category:  "frames",
		Message:   "failed to track page",
		Level:     logging.LevelError,
		Auxiliary: map[string]any{"page": string(p.id), "step": step, "error": err.Error()},
	})
}

func rootFrameID(tree interface{}) string {
	m, _ := tree.(map[string]interface{})
	ft, _ := m["frameTree"].(map[string]interface{})
	frame, _ := ft["frame"].(map[string]interface{})
	id, _ := frame["id"].(string)
	return id
}

// onFrameNavigated handles Page.frameNavigated. Sub-frame navigations and
// repeats of the current root id are ignored, so delivering the same event
// twice is harmless.
func (t *Tracker) onFrameNavigated(p *Page, params map[string]interface{}) {
	frame, _ := params["frame"].(map[string]interface{})
	if frame == nil {
		return
	}
	if parent, _ := frame["parentId"].(string); parent != "" {
		return
	}
	newID, _ := frame["id"].(string)
	if newID == "" {
		return
	}
	t.rebind(p, newID)
}

// rebind moves p's frame record from its old root id to newID. The active
// pointer is left alone.
func (t *Tracker) rebind(p *Page, newID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, ok := p.navigate(newID)
	if !ok {
		return
	}
	if old != "" && t.frames[old] == p {
		delete(t.frames, old)
	}
	t.frames[newID] = p

	t.sink.Log(logging.LogLine{
		Category:  "frames",
		Message:   "root frame changed",
		Level:     logging.LevelDebug,
		Auxiliary: map[string]any{"page": string(p.id), "from": old, "to": newID},
	})
}

// handleClose drops every record of p and moves the active pointer to the
// most recently activated tab still open, or clears it.
func (t *Tracker) handleClose(p *Page) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frameID, ok := p.close()
	if !ok {
		return
	}
	if frameID != "" && t.frames[frameID] == p {
		delete(t.frames, frameID)
	}
	delete(t.pages, p.id)
	delete(t.natives, p.native)
	t.order = removeID(t.order, p.id)
	t.history = removeID(t.history, p.id)

	if t.active == p.id {
		t.active = ""
		if n := len(t.history); n > 0 {
			t.active = t.history[n-1]
		}
	}

	t.sink.Log(logging.LogLine{
		Category:  "frames",
		Message:   "page closed",
		Level:     logging.LevelDebug,
		Auxiliary: map[string]any{"page": string(p.id), "active": string(t.active)},
	})
}

func (t *Tracker) setActiveLocked(id PageID) {
	t.active = id
	t.history = append(removeID(t.history, id), id)
}

func removeID(ids []PageID, id PageID) []PageID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Active returns the active page.
func (t *Tracker) Active() (*Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.active == "" {
		return nil, ErrNoActivePage
	}
	p, ok := t.pages[t.active]
	if !ok {
		return nil, ErrNoActivePage
	}
	return p, nil
}

// Lookup returns the page with id and makes it active.
func (t *Tracker) Lookup(id PageID) (*Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}
	t.setActiveLocked(id)
	return p, nil
}

// PageForNative returns the wrapper for native, adopting and tracking it if
// it is new, and makes it active.
func (t *Tracker) PageForNative(native playwright.Page) (*Page, error) {
	if native.IsClosed() {
		return nil, ErrPageClosed
	}

	p, err := t.adopt(native)
	if err != nil {
		return nil, err
	}
	if err := t.track(p); err != nil {
		return nil, err
	}
	return p, nil
}

// PageByFrameID returns the page whose top-level frame has frameID. It does
// not change the active page.
func (t *Tracker) PageByFrameID(frameID string) (*Page, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.frames[frameID]
	return p, ok
}

// Pages returns the open pages in adoption order.
func (t *Tracker) Pages() []*Page {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Page, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.pages[id])
	}
	return out
}

// NewPage opens a tab in the attached context and returns its wrapper,
// which becomes active.
func (t *Tracker) NewPage() (*Page, error) {
	bc := t.Context()
	if bc == nil {
		return nil, ErrNotAttached
	}
	native, err := bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return t.PageForNative(native)
}

// ActivePage returns the stable handle that always targets the active page.
func (t *Tracker) ActivePage() *ActivePage {
	return &ActivePage{tracker: t}
}

// Close stops adopting tabs, waits for background tracking to finish and
// detaches every control session. The browser context itself is left open.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	// no wg.Add happens once closed is set, so the Wait below is safe
	t.closed = true
	pages := make([]*Page, 0, len(t.pages))
	for _, p := range t.pages {
		pages = append(pages, p)
	}
	for w := range t.watchers {
		delete(t.watchers, w)
	}
	t.mu.Unlock()

	t.wg.Wait()

	var firstErr error
	for _, p := range pages {
		if s := p.Session(); s != nil {
			if err := s.Detach(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
