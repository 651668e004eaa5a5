package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/actions"
	"github.com/entrhq/pagehand/pkg/frames"
	"github.com/entrhq/pagehand/pkg/locator"
	"github.com/entrhq/pagehand/pkg/logging"
	"github.com/entrhq/pagehand/pkg/types"
)

// Session is one browser with one context. It owns the tab tracker, the
// path resolver and the method dispatcher for that context.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Headless indicates if the browser is running in headless mode
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	mu         sync.Mutex
	lastUsedAt time.Time

	browser    playwright.Browser
	context    playwright.BrowserContext
	tracker    *frames.Tracker
	resolver   *locator.Resolver
	dispatcher *actions.Dispatcher
	backdoor   *locator.Backdoor
	sink       logging.Sink
	timeout    time.Duration
}

func newSession(name string, opts SessionOptions, browser playwright.Browser, bc playwright.BrowserContext, settings Settings, sink logging.Sink) (*Session, error) {
	sink = logging.OrNop(sink)

	backdoor := locator.NewBackdoor(sink)
	if err := backdoor.Install(bc); err != nil {
		return nil, err
	}

	tracker := frames.NewTracker(frames.TrackerOptions{Sink: sink})
	if err := tracker.Attach(bc); err != nil {
		_ = tracker.Close()
		return nil, fmt.Errorf("failed to track pages: %w", err)
	}
	if len(tracker.Pages()) == 0 {
		if _, err := tracker.NewPage(); err != nil {
			_ = tracker.Close()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	now := time.Now()
	return &Session{
		Name:       name,
		Headless:   opts.Headless,
		CreatedAt:  now,
		lastUsedAt: now,
		browser:    browser,
		context:    bc,
		tracker:    tracker,
		resolver:   locator.NewResolver(locator.NewShadowResolver(settings.Shadow, sink), sink),
		dispatcher: actions.NewDispatcher(settings.Actions, sink),
		backdoor:   backdoor,
		sink:       sink,
		timeout:    opts.Timeout,
	}, nil
}

// UpdateLastUsed updates the last used timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()
}

// LastUsedAt returns when the session last served a call.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// Tracker returns the session's tab tracker.
func (s *Session) Tracker() *frames.Tracker { return s.tracker }

// Active returns a handle that always targets the active tab.
func (s *Session) Active() *frames.ActivePage { return s.tracker.ActivePage() }

// Resolver returns the session's path resolver.
func (s *Session) Resolver() *locator.Resolver { return s.resolver }

// CurrentURL returns the active tab's URL, empty when no tab is open.
func (s *Session) CurrentURL() string {
	u, err := s.Active().URL()
	if err != nil {
		return ""
	}
	return u
}

// Info returns a snapshot of the session's metadata.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Name:       s.Name,
		CurrentURL: s.CurrentURL(),
		Headless:   s.Headless,
		Pages:      len(s.tracker.Pages()),
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt(),
	}
}

// Navigate navigates the active tab to url.
func (s *Session) Navigate(ctx context.Context, url string, opts NavigateOptions) (string, error) {
	s.UpdateLastUsed()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	if timeout > 0 {
		gotoOpts.Timeout = playwright.Float(float64(clampToContext(ctx, timeout).Milliseconds()))
	}

	if _, err := s.Active().Goto(url, gotoOpts); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	return s.CurrentURL(), nil
}

// Resolve resolves path against the active tab.
func (s *Session) Resolve(ctx context.Context, path string) (*locator.Handle, error) {
	s.UpdateLastUsed()
	page, err := s.tracker.Active()
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, locator.PageScope(page.Native()), path)
}

// Execute runs method against a resolved handle in the active tab.
func (s *Session) Execute(ctx context.Context, h *locator.Handle, method string, args []string) error {
	s.UpdateLastUsed()
	page, err := s.tracker.Active()
	if err != nil {
		return err
	}
	return s.dispatcher.Execute(ctx, h, method, args, CallContextFor(page, s.tracker, h))
}

// CallContextFor builds the dispatcher context for an action in page.
func CallContextFor(page *frames.Page, tracker *frames.Tracker, h *locator.Handle) actions.CallContext {
	cc := actions.CallContext{Page: page, Tracker: tracker}
	if h != nil {
		cc.Path = h.Path
	}
	return cc
}

// Act resolves req.Path in the active tab and runs req.Method there. The tab
// is captured once, so a tab opened by the action does not affect it. A
// TimeoutMs override bounds the whole call.
func (s *Session) Act(ctx context.Context, req types.ActionRequest) (*ActResult, error) {
	s.UpdateLastUsed()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !actions.Supported(req.Method) {
		return nil, &actions.CommandError{Method: req.Method, Path: req.Path, Cause: actions.ErrUnknownMethod}
	}

	if d := req.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	page, err := s.tracker.Active()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &ActResult{PageID: page.ID(), URLBefore: page.URL()}
	s.sink.Log(logging.LogLine{
		Category:  "action",
		Message:   "performing action",
		Level:     logging.LevelInfo,
		Auxiliary: map[string]any{"path": req.Path, "method": req.Method, "args": req.Args, "url": result.URLBefore},
	})

	h, err := s.resolver.Resolve(ctx, locator.PageScope(page.Native()), req.Path)
	if err != nil {
		return nil, err
	}
	if err := s.dispatcher.Execute(ctx, h, req.Method, req.Args, CallContextFor(page, s.tracker, h)); err != nil {
		return nil, err
	}

	result.URLAfter = page.URL()
	result.ActivePageID = page.ID()
	if active, err := s.tracker.Active(); err == nil {
		result.ActivePageID = active.ID()
	}
	result.Duration = time.Since(start)
	return result, nil
}

// Pages lists the session's tabs in the order they were opened.
func (s *Session) Pages() []PageInfo {
	var activeID frames.PageID
	if active, err := s.tracker.Active(); err == nil {
		activeID = active.ID()
	}

	pages := s.tracker.Pages()
	infos := make([]PageInfo, 0, len(pages))
	for _, p := range pages {
		title, _ := p.Native().Title()
		infos = append(infos, PageInfo{
			ID:     p.ID(),
			URL:    p.URL(),
			Title:  title,
			Active: p.ID() == activeID,
		})
	}
	return infos
}

// SwitchPage makes the tab with id active and brings it to the front.
func (s *Session) SwitchPage(id frames.PageID) (PageInfo, error) {
	s.UpdateLastUsed()
	p, err := s.tracker.Lookup(id)
	if err != nil {
		return PageInfo{}, err
	}
	if err := p.Native().BringToFront(); err != nil {
		s.sink.Log(logging.LogLine{
			Category:  "session",
			Message:   "could not bring page to front",
			Level:     logging.LevelInfo,
			Auxiliary: map[string]any{"page": string(id), "error": err.Error()},
		})
	}
	title, _ := p.Native().Title()
	return PageInfo{ID: p.ID(), URL: p.URL(), Title: title, Active: true}, nil
}

// NewPage opens a tab, which becomes active.
func (s *Session) NewPage() (PageInfo, error) {
	s.UpdateLastUsed()
	p, err := s.tracker.NewPage()
	if err != nil {
		return PageInfo{}, err
	}
	return PageInfo{ID: p.ID(), URL: p.URL(), Active: true}, nil
}

// Screenshot captures the active tab.
func (s *Session) Screenshot(fullPage bool) ([]byte, error) {
	s.UpdateLastUsed()
	return s.Active().Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)})
}

// PDF renders the active tab. Only headless Chromium supports it.
func (s *Session) PDF() ([]byte, error) {
	s.UpdateLastUsed()
	if !s.Headless {
		return nil, errors.New("pdf rendering requires a headless session")
	}
	return s.Active().PDF(playwright.PagePdfOptions{PrintBackground: playwright.Bool(true)})
}

// Paths lists structural paths of the interactive elements in the active
// tab's current HTML.
func (s *Session) Paths() ([]locator.ElementPath, error) {
	s.UpdateLastUsed()
	content, err := s.Active().Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	return locator.BuildPaths(content)
}

// ClearMarkers removes element markers from the active tab.
func (s *Session) ClearMarkers(ctx context.Context) (int, error) {
	native, err := s.Active().Native()
	if err != nil {
		return 0, err
	}
	return s.resolver.Shadow().ClearMarkers(ctx, native)
}

// Close stops tracking and closes the context and browser.
func (s *Session) Close() error {
	var errs []error
	if err := s.tracker.Close(); err != nil {
		errs = append(errs, err)
	}
	s.backdoor.Forget(s.context)
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func clampToContext(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
