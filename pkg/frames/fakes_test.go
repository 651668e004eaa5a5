package frames

import (
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

type fakeSession struct {
	mu       sync.Mutex
	rootID   string
	handlers map[string][]func(map[string]interface{})
	sent     []string
	detached bool
	sendErr  error
}

func (s *fakeSession) Send(method string, _ map[string]interface{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, method)
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if method == "Page.getFrameTree" {
		return map[string]interface{}{
			"frameTree": map[string]interface{}{
				"frame": map[string]interface{}{"id": s.rootID, "url": "about:blank"},
			},
		}, nil
	}
	return map[string]interface{}{}, nil
}

func (s *fakeSession) On(name string, handler interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[string][]func(map[string]interface{}))
	}
	s.handlers[name] = append(s.handlers[name], handler.(func(map[string]interface{})))
}

func (s *fakeSession) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
	return nil
}

// navigate emits Page.frameNavigated for a top-level frame.
func (s *fakeSession) navigate(frameID string) {
	s.emit(map[string]interface{}{"frame": map[string]interface{}{"id": frameID, "url": "https://example.test/"}})
}

// navigateChild emits Page.frameNavigated for an iframe.
func (s *fakeSession) navigateChild(frameID, parentID string) {
	s.emit(map[string]interface{}{"frame": map[string]interface{}{"id": frameID, "parentId": parentID}})
}

func (s *fakeSession) emit(params map[string]interface{}) {
	s.mu.Lock()
	hs := append([]func(map[string]interface{}){}, s.handlers["Page.frameNavigated"]...)
	s.mu.Unlock()
	for _, h := range hs {
		h(params)
	}
}

type fakeNative struct {
	playwright.Page
	mu      sync.Mutex
	url     string
	title   string
	closed  bool
	onClose []func(playwright.Page)
}

func (p *fakeNative) OnClose(fn func(playwright.Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = append(p.onClose, fn)
}

func (p *fakeNative) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakeNative) setURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = u
}

func (p *fakeNative) Title() (string, error) { return p.title, nil }

func (p *fakeNative) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakeNative) Evaluate(expression string, _ ...interface{}) (interface{}, error) {
	return expression + "@" + p.URL(), nil
}

func (p *fakeNative) Close(...playwright.PageCloseOptions) error {
	p.mu.Lock()
	p.closed = true
	hs := p.onClose
	p.mu.Unlock()
	for _, h := range hs {
		h(p)
	}
	return nil
}

type fakeContext struct {
	playwright.BrowserContext
	mu     sync.Mutex
	pages  []playwright.Page
	onPage []func(playwright.Page)
	// afterList runs once after the first Pages snapshot is taken.
	afterList func()
}

func (c *fakeContext) Pages() []playwright.Page {
	c.mu.Lock()
	out := append([]playwright.Page{}, c.pages...)
	hook := c.afterList
	c.afterList = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out
}

func (c *fakeContext) OnPage(fn func(playwright.Page)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPage = append(c.onPage, fn)
}

// open simulates a tab appearing, firing the page event like Playwright.
func (c *fakeContext) open(url string) *fakeNative {
	p := &fakeNative{url: url}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	hs := append([]func(playwright.Page){}, c.onPage...)
	c.mu.Unlock()
	for _, h := range hs {
		h(p)
	}
	return p
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	return c.open("about:blank"), nil
}

// sessions hands out one fakeSession per tab with sequential root ids.
type sessions struct {
	mu      sync.Mutex
	byPage  map[playwright.Page]*fakeSession
	next    int
	openErr error
}

func newSessions() *sessions {
	return &sessions{byPage: make(map[playwright.Page]*fakeSession)}
}

func (s *sessions) open(p playwright.Page) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.next++
	fs := &fakeSession{rootID: fmt.Sprintf("frame-%d", s.next)}
	s.byPage[p] = fs
	return fs, nil
}

func (s *sessions) of(p playwright.Page) *fakeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byPage[p]
}

var errBoom = errors.New("boom")
