// Package browsertest provides in-memory Playwright stand-ins for testing
// code built on browser sessions without launching Chromium.
package browsertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/browser"
)

var (
	_ playwright.Page           = (*Page)(nil)
	_ playwright.Locator        = (*locator)(nil)
	_ playwright.CDPSession     = (*cdpSession)(nil)
	_ playwright.BrowserContext = (*Context)(nil)
	_ playwright.Browser        = (*Browser)(nil)
	_ browser.Launcher          = (*Launcher)(nil)
)

// Page is a tab that records what was done to it. Locators created from it
// record click and fill calls as "click <selector>" and "fill <selector>
// <value>".
type Page struct {
	playwright.Page

	mu       sync.Mutex
	url      string
	title    string
	content  string
	closed   bool
	actions  []string
	gotos    []string
	front    int
	onClose  []func(playwright.Page)
	shot     []byte
	pdf      []byte
	clickURL string
	popup    *Page
	ctx      *Context
}

// NewPage returns a blank tab.
func NewPage() *Page {
	return &Page{url: "about:blank", title: "blank", shot: []byte("png"), pdf: []byte("%PDF-1.4")}
}

// NewPageAt returns a tab already showing url.
func NewPageAt(url string) *Page {
	p := NewPage()
	p.url = url
	return p
}

// SetHTML sets what Content returns.
func (p *Page) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = html
}

// SetTitle sets what Title returns.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// SetPDF sets what PDF returns.
func (p *Page) SetPDF(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pdf = data
}

// NavigateOnClick makes every click on the page move it to url.
func (p *Page) NavigateOnClick(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clickURL = url
}

// OpenOnClick makes the next click on the page open popup as a new tab in
// the page's context.
func (p *Page) OpenOnClick(popup *Page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.popup = popup
}

// Actions returns the recorded locator calls.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.actions...)
}

// Gotos returns every navigation as "url@waitUntil".
func (p *Page) Gotos() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.gotos...)
}

// Fronted returns how often the tab was brought to front.
func (p *Page) Fronted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.front
}

func (p *Page) record(action string) {
	p.mu.Lock()
	p.actions = append(p.actions, action)
	click := strings.HasPrefix(action, "click ")
	if p.clickURL != "" && click {
		p.url = p.clickURL
	}
	var popup *Page
	if click && p.popup != nil && p.ctx != nil {
		popup, p.popup = p.popup, nil
	}
	ctx := p.ctx
	p.mu.Unlock()

	if popup != nil {
		ctx.Open(popup)
	}
}

func (p *Page) Locator(selector string, _ ...playwright.PageLocatorOptions) playwright.Locator {
	return &locator{page: p, selector: selector}
}

func (p *Page) Evaluate(string, ...interface{}) (interface{}, error) { return "settled", nil }

func (p *Page) OnClose(fn func(playwright.Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = append(p.onClose, fn)
}

func (p *Page) Close(...playwright.PageCloseOptions) error {
	p.mu.Lock()
	p.closed = true
	hs := append([]func(playwright.Page){}, p.onClose...)
	p.mu.Unlock()
	for _, h := range hs {
		h(p)
	}
	return nil
}

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	state := ""
	if len(options) > 0 && options[0].WaitUntil != nil {
		state = string(*options[0].WaitUntil)
	}
	p.gotos = append(p.gotos, url+"@"+state)
	return nil, nil
}

func (p *Page) WaitForLoadState(...playwright.PageWaitForLoadStateOptions) error { return nil }

func (p *Page) BringToFront() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.front++
	return nil
}

func (p *Page) Screenshot(...playwright.PageScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shot, nil
}

func (p *Page) PDF(...playwright.PagePdfOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pdf, nil
}

// pwLocator names the embedded field so it does not hide Locator.Locator.
type pwLocator = playwright.Locator

type locator struct {
	pwLocator
	page     *Page
	selector string
}

func (l *locator) Click(...playwright.LocatorClickOptions) error {
	l.page.record("click " + l.selector)
	return nil
}

func (l *locator) Fill(value string, _ ...playwright.LocatorFillOptions) error {
	l.page.record("fill " + l.selector + " " + value)
	return nil
}

func (l *locator) Hover(...playwright.LocatorHoverOptions) error {
	l.page.record("hover " + l.selector)
	return nil
}

type cdpSession struct {
	playwright.CDPSession
	id string
}

func (s *cdpSession) Send(method string, _ map[string]interface{}) (interface{}, error) {
	if method == "Page.getFrameTree" {
		return map[string]interface{}{"frameTree": map[string]interface{}{"frame": map[string]interface{}{"id": s.id}}}, nil
	}
	return map[string]interface{}{}, nil
}

func (s *cdpSession) On(string, interface{}) {}
func (s *cdpSession) Detach() error          { return nil }

// Context is a browser context whose tabs are Pages.
type Context struct {
	playwright.BrowserContext

	mu      sync.Mutex
	pages   []playwright.Page
	onPage  []func(playwright.Page)
	scripts int
	closed  bool
	cdp     int
}

func (c *Context) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]playwright.Page{}, c.pages...)
}

func (c *Context) OnPage(fn func(playwright.Page)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPage = append(c.onPage, fn)
}

func (c *Context) NewPage() (playwright.Page, error) {
	p := NewPage()
	c.Open(p)
	return p, nil
}

// Open adds p as if the page had opened it, firing page handlers.
func (c *Context) Open(p *Page) {
	p.mu.Lock()
	p.ctx = c
	p.mu.Unlock()

	c.mu.Lock()
	c.pages = append(c.pages, p)
	hs := append([]func(playwright.Page){}, c.onPage...)
	c.mu.Unlock()
	for _, h := range hs {
		h(p)
	}
}

func (c *Context) AddInitScript(playwright.Script) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts++
	return nil
}

// InitScripts returns how many init scripts were added.
func (c *Context) InitScripts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scripts
}

func (c *Context) NewCDPSession(interface{}) (playwright.CDPSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cdp++
	return &cdpSession{id: fmt.Sprintf("frame-%d", c.cdp)}, nil
}

func (c *Context) Close(...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Browser records whether it was closed.
type Browser struct {
	playwright.Browser

	mu     sync.Mutex
	closed bool
}

func (b *Browser) Close(...playwright.BrowserCloseOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Launcher hands out fresh fake browsers and contexts.
type Launcher struct {
	// Pages are opened in the first launched context before it is returned.
	Pages []*Page

	mu       sync.Mutex
	launched []browser.SessionOptions
	contexts []*Context
	browsers []*Browser
	stopped  bool
}

var _ browser.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(opts browser.SessionOptions) (playwright.Browser, playwright.BrowserContext, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := &Browser{}
	c := &Context{}
	if len(l.contexts) == 0 {
		for _, p := range l.Pages {
			c.Open(p)
		}
	}
	l.launched = append(l.launched, opts)
	l.browsers = append(l.browsers, b)
	l.contexts = append(l.contexts, c)
	return b, c, nil
}

func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

// Launched returns the options of every launch.
func (l *Launcher) Launched() []browser.SessionOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.SessionOptions{}, l.launched...)
}

// Context returns the i-th launched context.
func (l *Launcher) Context(i int) *Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contexts[i]
}

// Browser returns the i-th launched browser.
func (l *Launcher) Browser(i int) *Browser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.browsers[i]
}

// Stopped reports whether Stop was called.
func (l *Launcher) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}
