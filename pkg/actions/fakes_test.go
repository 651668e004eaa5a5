package actions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/frames"
)

// pwLocator names the embedded field so it does not hide Locator.Locator.
type pwLocator = playwright.Locator

var (
	_ playwright.Locator  = (*fakeLocator)(nil)
	_ playwright.Keyboard = (*fakeKeyboard)(nil)
)

// fakeLocator records every call as "name(args)".
type fakeLocator struct {
	pwLocator
	mu       sync.Mutex
	calls    []string
	scripts  []string
	timeouts []float64
	errs     map[string]error
	onClick  func()
}

func newFakeLocator() *fakeLocator {
	return &fakeLocator{errs: make(map[string]error)}
}

func (l *fakeLocator) record(call string, timeout *float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
	if timeout != nil {
		l.timeouts = append(l.timeouts, *timeout)
	}
	name := call
	for i, r := range call {
		if r == '(' {
			name = call[:i]
			break
		}
	}
	return l.errs[name]
}

func (l *fakeLocator) recorded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.calls...)
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	var t *float64
	if len(options) > 0 {
		t = options[0].Timeout
	}
	err := l.record("click()", t)
	if err == nil && l.onClick != nil {
		l.onClick()
	}
	return err
}

func (l *fakeLocator) Evaluate(expression string, arg interface{}, options ...playwright.LocatorEvaluateOptions) (interface{}, error) {
	var t *float64
	if len(options) > 0 {
		t = options[0].Timeout
	}
	l.mu.Lock()
	l.scripts = append(l.scripts, expression)
	l.mu.Unlock()
	err := l.record(fmt.Sprintf("evaluate(%v)", arg), t)
	if err == nil && expression == jsClickScript && l.onClick != nil {
		l.onClick()
	}
	return nil, err
}

func (l *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	force := len(options) > 0 && options[0].Force != nil && *options[0].Force
	return l.record(fmt.Sprintf("fill(%q,force=%v)", value, force), nil)
}

func (l *fakeLocator) SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	var t *float64
	if len(options) > 0 {
		t = options[0].Timeout
	}
	labels := []string{}
	if values.Labels != nil {
		labels = *values.Labels
	}
	return labels, l.record(fmt.Sprintf("selectOption(%v)", labels), t)
}

func (l *fakeLocator) Press(key string, _ ...playwright.LocatorPressOptions) error {
	return l.record("press("+key+")", nil)
}

func (l *fakeLocator) Hover(options ...playwright.LocatorHoverOptions) error {
	return l.record("hover()", options[0].Timeout)
}

func (l *fakeLocator) SetChecked(checked bool, options ...playwright.LocatorSetCheckedOptions) error {
	return l.record(fmt.Sprintf("setChecked(%v)", checked), options[0].Timeout)
}

func (l *fakeLocator) DispatchEvent(typ string, _ interface{}, options ...playwright.LocatorDispatchEventOptions) error {
	return l.record("dispatchEvent("+typ+")", options[0].Timeout)
}

func (l *fakeLocator) PressSequentially(text string, options ...playwright.LocatorPressSequentiallyOptions) error {
	return l.record("pressSequentially("+text+")", options[0].Timeout)
}

func (l *fakeLocator) Highlight() error {
	return l.record("highlight()", nil)
}

type fakeKeyboard struct {
	playwright.Keyboard
	mu      sync.Mutex
	pressed []string
	err     error
}

func (k *fakeKeyboard) Press(key string, _ ...playwright.KeyboardPressOptions) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed = append(k.pressed, key)
	return k.err
}

type fakeNative struct {
	playwright.Page
	mu       sync.Mutex
	url      string
	closed   bool
	keyboard *fakeKeyboard
	loads    []string
	evalRes  interface{}
	evalErr  error
	evalArgs []interface{}
}

func newFakeNative(url string) *fakeNative {
	return &fakeNative{url: url, keyboard: &fakeKeyboard{}, evalRes: "settled"}
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

func (p *fakeNative) IsClosed() bool                { return p.closed }
func (p *fakeNative) OnClose(func(playwright.Page)) {}
func (p *fakeNative) Keyboard() playwright.Keyboard { return p.keyboard }

func (p *fakeNative) Evaluate(_ string, arg ...interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evalArgs = append(p.evalArgs, arg...)
	return p.evalRes, p.evalErr
}

func (p *fakeNative) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := ""
	if len(options) > 0 && options[0].State != nil {
		state = string(*options[0].State)
	}
	p.loads = append(p.loads, state)
	return nil
}

func (p *fakeNative) loadStates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.loads...)
}

type fakeSession struct{ id string }

func (s *fakeSession) Send(method string, _ map[string]interface{}) (interface{}, error) {
	if method == "Page.getFrameTree" {
		return map[string]interface{}{"frameTree": map[string]interface{}{"frame": map[string]interface{}{"id": s.id}}}, nil
	}
	return nil, nil
}
func (s *fakeSession) On(string, interface{}) {}
func (s *fakeSession) Detach() error          { return nil }

type fakeContext struct {
	playwright.BrowserContext
	mu     sync.Mutex
	pages  []playwright.Page
	onPage []func(playwright.Page)
}

func (c *fakeContext) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]playwright.Page{}, c.pages...)
}

func (c *fakeContext) OnPage(fn func(playwright.Page)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPage = append(c.onPage, fn)
}

func (c *fakeContext) open(p *fakeNative) {
	c.mu.Lock()
	c.pages = append(c.pages, p)
	hs := append([]func(playwright.Page){}, c.onPage...)
	c.mu.Unlock()
	for _, h := range hs {
		h(p)
	}
}

// recordingSettler counts settle waits and the page they targeted.
type recordingSettler struct {
	mu    sync.Mutex
	pages []playwright.Page
	err   error
}

func (s *recordingSettler) WaitForSettledDOM(_ context.Context, page playwright.Page, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, page)
	return s.err
}

// attachedTracker returns a tracker attached to a context holding one tab.
func attachedTracker(native *fakeNative) (*frames.Tracker, *fakeContext, error) {
	bc := &fakeContext{pages: []playwright.Page{native}}
	n := 0
	var mu sync.Mutex
	tr := frames.NewTracker(frames.TrackerOptions{
		OpenSession: func(playwright.Page) (frames.Session, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			return &fakeSession{id: fmt.Sprintf("frame-%d", n)}, nil
		},
	})
	if err := tr.Attach(bc); err != nil {
		return nil, nil, err
	}
	return tr, bc, nil
}

func (s *recordingSettler) calls() []playwright.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]playwright.Page{}, s.pages...)
}
