package locator

import (
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// fakeDOM records every locator created and every evaluate issued through the
// fake page. Selectors are chained into a trail such as
// "page | xpath=/html/body | pagehand-marker=ph_1".
type fakeDOM struct {
	mu        sync.Mutex
	created   []string
	evaluated []string
	evaluate  func(trail string, arg map[string]interface{}) (interface{}, error)
}

func (d *fakeDOM) record(trail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = append(d.created, trail)
}

func (d *fakeDOM) eval(trail string, arg interface{}) (interface{}, error) {
	d.mu.Lock()
	d.evaluated = append(d.evaluated, trail)
	fn := d.evaluate
	d.mu.Unlock()

	m, _ := arg.(map[string]interface{})
	if fn == nil {
		return map[string]interface{}{"id": nil, "noRoot": false}, nil
	}
	return fn(trail, m)
}

func (d *fakeDOM) evaluations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.evaluated)
}

type fakePage struct {
	playwright.Page
	dom *fakeDOM
}

func newFakePage() *fakePage { return &fakePage{dom: &fakeDOM{}} }

func (p *fakePage) Locator(selector string, _ ...playwright.PageLocatorOptions) playwright.Locator {
	return newFakeLocator(p.dom, "page | "+selector)
}

func (p *fakePage) FrameLocator(selector string) playwright.FrameLocator {
	return newFakeFrame(p.dom, "page | frame("+selector+")")
}

// Aliases give the embedded interfaces field names that do not hide their
// Locator and FrameLocator methods.
type (
	pwFrameLocator = playwright.FrameLocator
	pwLocator      = playwright.Locator
)

var (
	_ playwright.Page         = (*fakePage)(nil)
	_ playwright.FrameLocator = (*fakeFrame)(nil)
	_ playwright.Locator      = (*fakeLocator)(nil)
)

type fakeFrame struct {
	pwFrameLocator
	dom   *fakeDOM
	trail string
}

func newFakeFrame(dom *fakeDOM, trail string) *fakeFrame {
	dom.record(trail)
	return &fakeFrame{dom: dom, trail: trail}
}

func (f *fakeFrame) Locator(selector interface{}, _ ...playwright.FrameLocatorLocatorOptions) playwright.Locator {
	return newFakeLocator(f.dom, f.trail+" | "+selector.(string))
}

func (f *fakeFrame) FrameLocator(selector string) playwright.FrameLocator {
	return newFakeFrame(f.dom, f.trail+" | frame("+selector+")")
}

type fakeLocator struct {
	pwLocator
	dom   *fakeDOM
	trail string
}

func newFakeLocator(dom *fakeDOM, trail string) *fakeLocator {
	dom.record(trail)
	return &fakeLocator{dom: dom, trail: trail}
}

func (l *fakeLocator) Locator(selector interface{}, _ ...playwright.LocatorLocatorOptions) playwright.Locator {
	return newFakeLocator(l.dom, l.trail+" | "+selector.(string))
}

func (l *fakeLocator) FrameLocator(selector string) playwright.FrameLocator {
	return newFakeFrame(l.dom, l.trail+" | frame("+selector+")")
}

func (l *fakeLocator) Evaluate(_ string, arg interface{}, _ ...playwright.LocatorEvaluateOptions) (interface{}, error) {
	return l.dom.eval(l.trail, arg)
}

func trailOf(l playwright.Locator) string {
	if f, ok := l.(*fakeLocator); ok {
		return f.trail
	}
	return ""
}

// markingDOM simulates shadow roots keyed by host trail. Each host holds a
// marker once one is assigned, mirroring the in-page probe.
type markingDOM struct {
	mu       sync.Mutex
	markers  map[string]string
	assigned int
}

func (m *markingDOM) probe(trail string, arg map[string]interface{}) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := trail + "#" + arg["strict"].(string)
	if id, ok := m.markers[key]; ok {
		return map[string]interface{}{"id": id, "noRoot": false, "assigned": false}, nil
	}
	id := arg["candidate"].(string)
	m.markers[key] = id
	m.assigned++
	return map[string]interface{}{"id": id, "noRoot": false, "assigned": true}, nil
}

func hasPrefix(s, prefix string) bool { return strings.HasPrefix(s, prefix) }
