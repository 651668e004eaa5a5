package frames

import (
	"github.com/playwright-community/playwright-go"
)

// ActivePage is a stable handle that resolves the tracker's active page on
// every call, so holders follow tab switches without rebinding.
type ActivePage struct {
	tracker *Tracker
}

// Page returns the page currently designated active.
func (a *ActivePage) Page() (*Page, error) {
	p, err := a.tracker.Active()
	if err != nil {
		return nil, err
	}
	if p.Closed() || p.native.IsClosed() {
		return nil, ErrPageClosed
	}
	return p, nil
}

// Native returns the active Playwright page.
func (a *ActivePage) Native() (playwright.Page, error) {
	p, err := a.Page()
	if err != nil {
		return nil, err
	}
	return p.native, nil
}

// ID returns the active page's id.
func (a *ActivePage) ID() (PageID, error) {
	p, err := a.Page()
	if err != nil {
		return "", err
	}
	return p.id, nil
}

// URL returns the active page's URL.
func (a *ActivePage) URL() (string, error) {
	p, err := a.Page()
	if err != nil {
		return "", err
	}
	return p.native.URL(), nil
}

// Title returns the active page's title.
func (a *ActivePage) Title() (string, error) {
	p, err := a.Page()
	if err != nil {
		return "", err
	}
	return p.native.Title()
}

// Content returns the active page's serialized HTML.
func (a *ActivePage) Content() (string, error) {
	p, err := a.Page()
	if err != nil {
		return "", err
	}
	return p.native.Content()
}

// Goto navigates the active page.
func (a *ActivePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p, err := a.Page()
	if err != nil {
		return nil, err
	}
	return p.native.Goto(url, options...)
}

// Screenshot captures the active page.
func (a *ActivePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	p, err := a.Page()
	if err != nil {
		return nil, err
	}
	return p.native.Screenshot(options...)
}

// PDF renders the active page. Chromium only, headless only.
func (a *ActivePage) PDF(options ...playwright.PagePdfOptions) ([]byte, error) {
	p, err := a.Page()
	if err != nil {
		return nil, err
	}
	return p.native.PDF(options...)
}

// Evaluate runs expression in the active page.
func (a *ActivePage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p, err := a.Page()
	if err != nil {
		return nil, err
	}
	return p.native.Evaluate(expression, arg...)
}

// Press sends one key through the active page's keyboard.
func (a *ActivePage) Press(key string) error {
	p, err := a.Page()
	if err != nil {
		return err
	}
	return p.native.Keyboard().Press(key)
}
