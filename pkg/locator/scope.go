package locator

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Scope is where the next locator of a path is created: a page, a frame
// document or an element. Exactly one field is set.
type Scope struct {
	page    playwright.Page
	frame   playwright.FrameLocator
	element playwright.Locator
}

// PageScope scopes resolution to the main document of p.
func PageScope(p playwright.Page) Scope { return Scope{page: p} }

// FrameScope scopes resolution to the document inside f.
func FrameScope(f playwright.FrameLocator) Scope { return Scope{frame: f} }

// ElementScope scopes resolution to descendants of l.
func ElementScope(l playwright.Locator) Scope { return Scope{element: l} }

// ElementScoped reports whether steps resolve relative to an element.
func (s Scope) ElementScoped() bool { return s.element != nil }

// Locator creates a locator for selector inside the scope.
func (s Scope) Locator(selector string) playwright.Locator {
	switch {
	case s.element != nil:
		return s.element.Locator(selector)
	case s.frame != nil:
		return s.frame.Locator(selector)
	default:
		return s.page.Locator(selector)
	}
}

// FrameLocator selects an iframe inside the scope.
func (s Scope) FrameLocator(selector string) playwright.FrameLocator {
	switch {
	case s.element != nil:
		return s.element.FrameLocator(selector)
	case s.frame != nil:
		return s.frame.FrameLocator(selector)
	default:
		return s.page.FrameLocator(selector)
	}
}

// xpath builds an absolute or relative xpath selector from steps.
func (s Scope) xpath(steps []string) string {
	if s.ElementScoped() {
		return "xpath=./" + strings.Join(steps, "/")
	}
	return "xpath=/" + strings.Join(steps, "/")
}

// rootElement addresses the document element of a page or frame scope.
func (s Scope) rootElement() playwright.Locator {
	return s.Locator("xpath=/")
}

// host returns the element a shadow hop descends from: the buffered steps if
// any, otherwise the scope element itself or the document element.
func (s Scope) host(buffer []string) playwright.Locator {
	switch {
	case len(buffer) > 0:
		return s.Locator(s.xpath(buffer))
	case s.element != nil:
		return s.element
	default:
		return s.Locator("xpath=/*")
	}
}
