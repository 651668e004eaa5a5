//go:build integration

package actions

import (
	"context"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagehand/pkg/locator"
)

const formFixture = `<html><body>
<input id="name" value="old">
<select id="country"><option>Chile</option><option>Canada</option></select>
<button id="covered" onclick="document.title='clicked'">Go</button>
<div style="position:fixed;inset:0;z-index:10"></div>
</body></html>`

func newFormPage(t *testing.T) playwright.Page {
	t.Helper()
	pw, err := playwright.Run()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pw.Stop() })

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = browser.Close() })

	page, err := browser.NewPage()
	require.NoError(t, err)
	require.NoError(t, page.SetContent(formFixture))
	return page
}

func resolve(t *testing.T, page playwright.Page, path string) *locator.Handle {
	t.Helper()
	h, err := locator.NewResolver(nil, nil).Resolve(context.Background(), locator.PageScope(page), path)
	require.NoError(t, err)
	return h
}

func TestIntegrationFillReplacesValue(t *testing.T) {
	page := newFormPage(t)
	d := NewDispatcher(Options{}, nil)

	h := resolve(t, page, "/html/body/input")
	require.NoError(t, d.Execute(context.Background(), h, "fill", []string{"new"}, CallContext{}))

	v, err := h.Locator.InputValue()
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestIntegrationSelectByLabel(t *testing.T) {
	page := newFormPage(t)
	d := NewDispatcher(Options{}, nil)

	h := resolve(t, page, "/html/body/select")
	require.NoError(t, d.Execute(context.Background(), h, "selectOptionFromDropdown", []string{"Canada"}, CallContext{}))

	v, err := h.Locator.InputValue()
	require.NoError(t, err)
	assert.Equal(t, "Canada", v)
}

func TestIntegrationCoveredClickFallsBack(t *testing.T) {
	page := newFormPage(t)
	d := NewDispatcher(Options{ClickTimeout: 300 * time.Millisecond}, nil)

	h := resolve(t, page, "/html/body/button")
	require.NoError(t, d.Execute(context.Background(), h, "click", nil, CallContext{}))

	title, err := page.Title()
	require.NoError(t, err)
	assert.Equal(t, "clicked", title)
}
