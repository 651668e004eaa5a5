package actions

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/locator"
	"github.com/entrhq/pagehand/pkg/logging"
)

const jsClickScript = `(el) => el.click()`

// click tries a native click and falls back to the element's own click()
// when Playwright refuses (covered, detached or animating elements).
func (d *Dispatcher) click(ctx context.Context, h *locator.Handle, path string, args []string, cc CallContext) error {
	watch, initialURL := d.beforeNavigation(cc)
	if watch != nil {
		defer watch.Stop()
	}
	if cc.Page != nil {
		d.logAction(logging.LevelDebug, "page URL before click", map[string]any{"url": initialURL})
	}

	err := h.Locator.Click(playwright.LocatorClickOptions{Timeout: millis(budget(ctx, d.opts.ClickTimeout))})
	if err != nil {
		d.logAction(logging.LevelInfo, "native click failed, falling back to script click", map[string]any{
			"path":   path,
			"args":   args,
			"error":  err.Error(),
			"method": "click",
		})

		if _, err := h.Locator.Evaluate(jsClickScript, nil, evalTimeout(ctx, d.opts.ClickTimeout)); err != nil {
			d.logAction(logging.LevelError, "error performing click (script fallback)", map[string]any{
				"path":   path,
				"args":   args,
				"error":  err.Error(),
				"method": "click",
			})
			return &ClickError{Path: path, Cause: err}
		}
	}

	d.afterNavigation(ctx, "click", path, cc, watch, initialURL)
	return nil
}
