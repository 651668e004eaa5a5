package actions

import (
	"context"
	"errors"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/frames"
	"github.com/entrhq/pagehand/pkg/logging"
)

// beforeNavigation arms a tab watch and records the acting page's URL.
func (d *Dispatcher) beforeNavigation(cc CallContext) (*frames.PageWatch, string) {
	var watch *frames.PageWatch
	if cc.Tracker != nil {
		watch = cc.Tracker.Watch()
	}
	initialURL := ""
	if cc.Page != nil {
		initialURL = cc.Page.URL()
	}
	return watch, initialURL
}

// afterNavigation waits out whatever the action may have started: a new tab
// gets time to reach DOMContentLoaded, then the acting page is given time
// to stop mutating. Nothing here fails the action.
func (d *Dispatcher) afterNavigation(ctx context.Context, action, path string, cc CallContext, watch *frames.PageWatch, initialURL string) {
	d.logAction(logging.LevelInfo, action+", checking for page navigation", map[string]any{"path": path})

	var opened *frames.Page
	if watch != nil {
		opened = watch.Next(ctx, budget(ctx, d.opts.NewTabWait))
	}

	outcome := "no new tabs opened"
	if opened != nil {
		outcome = "opened a new tab"
	}
	d.logAction(logging.LevelInfo, action+" complete", map[string]any{"newOpenedTab": outcome})

	if opened != nil && opened.URL() != "about:blank" {
		d.logAction(logging.LevelInfo, "new page detected (new tab) with URL", map[string]any{"url": opened.URL()})
		err := opened.Native().WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: millis(budget(ctx, d.settleTimeout(cc))),
		})
		if err != nil {
			d.logAction(logging.LevelInfo, "new tab did not finish loading", map[string]any{"url": opened.URL(), "error": err.Error()})
		}
	}

	if cc.Page == nil {
		return
	}

	if err := d.opts.Settler.WaitForSettledDOM(ctx, cc.Page.Native(), budget(ctx, d.settleTimeout(cc))); err != nil {
		msg := "error waiting for settled DOM"
		if errors.Is(err, ErrSettleTimeout) {
			msg = "wait for settled DOM timeout hit"
		}
		d.logAction(logging.LevelInfo, msg, map[string]any{"error": err.Error()})
	}

	d.logAction(logging.LevelInfo, "finished waiting for (possible) page navigation", nil)

	if current := cc.Page.URL(); current != initialURL {
		d.logAction(logging.LevelInfo, "new page detected with URL", map[string]any{"url": current, "from": initialURL})
	}
}

func (d *Dispatcher) settleTimeout(cc CallContext) time.Duration {
	if cc.SettleTimeout > 0 {
		return cc.SettleTimeout
	}
	return d.opts.SettleTimeout
}
