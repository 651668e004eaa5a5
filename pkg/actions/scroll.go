package actions

import (
	"context"

	"github.com/entrhq/pagehand/pkg/locator"
	"github.com/entrhq/pagehand/pkg/logging"
)

const scrollIntoViewScript = `(el) => {
  el.scrollIntoView({ behavior: "smooth", block: "center" });
}`

// scrollToPercentScript scrolls vertically to a percentage of the scrollable
// height. The document root scrolls the window.
const scrollToPercentScript = `(el, yArg) => {
  const parsePercent = (val) => {
    const n = parseFloat(String(val).trim().replace("%", ""));
    return Number.isNaN(n) ? 0 : Math.max(0, Math.min(n, 100));
  };
  const pct = parsePercent(yArg) / 100;
  if (el.tagName.toLowerCase() === "html") {
    const top = (document.body.scrollHeight - window.innerHeight) * pct;
    window.scrollTo({ top, left: window.scrollX, behavior: "smooth" });
    return;
  }
  const top = (el.scrollHeight - el.clientHeight) * pct;
  el.scrollTo({ top, left: el.scrollLeft, behavior: "smooth" });
}`

// scrollChunkScript scrolls one viewport (document) or one element height
// in direction and resolves once scrollTop is unchanged across two
// animation frames.
const scrollChunkScript = `(el, direction) => {
  const waitForScrollEnd = (target) => new Promise((resolve) => {
    let last = target.scrollTop ?? 0;
    const check = () => {
      const cur = target.scrollTop ?? 0;
      if (cur === last) return resolve();
      last = cur;
      requestAnimationFrame(check);
    };
    requestAnimationFrame(check);
  });
  const tag = el.tagName.toLowerCase();
  if (tag === "html" || tag === "body") {
    const height = window.visualViewport?.height ?? window.innerHeight;
    window.scrollBy({ top: direction * height, left: 0, behavior: "smooth" });
    return waitForScrollEnd(document.scrollingElement ?? document.documentElement);
  }
  const height = el.getBoundingClientRect().height;
  el.scrollBy({ top: direction * height, left: 0, behavior: "smooth" });
  return waitForScrollEnd(el);
}`

func (d *Dispatcher) scrollIntoView(ctx context.Context, h *locator.Handle, path string) error {
	d.logAction(logging.LevelDebug, "scrolling element into view", map[string]any{"path": path})

	if _, err := h.Locator.Evaluate(scrollIntoViewScript, nil, evalTimeout(ctx, d.opts.ChunkTimeout)); err != nil {
		d.logAction(logging.LevelInfo, "error scrolling element into view", map[string]any{"path": path, "error": err.Error()})
		return err
	}
	return nil
}

func (d *Dispatcher) scrollToPercent(ctx context.Context, h *locator.Handle, path string, args []string) error {
	y := argAt(args, 0, "0%")
	d.logAction(logging.LevelDebug, "scrolling element vertically to percentage", map[string]any{"path": path, "y": y})

	if _, err := h.Locator.Evaluate(scrollToPercentScript, y, evalTimeout(ctx, d.opts.ChunkTimeout)); err != nil {
		d.logAction(logging.LevelInfo, "error scrolling element to percentage", map[string]any{"path": path, "y": y, "error": err.Error()})
		return err
	}
	return nil
}

func (d *Dispatcher) scrollChunk(ctx context.Context, h *locator.Handle, path string, direction int) error {
	what := "next"
	if direction < 0 {
		what = "previous"
	}
	d.logAction(logging.LevelDebug, "scrolling to "+what+" chunk", map[string]any{"path": path})

	if _, err := h.Locator.Evaluate(scrollChunkScript, direction, evalTimeout(ctx, d.opts.ChunkTimeout)); err != nil {
		d.logAction(logging.LevelInfo, "error scrolling to "+what+" chunk", map[string]any{"path": path, "error": err.Error()})
		return err
	}
	return nil
}
