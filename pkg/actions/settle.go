package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SettleWaiter blocks until a page's DOM stops changing.
type SettleWaiter interface {
	WaitForSettledDOM(ctx context.Context, page playwright.Page, timeout time.Duration) error
}

// SettleFunc adapts a function to SettleWaiter.
type SettleFunc func(ctx context.Context, page playwright.Page, timeout time.Duration) error

func (f SettleFunc) WaitForSettledDOM(ctx context.Context, page playwright.Page, timeout time.Duration) error {
	return f(ctx, page, timeout)
}

// DefaultQuietWindow is how long the DOM must go without mutations to count
// as settled.
const DefaultQuietWindow = 500 * time.Millisecond

// settleScript resolves "settled" after quiet ms without mutations, or
// "timeout" after timeout ms. The quiet window starts once the document has
// parsed.
const settleScript = `({ quiet, timeout }) => new Promise((resolve) => {
  let done = false;
  let timer = null;
  let hard = null;
  let observer = null;
  const finish = (result) => {
    if (done) return;
    done = true;
    if (observer) observer.disconnect();
    clearTimeout(timer);
    clearTimeout(hard);
    resolve(result);
  };
  const arm = () => {
    clearTimeout(timer);
    timer = setTimeout(() => finish("settled"), quiet);
  };
  observer = new MutationObserver(arm);
  observer.observe(document.documentElement || document, {
    childList: true, subtree: true, attributes: true, characterData: true,
  });
  hard = setTimeout(() => finish("timeout"), timeout);
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", arm, { once: true });
  } else {
    arm();
  }
})`

// QuietWindowSettler waits for a MutationObserver-measured quiet window in
// the page.
type QuietWindowSettler struct {
	Quiet time.Duration
}

// NewQuietWindowSettler creates a settler. A non-positive quiet window
// uses DefaultQuietWindow.
func NewQuietWindowSettler(quiet time.Duration) *QuietWindowSettler {
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	return &QuietWindowSettler{Quiet: quiet}
}

// WaitForSettledDOM returns ErrSettleTimeout when the page never went quiet
// within timeout.
func (s *QuietWindowSettler) WaitForSettledDOM(ctx context.Context, page playwright.Page, timeout time.Duration) error {
	if page == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout = budget(ctx, timeout)

	res, err := page.Evaluate(settleScript, map[string]interface{}{
		"quiet":   s.Quiet.Milliseconds(),
		"timeout": timeout.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("settle probe failed: %w", err)
	}
	if res == "timeout" {
		return fmt.Errorf("%w after %s", ErrSettleTimeout, timeout)
	}
	return nil
}
