package actions

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// minBudget keeps a nearly expired context from producing a zero timeout,
// which Playwright reads as "no timeout".
const minBudget = 10 * time.Millisecond

// budget returns d clamped to the time left on ctx.
func budget(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < minBudget {
		d = minBudget
	}
	return d
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d) / float64(time.Millisecond))
}

func evalTimeout(ctx context.Context, d time.Duration) playwright.LocatorEvaluateOptions {
	return playwright.LocatorEvaluateOptions{Timeout: millis(budget(ctx, d))}
}
