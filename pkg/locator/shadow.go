package locator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/logging"
)

// Default polling bounds for shadow segment resolution.
const (
	DefaultShadowTimeout  = 1500 * time.Millisecond
	DefaultShadowInterval = 50 * time.Millisecond
)

// ShadowOptions bounds the search inside one shadow root.
type ShadowOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (o ShadowOptions) withDefaults() ShadowOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultShadowTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultShadowInterval
	}
	return o
}

// ShadowResolver finds one contiguous run of steps inside a host's shadow
// root and returns a marker-based locator for the match.
type ShadowResolver struct {
	opts ShadowOptions
	sink logging.Sink
}

// NewShadowResolver creates a resolver. Zero option fields take defaults and a
// nil sink discards diagnostics.
func NewShadowResolver(opts ShadowOptions, sink logging.Sink) *ShadowResolver {
	return &ShadowResolver{opts: opts.withDefaults(), sink: logging.OrNop(sink)}
}

// Options returns the effective polling bounds.
func (s *ShadowResolver) Options() ShadowOptions { return s.opts }

type probeResult struct {
	id       string
	noRoot   bool
	assigned bool
}

// Resolve polls inside host's shadow root until steps match or the timeout
// passes. The first probe runs immediately. It returns the locator for the
// match and its marker value.
func (s *ShadowResolver) Resolve(ctx context.Context, host playwright.Locator, steps []string) (playwright.Locator, string, error) {
	if len(steps) == 0 {
		return nil, "", ErrEmptyShadowSegment
	}

	hops := make([]Hop, len(steps))
	for i, step := range steps {
		hops[i] = parseStep(step)
	}
	segment := strings.Join(steps, "/")
	arg := map[string]interface{}{
		"strict":     StrictSelector(hops),
		"descendant": DescendantSelector(hops),
		"attr":       MarkerAttribute,
	}

	deadline := time.Now().Add(s.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		arg["candidate"] = newMarker()
		res, err := s.probe(host, arg, deadline)
		if err != nil {
			return nil, "", &ProbeError{Segment: segment, Err: err}
		}
		if res.noRoot {
			return nil, "", &ShadowRootMissingError{Segment: segment}
		}
		if res.id != "" {
			if res.assigned {
				s.sink.Log(logging.LogLine{
					Category:  "locator",
					Message:   "marked shadow element",
					Level:     logging.LevelDebug,
					Auxiliary: map[string]any{"segment": segment, "marker": res.id},
				})
			}
			return host.Locator(SelectorEngine + "=" + res.id), res.id, nil
		}
		if !time.Now().Before(deadline) {
			return nil, "", &ShadowElementNotFoundError{Path: segment}
		}

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *ShadowResolver) probe(host playwright.Locator, arg map[string]interface{}, deadline time.Time) (probeResult, error) {
	// The host itself may still be attaching; give the evaluate whatever is
	// left of the budget, but never less than one interval.
	wait := time.Until(deadline)
	if wait < s.opts.Interval {
		wait = s.opts.Interval
	}

	raw, err := host.Evaluate(probeScript, arg, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(float64(wait.Milliseconds())),
	})
	if err != nil {
		return probeResult{}, err
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return probeResult{}, fmt.Errorf("unexpected probe result %T", raw)
	}
	res := probeResult{}
	res.id, _ = m["id"].(string)
	res.noRoot, _ = m["noRoot"].(bool)
	res.assigned, _ = m["assigned"].(bool)
	return res, nil
}

// ClearMarkers removes every marker attribute from page, including inside
// reachable shadow roots, and returns how many were removed. Markers are
// otherwise never removed.
func (s *ShadowResolver) ClearMarkers(ctx context.Context, page playwright.Page) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := page.Evaluate(clearMarkersScript, MarkerAttribute)
	if err != nil {
		return 0, fmt.Errorf("failed to clear markers: %w", err)
	}
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case float64:
		n = int(v)
	}
	s.sink.Log(logging.LogLine{
		Category:  "locator",
		Message:   "cleared shadow markers",
		Level:     logging.LevelDebug,
		Auxiliary: map[string]any{"count": n},
	})
	return n, nil
}

// newMarker returns "ph_" followed by a random base36 part and the current
// time in base36.
func newMarker() string {
	return "ph_" + strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatInt(time.Now().UnixMilli(), 36)
}
