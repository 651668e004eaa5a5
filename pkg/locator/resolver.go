package locator

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/logging"
)

// Handle is a live reference to one element.
type Handle struct {
	Locator playwright.Locator
	// Path is the path the handle was resolved from.
	Path string
	// Marker is the marker value when the element was the match of a
	// trailing shadow segment.
	Marker string
	// ElementScoped is true when the final locator was created relative to
	// an element rather than a document.
	ElementScoped bool
}

// Resolver turns structural paths into handles, descending through iframes
// and shadow roots.
type Resolver struct {
	shadow *ShadowResolver
	sink   logging.Sink
}

// NewResolver creates a path resolver that delegates shadow segments to
// shadow. A nil shadow resolver uses default polling.
func NewResolver(shadow *ShadowResolver, sink logging.Sink) *Resolver {
	if shadow == nil {
		shadow = NewShadowResolver(ShadowOptions{}, sink)
	}
	return &Resolver{shadow: shadow, sink: logging.OrNop(sink)}
}

// Shadow returns the resolver used for shadow segments.
func (r *Resolver) Shadow() *ShadowResolver { return r.shadow }

// Resolve parses path and walks it from root. Plain steps are buffered into
// one xpath; an iframe step flushes the buffer into a frame locator; a shadow
// hop flushes it into the host locator and resolves the segment inside the
// host's shadow root. Malformed paths fail before any DOM query.
func (r *Resolver) Resolve(ctx context.Context, root Scope, path string) (*Handle, error) {
	hops, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.sink.Log(logging.LogLine{
		Category:  "locator",
		Message:   "resolving path",
		Level:     logging.LevelDebug,
		Auxiliary: map[string]any{"path": path, "hops": len(hops)},
	})

	scope := root
	var buffer []string
	marker := ""

	for _, hop := range hops {
		switch hop.Kind {
		case HopStep:
			buffer = append(buffer, hop.Raw)

		case HopIframe:
			buffer = append(buffer, hop.Raw)
			scope = FrameScope(scope.FrameLocator(scope.xpath(buffer)))
			buffer = nil
			marker = ""

		case HopShadow:
			host := scope.host(buffer)
			buffer = nil
			loc, id, err := r.shadow.Resolve(ctx, host, rawSteps(hop.Segment))
			if err != nil {
				return nil, err
			}
			scope = ElementScope(loc)
			marker = id
		}
	}

	handle := &Handle{Path: path, ElementScoped: true}
	switch {
	case len(buffer) > 0:
		handle.Locator = scope.Locator(scope.xpath(buffer))
		handle.ElementScoped = scope.ElementScoped()
	case scope.ElementScoped():
		handle.Locator = scope.element
		handle.Marker = marker
	default:
		handle.Locator = scope.rootElement()
		handle.ElementScoped = false
	}
	return handle, nil
}
