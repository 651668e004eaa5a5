package locator

import (
	"errors"
	"fmt"
)

// ErrEmptyShadowSegment is returned for a path with two shadow hops and no
// steps between them, or a shadow hop at the end of the path.
var ErrEmptyShadowSegment = errors.New("empty shadow segment")

// ShadowRootMissingError means the host has neither an open shadow root nor a
// closed one recorded by the backdoor script.
type ShadowRootMissingError struct {
	Segment string
}

func (e *ShadowRootMissingError) Error() string {
	return fmt.Sprintf("no shadow root for segment %q", e.Segment)
}

// ShadowElementNotFoundError means polling inside the shadow root ran out of
// time without a match.
type ShadowElementNotFoundError struct {
	Path string
}

func (e *ShadowElementNotFoundError) Error() string {
	return fmt.Sprintf("shadow segment %q not found", e.Path)
}

// ProbeError wraps a failure of the in-page shadow probe itself, for example
// when the host element never appeared.
type ProbeError struct {
	Segment string
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("shadow probe for %q failed: %v", e.Segment, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
