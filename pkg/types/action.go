package types

import (
	"errors"
	"strings"
	"time"
)

// ActionRequest describes one action against the active page: which element
// (a structural path), which method and its arguments.
type ActionRequest struct {
	// Path is the structural path of the target element, e.g.
	// "/html/body/div[2]/iframe/html/body//button".
	Path string `json:"path" yaml:"path"`

	// Method is the operation to perform (click, fill, scrollTo, ...).
	Method string `json:"method" yaml:"method"`

	// Args are the method's positional arguments.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// TimeoutMs overrides the overall time allowed for the action. Zero
	// keeps the configured defaults.
	TimeoutMs int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

var (
	// ErrMissingPath is returned for a request without an element path.
	ErrMissingPath = errors.New("action request has no path")

	// ErrMissingMethod is returned for a request without a method.
	ErrMissingMethod = errors.New("action request has no method")
)

// NewActionRequest creates a request for method on the element at path.
func NewActionRequest(path, method string, args ...string) *ActionRequest {
	return &ActionRequest{
		Path:   path,
		Method: method,
		Args:   args,
	}
}

// WithTimeout sets the per-call timeout override and returns the request
// for chaining.
func (r *ActionRequest) WithTimeout(d time.Duration) *ActionRequest {
	r.TimeoutMs = int(d / time.Millisecond)
	return r
}

// Timeout returns the override as a duration, zero when unset.
func (r *ActionRequest) Timeout() time.Duration {
	if r.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// Arg returns the i-th argument or def when it is missing.
func (r *ActionRequest) Arg(i int, def string) string {
	if i < len(r.Args) {
		return r.Args[i]
	}
	return def
}

// Validate checks the request has what every method needs.
func (r *ActionRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return ErrMissingPath
	}
	if strings.TrimSpace(r.Method) == "" {
		return ErrMissingMethod
	}
	if r.TimeoutMs < 0 {
		return errors.New("action request timeout must not be negative")
	}
	return nil
}
