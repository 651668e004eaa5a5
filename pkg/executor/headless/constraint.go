package headless

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

// ConstraintManager enforces safety limits during a script run
type ConstraintManager struct {
	config *ConstraintConfig

	// Runtime state tracking
	steps     int
	urls      []string
	startTime time.Time

	// Pattern matching
	urlMatcher *PatternMatcher

	mu sync.RWMutex
}

// ConstraintViolation represents a constraint violation error
type ConstraintViolation struct {
	Type    ViolationType
	Message string
	Details map[string]interface{}
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation (%s): %s", e.Type, e.Message)
}

// ViolationType identifies the type of constraint that was violated
type ViolationType string

const (
	ViolationMethodRestriction ViolationType = "method_restriction"
	ViolationURLPattern        ViolationType = "url_pattern"
	ViolationStepCount         ViolationType = "step_count"
	ViolationTimeout           ViolationType = "timeout"
)

// NewConstraintManager creates a new constraint manager
func NewConstraintManager(config ConstraintConfig) (*ConstraintManager, error) {
	urlMatcher, err := NewPatternMatcher(config.AllowedURLs, config.DeniedURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to create url matcher: %w", err)
	}

	return &ConstraintManager{
		config:     &config,
		startTime:  time.Now(),
		urlMatcher: urlMatcher,
	}, nil
}

// ValidateMethod checks an act step's method against the allowed list
func (cm *ConstraintManager) ValidateMethod(method string) error {
	if len(cm.config.AllowedMethods) == 0 {
		return nil
	}
	for _, allowed := range cm.config.AllowedMethods {
		if strings.EqualFold(allowed, method) {
			return nil
		}
	}
	return &ConstraintViolation{
		Type:    ViolationMethodRestriction,
		Message: fmt.Sprintf("method %q is not in allowed_methods", method),
		Details: map[string]interface{}{
			"method":          method,
			"allowed_methods": cm.config.AllowedMethods,
		},
	}
}

// ValidateURL checks a URL the script navigates to, or that an action landed
// on, against the URL patterns. Allowed URLs are remembered for the report.
func (cm *ConstraintManager) ValidateURL(url string) error {
	if url == "" || url == "about:blank" {
		return nil
	}
	if !cm.urlMatcher.IsAllowed(url) {
		return &ConstraintViolation{
			Type:    ViolationURLPattern,
			Message: fmt.Sprintf("url %q is not allowed by url patterns", url),
			Details: map[string]interface{}{
				"url":          url,
				"allowed_urls": cm.config.AllowedURLs,
				"denied_urls":  cm.config.DeniedURLs,
			},
		}
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, seen := range cm.urls {
		if seen == url {
			return nil
		}
	}
	cm.urls = append(cm.urls, url)
	return nil
}

// RecordStep counts a step about to run and enforces max_steps
func (cm *ConstraintManager) RecordStep() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.steps++
	if cm.config.MaxSteps > 0 && cm.steps > cm.config.MaxSteps {
		return &ConstraintViolation{
			Type:    ViolationStepCount,
			Message: fmt.Sprintf("step limit exceeded (%d)", cm.config.MaxSteps),
			Details: map[string]interface{}{
				"max_steps": cm.config.MaxSteps,
				"steps":     cm.steps,
			},
		}
	}
	return nil
}

// CheckTimeout checks if execution has exceeded the timeout
func (cm *ConstraintManager) CheckTimeout() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.config.Timeout <= 0 {
		return nil // No timeout configured
	}

	elapsed := time.Since(cm.startTime)
	if elapsed > cm.config.Timeout {
		return &ConstraintViolation{
			Type:    ViolationTimeout,
			Message: fmt.Sprintf("execution timeout exceeded (%v)", cm.config.Timeout),
			Details: map[string]interface{}{
				"timeout": cm.config.Timeout,
				"elapsed": elapsed,
			},
		}
	}

	return nil
}

// GetCurrentState returns the current constraint state
func (cm *ConstraintManager) GetCurrentState() *ConstraintState {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return &ConstraintState{
		Steps:       cm.steps,
		VisitedURLs: append([]string(nil), cm.urls...),
		Elapsed:     time.Since(cm.startTime),
	}
}

// ConstraintState represents the current state of constraint tracking
type ConstraintState struct {
	Steps       int
	VisitedURLs []string
	Elapsed     time.Duration
}

// PatternMatcher handles glob pattern matching for URL access control
type PatternMatcher struct {
	allowedPatterns []glob.Glob
	deniedPatterns  []glob.Glob
}

// NewPatternMatcher creates a new pattern matcher. Patterns are compiled
// without separators, so "*" also matches "/".
func NewPatternMatcher(allowed, denied []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{}

	// Compile allowed patterns
	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		pm.allowedPatterns = append(pm.allowedPatterns, g)
	}

	// Compile denied patterns
	for _, pattern := range denied {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		pm.deniedPatterns = append(pm.deniedPatterns, g)
	}

	return pm, nil
}

// IsAllowed returns true if the value is allowed by the pattern rules
func (pm *PatternMatcher) IsAllowed(value string) bool {
	// Denied patterns take precedence
	for _, pattern := range pm.deniedPatterns {
		if pattern.Match(value) {
			return false
		}
	}

	// If no allowed patterns specified, allow all (except denied)
	if len(pm.allowedPatterns) == 0 {
		return true
	}

	for _, pattern := range pm.allowedPatterns {
		if pattern.Match(value) {
			return true
		}
	}

	return false
}

// MatchURL reports whether url matches the glob pattern.
func MatchURL(pattern, url string) (bool, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid url pattern '%s': %w", pattern, err)
	}
	return g.Match(url), nil
}
