package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser launch section
	SectionIDBrowser = "browser"

	defaultHeadless       = true
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
	defaultBrowserTimeout = 30 * time.Second
	defaultMaxSessions    = 5
)

// BrowserSection configures how browser sessions are launched.
type BrowserSection struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	DefaultTimeout time.Duration
	Channel        string
	MaxSessions    int
	mu             sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string { return SectionIDBrowser }

// Title returns the section title.
func (s *BrowserSection) Title() string { return "Browser" }

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser launch options: headless mode, viewport, default operation timeout and session limit."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"headless":        s.Headless,
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"default_timeout": s.DefaultTimeout.String(),
		"channel":         s.Channel,
		"max_sessions":    s.MaxSessions,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for key, value := range data {
		switch key {
		case "headless":
			s.Headless, err = boolValue(key, value)
		case "viewport_width":
			s.ViewportWidth, err = intValue(key, value)
		case "viewport_height":
			s.ViewportHeight, err = intValue(key, value)
		case "default_timeout":
			s.DefaultTimeout, err = durationValue(key, value)
		case "channel":
			s.Channel, err = stringValue(key, value)
		case "max_sessions":
			s.MaxSessions, err = intValue(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	if s.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be at least 1, got %d", s.MaxSessions)
	}
	return checkRange("default_timeout", s.DefaultTimeout, time.Second, 10*time.Minute)
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultHeadless
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.DefaultTimeout = defaultBrowserTimeout
	s.Channel = ""
	s.MaxSessions = defaultMaxSessions
}

// Snapshot returns a copy of the current values.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BrowserSettings{
		Headless:       s.Headless,
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
		DefaultTimeout: s.DefaultTimeout,
		Channel:        s.Channel,
		MaxSessions:    s.MaxSessions,
	}
}

// BrowserSettings is a plain copy of BrowserSection.
type BrowserSettings struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	DefaultTimeout time.Duration
	Channel        string
	MaxSessions    int
}
