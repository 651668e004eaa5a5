package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDLocator is the identifier for the element locator section
	SectionIDLocator = "locator"

	defaultShadowTimeout  = 1500 * time.Millisecond
	defaultShadowInterval = 50 * time.Millisecond
)

// LocatorSection tunes shadow root polling.
type LocatorSection struct {
	ShadowTimeout  time.Duration
	ShadowInterval time.Duration
	mu             sync.RWMutex
}

// NewLocatorSection creates a locator section with default settings.
func NewLocatorSection() *LocatorSection {
	return &LocatorSection{
		ShadowTimeout:  defaultShadowTimeout,
		ShadowInterval: defaultShadowInterval,
	}
}

// ID returns the section identifier.
func (s *LocatorSection) ID() string { return SectionIDLocator }

// Title returns the section title.
func (s *LocatorSection) Title() string { return "Locator" }

// Description returns the section description.
func (s *LocatorSection) Description() string {
	return "How long to poll inside a shadow root for an element, and how often."
}

// Data returns the current configuration data.
func (s *LocatorSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"shadow_timeout":  s.ShadowTimeout.String(),
		"shadow_interval": s.ShadowInterval.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *LocatorSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for key, value := range data {
		switch key {
		case "shadow_timeout":
			s.ShadowTimeout, err = durationValue(key, value)
		case "shadow_interval":
			s.ShadowInterval, err = durationValue(key, value)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *LocatorSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := checkRange("shadow_timeout", s.ShadowTimeout, 100*time.Millisecond, time.Minute); err != nil {
		return err
	}
	if err := checkRange("shadow_interval", s.ShadowInterval, 10*time.Millisecond, 5*time.Second); err != nil {
		return err
	}
	if s.ShadowInterval > s.ShadowTimeout {
		return fmt.Errorf("shadow_interval (%v) must not exceed shadow_timeout (%v)", s.ShadowInterval, s.ShadowTimeout)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LocatorSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ShadowTimeout = defaultShadowTimeout
	s.ShadowInterval = defaultShadowInterval
}

// Polling returns the shadow timeout and interval.
func (s *LocatorSection) Polling() (time.Duration, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ShadowTimeout, s.ShadowInterval
}
