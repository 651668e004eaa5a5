package config

import (
	"sync"
	"time"
)

const (
	// SectionIDActions is the identifier for the action dispatch section
	SectionIDActions = "actions"

	defaultClickTimeout  = 3500 * time.Millisecond
	defaultNewTabWait    = 1500 * time.Millisecond
	defaultSettleTimeout = 30 * time.Second
	defaultSelectTimeout = 5 * time.Second
	defaultChunkTimeout  = 10 * time.Second
)

// ActionsSection holds the per-method timeouts used when acting on elements.
type ActionsSection struct {
	ClickTimeout  time.Duration
	NewTabWait    time.Duration
	SettleTimeout time.Duration
	SelectTimeout time.Duration
	ChunkTimeout  time.Duration
	mu            sync.RWMutex
}

// ActionTimeouts is a plain copy of ActionsSection.
type ActionTimeouts struct {
	Click  time.Duration
	NewTab time.Duration
	Settle time.Duration
	Select time.Duration
	Chunk  time.Duration
}

// NewActionsSection creates an actions section with default settings.
func NewActionsSection() *ActionsSection {
	s := &ActionsSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *ActionsSection) ID() string { return SectionIDActions }

// Title returns the section title.
func (s *ActionsSection) Title() string { return "Actions" }

// Description returns the section description.
func (s *ActionsSection) Description() string {
	return "Timeouts for clicks, dropdown selection, chunk scrolling, new-tab detection and DOM settling."
}

func (s *ActionsSection) fields() map[string]*time.Duration {
	return map[string]*time.Duration{
		"click_timeout":  &s.ClickTimeout,
		"new_tab_wait":   &s.NewTabWait,
		"settle_timeout": &s.SettleTimeout,
		"select_timeout": &s.SelectTimeout,
		"chunk_timeout":  &s.ChunkTimeout,
	}
}

// Data returns the current configuration data.
func (s *ActionsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]interface{})
	for key, field := range s.fields() {
		data[key] = field.String()
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *ActionsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.fields()
	for key, value := range data {
		field, ok := fields[key]
		if !ok {
			continue
		}
		d, err := durationValue(key, value)
		if err != nil {
			return err
		}
		*field = d
	}
	return nil
}

// Validate validates the current configuration.
func (s *ActionsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, field := range s.fields() {
		if err := checkRange(key, *field, 100*time.Millisecond, 5*time.Minute); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ActionsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ClickTimeout = defaultClickTimeout
	s.NewTabWait = defaultNewTabWait
	s.SettleTimeout = defaultSettleTimeout
	s.SelectTimeout = defaultSelectTimeout
	s.ChunkTimeout = defaultChunkTimeout
}

// Timeouts returns a copy of the configured timeouts.
func (s *ActionsSection) Timeouts() ActionTimeouts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ActionTimeouts{
		Click:  s.ClickTimeout,
		NewTab: s.NewTabWait,
		Settle: s.SettleTimeout,
		Select: s.SelectTimeout,
		Chunk:  s.ChunkTimeout,
	}
}
