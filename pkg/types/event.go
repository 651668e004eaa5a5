package types

import "time"

// EventType defines the type of event emitted while a session runs.
type EventType string

const (
	EventTypeSessionStart  EventType = "session_start"  // EventTypeSessionStart indicates a browser session was opened.
	EventTypeSessionEnd    EventType = "session_end"    // EventTypeSessionEnd indicates a browser session was closed.
	EventTypeStepStart     EventType = "step_start"     // EventTypeStepStart indicates a script step is starting.
	EventTypeStepComplete  EventType = "step_complete"  // EventTypeStepComplete indicates a script step finished successfully.
	EventTypeStepFailed    EventType = "step_failed"    // EventTypeStepFailed indicates a script step returned an error.
	EventTypeActionResolve EventType = "action_resolve" // EventTypeActionResolve indicates a path was resolved to an element.
	EventTypeActionResult  EventType = "action_result"  // EventTypeActionResult indicates an action finished.
	EventTypePageOpened    EventType = "page_opened"    // EventTypePageOpened indicates a new tab was adopted.
	EventTypePageSwitched  EventType = "page_switched"  // EventTypePageSwitched indicates the active tab changed.
	EventTypeNavigation    EventType = "navigation"     // EventTypeNavigation indicates the active tab's URL changed.
	EventTypeArtifact      EventType = "artifact"       // EventTypeArtifact indicates a file was written.
	EventTypeError         EventType = "error"          // EventTypeError indicates an error outside a step.
)

// Event represents something that happened while driving the browser.
type Event struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// Action is the request involved (for action events).
	Action *ActionRequest

	// Step contains step information (for step events).
	Step *StepInfo

	// Page contains tab information (for page and navigation events).
	Page *PageInfo

	// Error contains error information for failure events.
	Error error

	// Content holds free text, such as an artifact path.
	Content string

	// Type indicates the kind of event.
	Type EventType

	// Time is when the event was created.
	Time time.Time
}

// StepInfo describes one script step.
type StepInfo struct {
	// Index is the zero-based position of the step in the script.
	Index int

	// Kind is the step's kind (goto, act, screenshot, ...).
	Kind string

	// Duration is how long the step took, set on completion events.
	Duration time.Duration
}

// PageInfo describes a tab.
type PageInfo struct {
	// ID is the tracker-assigned page id.
	ID string

	// URL is the tab's URL when the event was created.
	URL string

	// PreviousURL is the URL before a navigation.
	PreviousURL string
}

func newEvent(t EventType) *Event {
	return &Event{
		Type:     t,
		Time:     time.Now(),
		Metadata: make(map[string]interface{}),
	}
}

// NewSessionStartEvent creates a session start event.
func NewSessionStartEvent(name string) *Event {
	e := newEvent(EventTypeSessionStart)
	e.Content = name
	return e
}

// NewSessionEndEvent creates a session end event.
func NewSessionEndEvent(name string) *Event {
	e := newEvent(EventTypeSessionEnd)
	e.Content = name
	return e
}

// NewStepStartEvent creates a step start event.
func NewStepStartEvent(index int, kind string) *Event {
	e := newEvent(EventTypeStepStart)
	e.Step = &StepInfo{Index: index, Kind: kind}
	return e
}

// NewStepCompleteEvent creates a step complete event.
func NewStepCompleteEvent(index int, kind string, d time.Duration) *Event {
	e := newEvent(EventTypeStepComplete)
	e.Step = &StepInfo{Index: index, Kind: kind, Duration: d}
	return e
}

// NewStepFailedEvent creates a step failure event.
func NewStepFailedEvent(index int, kind string, d time.Duration, err error) *Event {
	e := newEvent(EventTypeStepFailed)
	e.Step = &StepInfo{Index: index, Kind: kind, Duration: d}
	e.Error = err
	return e
}

// NewActionResolveEvent creates an event for a resolved path.
func NewActionResolveEvent(req *ActionRequest) *Event {
	e := newEvent(EventTypeActionResolve)
	e.Action = req
	return e
}

// NewActionResultEvent creates an action result event. err is nil on
// success.
func NewActionResultEvent(req *ActionRequest, err error) *Event {
	e := newEvent(EventTypeActionResult)
	e.Action = req
	e.Error = err
	return e
}

// NewPageOpenedEvent creates a page opened event.
func NewPageOpenedEvent(id, url string) *Event {
	e := newEvent(EventTypePageOpened)
	e.Page = &PageInfo{ID: id, URL: url}
	return e
}

// NewPageSwitchedEvent creates a page switched event.
func NewPageSwitchedEvent(id, url string) *Event {
	e := newEvent(EventTypePageSwitched)
	e.Page = &PageInfo{ID: id, URL: url}
	return e
}

// NewNavigationEvent creates a navigation event.
func NewNavigationEvent(id, from, to string) *Event {
	e := newEvent(EventTypeNavigation)
	e.Page = &PageInfo{ID: id, URL: to, PreviousURL: from}
	return e
}

// NewArtifactEvent creates an artifact event for the file at path.
func NewArtifactEvent(path string) *Event {
	e := newEvent(EventTypeArtifact)
	e.Content = path
	return e
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *Event {
	e := newEvent(EventTypeError)
	e.Error = err
	return e
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *Event) WithMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsError returns true if the event carries an error.
func (e *Event) IsError() bool {
	return e.Error != nil || e.Type == EventTypeError || e.Type == EventTypeStepFailed
}

// IsStepEvent returns true for step lifecycle events.
func (e *Event) IsStepEvent() bool {
	switch e.Type {
	case EventTypeStepStart, EventTypeStepComplete, EventTypeStepFailed:
		return true
	}
	return false
}

// IsPageEvent returns true for tab lifecycle and navigation events.
func (e *Event) IsPageEvent() bool {
	switch e.Type {
	case EventTypePageOpened, EventTypePageSwitched, EventTypeNavigation:
		return true
	}
	return false
}
