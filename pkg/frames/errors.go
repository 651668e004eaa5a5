package frames

import "errors"

var (
	// ErrNoActivePage is returned when no tab is open or none was ever
	// activated.
	ErrNoActivePage = errors.New("no active page")

	// ErrPageClosed is returned when an operation targets a closed tab.
	ErrPageClosed = errors.New("page is closed")

	// ErrUnknownPage is returned by Lookup for an id the tracker never issued
	// or already released.
	ErrUnknownPage = errors.New("unknown page")

	// ErrNotAttached is returned when the tracker has no browser context.
	ErrNotAttached = errors.New("tracker is not attached to a browser context")

	// ErrTrackerClosed is returned when a tab is handed to a closed tracker.
	ErrTrackerClosed = errors.New("tracker is closed")
)
