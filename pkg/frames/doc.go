// Package frames keeps track of the tabs in a browser context.
//
// A Tracker wraps every tab in a Page, follows each tab's top-level frame
// identity through the Chrome DevTools Protocol (Page.frameNavigated), and
// keeps an active page pointer. A newly opened tab becomes active; a
// navigation inside an existing tab never moves the pointer. When the
// active tab closes, the most recently activated tab that is still open
// takes over.
//
// ActivePage is a stable handle over that pointer: code holding it always
// acts on whichever tab is currently active.
//
// Each Page runs a small statechart (attached, tracking, closed) so events
// that arrive after a tab closes are dropped.
package frames
