// Package actions runs named methods against elements resolved by the
// locator package.
//
// A handful of methods have dedicated handlers (click with a script
// fallback, fill, key presses, percentage and chunk scrolling, dropdown
// selection); a fixed table of other locator operations is reachable by
// name. Click and press are followed by a navigation check that notices new
// tabs and waits for the DOM to settle.
package actions
