// Package browser manages named browser sessions.
//
// A Session launches one Chromium context and wires the pieces that act on
// it: the closed-shadow-root recorder, a frames.Tracker following its tabs,
// a locator.Resolver and an actions.Dispatcher. Act is the one-call path
// from an ActionRequest to a performed action in the active tab.
package browser
