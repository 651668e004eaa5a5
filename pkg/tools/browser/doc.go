// Package browser exposes browser sessions to external agents as XML tools.
//
// Session management tools (start_browser_session, list_browser_sessions,
// close_browser_session) are always offered. Interaction tools appear once
// a session exists:
//
//   - browser_navigate loads a URL in the active tab
//   - browser_paths lists structural paths of interactive elements
//   - browser_act resolves a path and runs a method on the element
//   - browser_list_pages and browser_switch_page manage tabs
//   - browser_screenshot saves a PNG of the active tab below the output directory
//
// Paths cross iframes and shadow roots: /html/body/iframe/html/body/button
// descends into the iframe, and /html/body/my-widget//div/button descends
// into my-widget's shadow root. An action that opens a new tab leaves that
// tab active.
//
// # Example Usage
//
//	guard, _ := workspace.NewGuard("shots")
//	registry := browser.NewToolRegistry(manager, guard)
//	all := tools.NewRegistry(registry.RegisterTools()...)
//	call, _, _ := tools.ParseToolCall(text)
//	out, _, err := all.Call(ctx, call)
package browser
