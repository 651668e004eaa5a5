// Package headless runs browser scripts without a person at the keyboard.
//
// A script is a YAML file naming a start URL and an ordered list of steps.
// Each step does one thing against the active tab of a single browser
// session:
//
//   - goto: navigate, optionally with a wait_until state
//   - act: resolve a structural path and call a method on the element
//   - expect_url: require the active tab's URL to match a glob
//   - screenshot and pdf: write the rendered tab to the artifact directory
//   - switch_page: make another tab active by open order index
//
// Example script:
//
//	name: sign in
//	start_url: https://example.com/login
//	constraints:
//	  allowed_urls: ["https://example.com/*"]
//	  timeout: 2m
//	steps:
//	  - act: {path: /html/body/form/input[1], method: fill, args: [alice]}
//	  - act: {path: /html/body/form/button, method: click}
//	  - expect_url: "https://example.com/home*"
//	  - screenshot: home.png
//
// Safety Constraints:
//
// The constraint manager enforces limits while the script runs:
// - Allowed action methods
// - URL allowlists/denylists for navigation and for pages actions land on
// - Maximum number of steps
// - Execution timeout
//
// A constraint violation always ends the run. Other step failures end it
// unless continue_on_error is set, in which case the run finishes as
// partial_success.
//
// Artifacts:
//
// The artifact writer generates execution reports:
// - execution.json: Full execution summary
// - summary.md: Human-readable markdown summary
// - metrics.json: Execution metrics
package headless
