// Package locator resolves structural element paths against a live page.
//
// A path is a slash-separated list of steps such as
//
//	/html/body/div[2]/iframe[1]/form/input[3]
//
// An iframe step descends into the frame's document. A doubled separator
// descends into the shadow root of the element addressed so far, and the
// steps up to the next doubled separator, iframe step or end of the path are
// matched inside that root:
//
//	/html/body/my-app//div/button[2]
//
// Closed shadow roots are reachable when the Backdoor init script was
// installed on the browser context before the page created them. Elements
// matched inside a shadow root are tagged with MarkerAttribute and addressed
// through the SelectorEngine, so they stay addressable afterwards.
package locator
