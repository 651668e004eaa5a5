package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/tools"
)

// NavigateTool navigates the active tab of a session to a URL.
type NavigateTool struct {
	sessionTool
}

// NewNavigateTool creates a new navigate tool.
func NewNavigateTool(manager *sessions.SessionManager) *NavigateTool {
	return &NavigateTool{sessionTool{manager: manager}}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "browser_navigate"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Navigate the active tab of a browser session to a URL. The browser will load the page and wait for it to be ready."
}

// Schema returns the tool's JSON schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": sessionProperty(),
			"url": map[string]interface{}{
				"type":        "string",
				"description": "URL to navigate to (must include protocol, e.g., https://example.com)",
			},
			"wait_until": map[string]interface{}{
				"type":        "string",
				"description": "When to consider navigation complete: 'load' (default), 'domcontentloaded', 'networkidle' or 'commit'",
			},
		},
		[]string{"session", "url"},
	)
}

// NavigateInput represents the parameters for navigation.
type NavigateInput struct {
	XMLName   xml.Name `xml:"arguments"`
	Session   string   `xml:"session"`
	URL       string   `xml:"url"`
	WaitUntil string   `xml:"wait_until"`
}

var validWaitStates = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
	"commit":           true,
}

// Execute navigates to a URL.
func (t *NavigateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input NavigateInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if input.URL == "" {
		return "", nil, fmt.Errorf("URL is required")
	}

	s, err := t.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	opts := sessions.NavigateOptions{WaitUntil: input.WaitUntil}
	if opts.WaitUntil == "" {
		opts.WaitUntil = "load"
	}
	if !validWaitStates[opts.WaitUntil] {
		return "", nil, fmt.Errorf("invalid wait_until value: %s (must be 'load', 'domcontentloaded', 'networkidle' or 'commit')", opts.WaitUntil)
	}

	url, err := s.Navigate(ctx, input.URL, opts)
	if err != nil {
		return "", nil, err
	}

	title, err := s.Active().Title()
	if err != nil {
		title = "Unknown"
	}

	result := fmt.Sprintf(`Navigation successful

Page Details:
- URL: %s
- Title: %s
- Session: %s`,
		url,
		title,
		input.Session,
	)

	return result, map[string]interface{}{"url": url}, nil
}
