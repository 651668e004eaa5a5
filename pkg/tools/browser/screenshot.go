package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/security/workspace"
	"github.com/entrhq/pagehand/pkg/tools"
)

// ScreenshotTool captures the active tab of a session to a PNG file.
// Files are written through guard, so callers cannot write outside its
// directory.
type ScreenshotTool struct {
	sessionTool
	guard *workspace.Guard
}

// NewScreenshotTool creates a new screenshot tool writing below guard's root.
func NewScreenshotTool(manager *sessions.SessionManager, guard *workspace.Guard) *ScreenshotTool {
	return &ScreenshotTool{sessionTool: sessionTool{manager: manager}, guard: guard}
}

// Name returns the tool name.
func (t *ScreenshotTool) Name() string {
	return "browser_screenshot"
}

// Description returns the tool description.
func (t *ScreenshotTool) Description() string {
	return "Capture the active tab of a browser session as a PNG file."
}

// Schema returns the tool's JSON schema.
func (t *ScreenshotTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": sessionProperty(),
			"path": map[string]interface{}{
				"type":        "string",
				"description": "File to write the PNG to, relative to the output directory. Parent directories are created",
			},
			"full_page": map[string]interface{}{
				"type":        "boolean",
				"description": "Capture the whole scrollable page instead of the viewport. Default: false",
			},
		},
		[]string{"session", "path"},
	)
}

// ScreenshotInput represents the parameters for a screenshot.
type ScreenshotInput struct {
	XMLName  xml.Name `xml:"arguments"`
	Session  string   `xml:"session"`
	Path     string   `xml:"path"`
	FullPage bool     `xml:"full_page"`
}

// Execute captures the screenshot.
func (t *ScreenshotTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input ScreenshotInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Path == "" {
		return "", nil, fmt.Errorf("path is required")
	}
	if t.guard == nil {
		return "", nil, fmt.Errorf("no output directory configured for screenshots")
	}

	s, err := t.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	data, err := s.Screenshot(input.FullPage)
	if err != nil {
		return "", nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	path, err := t.guard.WriteFile(input.Path, data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to save screenshot: %w", err)
	}

	return fmt.Sprintf("Screenshot saved to %s (%d bytes)", path, len(data)),
		map[string]interface{}{"path": path, "bytes": len(data)}, nil
}
