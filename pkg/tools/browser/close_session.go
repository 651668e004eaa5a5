package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/tools"
)

// CloseSessionTool closes a browser session.
type CloseSessionTool struct {
	sessionTool
}

// NewCloseSessionTool creates a new close session tool.
func NewCloseSessionTool(manager *sessions.SessionManager) *CloseSessionTool {
	return &CloseSessionTool{sessionTool{manager: manager}}
}

// Name returns the tool name.
func (t *CloseSessionTool) Name() string {
	return "close_browser_session"
}

// Description returns the tool description.
func (t *CloseSessionTool) Description() string {
	return "Close a browser session and clean up resources. Every tab of the session is closed."
}

// Schema returns the tool's JSON schema.
func (t *CloseSessionTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to close",
			},
		},
		[]string{"session"},
	)
}

// CloseSessionInput represents the parameters for closing a session.
type CloseSessionInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
}

// Execute closes a browser session.
func (t *CloseSessionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input CloseSessionInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if input.Session == "" {
		return "", nil, fmt.Errorf("session name is required")
	}

	if err := t.manager.CloseSession(input.Session); err != nil {
		return "", nil, fmt.Errorf("failed to close session: %w", err)
	}

	return fmt.Sprintf("Session closed successfully\n\nSession: %s", input.Session), nil, nil
}
