package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/tools"
)

// ListSessionsTool lists all active browser sessions.
type ListSessionsTool struct {
	manager *sessions.SessionManager
}

// NewListSessionsTool creates a new list sessions tool.
func NewListSessionsTool(manager *sessions.SessionManager) *ListSessionsTool {
	return &ListSessionsTool{
		manager: manager,
	}
}

// Name returns the tool name.
func (t *ListSessionsTool) Name() string {
	return "list_browser_sessions"
}

// Description returns the tool description.
func (t *ListSessionsTool) Description() string {
	return "List all active browser sessions with their current state and metadata."
}

// Schema returns the tool's JSON schema.
func (t *ListSessionsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{},
		[]string{},
	)
}

// Execute lists all sessions.
func (t *ListSessionsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	infos := t.manager.ListSessions()

	if len(infos) == 0 {
		return "No active browser sessions.\n\nUse start_browser_session to create a new session.", nil, nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Active Browser Sessions: %d\n\n", len(infos)))

	for i, info := range infos {
		mode := "headed"
		if info.Headless {
			mode = "headless"
		}

		result.WriteString(fmt.Sprintf(`%d. %s
   URL: %s
   Mode: %s
   Tabs: %d
   Age: %s
   Last Used: %s ago

`,
			i+1,
			info.Name,
			info.CurrentURL,
			mode,
			info.Pages,
			formatDuration(time.Since(info.CreatedAt)),
			formatDuration(time.Since(info.LastUsedAt)),
		))
	}

	result.WriteString("Use close_browser_session to close a session when finished.")

	return result.String(), nil, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *ListSessionsTool) IsLoopBreaking() bool {
	return false
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
