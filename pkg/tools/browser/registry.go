package browser

import (
	"fmt"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/security/workspace"
	"github.com/entrhq/pagehand/pkg/tools"
)

// ToolRegistry manages dynamic browser tool registration.
type ToolRegistry struct {
	manager *sessions.SessionManager
	guard   *workspace.Guard
	tools   []tools.Tool
}

// NewToolRegistry creates a new browser tool registry. Tools that write
// files confine them to guard's directory.
func NewToolRegistry(manager *sessions.SessionManager, guard *workspace.Guard) *ToolRegistry {
	return &ToolRegistry{
		manager: manager,
		guard:   guard,
		tools:   make([]tools.Tool, 0),
	}
}

// RegisterTools creates and returns all browser tools.
func (r *ToolRegistry) RegisterTools() []tools.Tool {
	if len(r.tools) > 0 {
		return r.tools
	}

	// Session management tools (always available)
	r.tools = append(r.tools,
		NewStartSessionTool(r.manager),
		NewListSessionsTool(r.manager),
		NewCloseSessionTool(r.manager),
	)

	// Browser interaction tools (available when sessions exist)
	r.tools = append(r.tools,
		NewNavigateTool(r.manager),
		NewActTool(r.manager),
		NewListPagesTool(r.manager),
		NewSwitchPageTool(r.manager),
		NewScreenshotTool(r.manager, r.guard),
		NewPathsTool(r.manager),
	)

	return r.tools
}

// GetTools returns the current set of registered tools.
func (r *ToolRegistry) GetTools() []tools.Tool {
	return r.tools
}

// ShouldShowBrowserTools returns true if browser interaction tools should be visible.
func (r *ToolRegistry) ShouldShowBrowserTools() bool {
	return r.manager.HasSessions()
}

// GetSessionManager returns the underlying session manager.
func (r *ToolRegistry) GetSessionManager() *sessions.SessionManager {
	return r.manager
}

// sessionTool is embedded by tools that operate on an existing session.
type sessionTool struct {
	manager *sessions.SessionManager
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t sessionTool) IsLoopBreaking() bool {
	return false
}

// ShouldShow returns whether this tool should be visible.
// Interaction tools are only shown when there are active sessions.
func (t sessionTool) ShouldShow() bool {
	return t.manager.HasSessions()
}

func (t sessionTool) session(name string) (*sessions.Session, error) {
	if name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	return t.manager.GetSession(name)
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Name of the browser session to use",
	}
}
