package browser

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/frames"
	"github.com/entrhq/pagehand/pkg/tools"
)

// ListPagesTool lists the tabs of a session.
type ListPagesTool struct {
	sessionTool
}

// NewListPagesTool creates a new list pages tool.
func NewListPagesTool(manager *sessions.SessionManager) *ListPagesTool {
	return &ListPagesTool{sessionTool{manager: manager}}
}

// Name returns the tool name.
func (t *ListPagesTool) Name() string {
	return "browser_list_pages"
}

// Description returns the tool description.
func (t *ListPagesTool) Description() string {
	return "List the open tabs of a browser session in the order they were opened, marking the active one."
}

// Schema returns the tool's JSON schema.
func (t *ListPagesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": sessionProperty(),
		},
		[]string{"session"},
	)
}

// PagesInput names the session whose tabs are listed.
type PagesInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
}

// Execute lists the tabs.
func (t *ListPagesTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input PagesInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	s, err := t.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	pages := s.Pages()
	if len(pages) == 0 {
		return "The session has no open tabs.", nil, nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Open Tabs: %d\n\n", len(pages)))
	for i, p := range pages {
		marker := " "
		if p.Active {
			marker = "*"
		}
		result.WriteString(fmt.Sprintf("%s %d. %s\n   URL: %s\n   Title: %s\n", marker, i+1, p.ID, p.URL, p.Title))
	}
	result.WriteString("\n* marks the active tab. Use browser_switch_page to change it.")

	return result.String(), nil, nil
}

// SwitchPageTool makes another tab of the session active.
type SwitchPageTool struct {
	sessionTool
}

// NewSwitchPageTool creates a new switch page tool.
func NewSwitchPageTool(manager *sessions.SessionManager) *SwitchPageTool {
	return &SwitchPageTool{sessionTool{manager: manager}}
}

// Name returns the tool name.
func (t *SwitchPageTool) Name() string {
	return "browser_switch_page"
}

// Description returns the tool description.
func (t *SwitchPageTool) Description() string {
	return "Make a tab of a browser session the active one and bring it to the front. Later actions run in that tab."
}

// Schema returns the tool's JSON schema.
func (t *SwitchPageTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": sessionProperty(),
			"page": map[string]interface{}{
				"type":        "string",
				"description": "Tab id as listed by browser_list_pages",
			},
		},
		[]string{"session", "page"},
	)
}

// SwitchPageInput names the tab to activate.
type SwitchPageInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
	Page    string   `xml:"page"`
}

// Execute switches the active tab.
func (t *SwitchPageTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input SwitchPageInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Page == "" {
		return "", nil, fmt.Errorf("page id is required")
	}

	s, err := t.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	info, err := s.SwitchPage(frames.PageID(input.Page))
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("Switched to tab %s\n\n- URL: %s\n- Title: %s", info.ID, info.URL, info.Title), nil, nil
}
