package browser

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/pagehand/pkg/actions"
	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/tools"
	"github.com/entrhq/pagehand/pkg/types"
)

// ActTool resolves a structural path in the active tab and runs a method on
// the element it names.
type ActTool struct {
	sessionTool
}

// NewActTool creates a new act tool.
func NewActTool(manager *sessions.SessionManager) *ActTool {
	return &ActTool{sessionTool{manager: manager}}
}

// Name returns the tool name.
func (t *ActTool) Name() string {
	return "browser_act"
}

// Description returns the tool description.
func (t *ActTool) Description() string {
	return fmt.Sprintf(`Act on one element of the active tab. The element is addressed by a structural path such as /html/body/div[2]/button. A step naming an iframe descends into it and a double slash (//) descends into the shadow root of the element before it.

Supported methods: %s.

If the action opens a new tab, that tab becomes the active one.`, strings.Join(actions.MethodNames(), ", "))
}

// Schema returns the tool's JSON schema.
func (t *ActTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": sessionProperty(),
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Structural path of the element, as listed by browser_paths",
			},
			"method": map[string]interface{}{
				"type":        "string",
				"description": "Method to run, e.g. click, fill, press, selectOptionFromDropdown, scrollTo, nextChunk",
			},
			"args": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Method arguments, each in its own <arg> element (e.g. the text for fill, the key for press)",
			},
			"timeout_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Optional upper bound for the whole action in milliseconds",
			},
		},
		[]string{"session", "path", "method"},
	)
}

// ActInput represents the parameters for an action.
type ActInput struct {
	XMLName   xml.Name `xml:"arguments"`
	Session   string   `xml:"session"`
	Path      string   `xml:"path"`
	Method    string   `xml:"method"`
	Args      []string `xml:"args>arg"`
	TimeoutMs int      `xml:"timeout_ms"`
}

// Execute performs the action.
func (t *ActTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input ActInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	s, err := t.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	req := types.ActionRequest{
		Path:      input.Path,
		Method:    input.Method,
		Args:      input.Args,
		TimeoutMs: input.TimeoutMs,
	}
	res, err := s.Act(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Action %s on %s succeeded\n\n", input.Method, input.Path))
	result.WriteString(fmt.Sprintf("- URL before: %s\n", res.URLBefore))
	result.WriteString(fmt.Sprintf("- URL after: %s\n", res.URLAfter))
	if res.SwitchedPage() {
		result.WriteString(fmt.Sprintf("- A new tab became active: %s\n", res.ActivePageID))
	}
	result.WriteString(fmt.Sprintf("- Duration: %s", res.Duration.Round(time.Millisecond)))

	metadata := map[string]interface{}{
		"page":        string(res.PageID),
		"active_page": string(res.ActivePageID),
		"url_before":  res.URLBefore,
		"url_after":   res.URLAfter,
	}
	return result.String(), metadata, nil
}
