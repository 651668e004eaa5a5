package browser

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/locator"
	"github.com/entrhq/pagehand/pkg/tools"
)

// DefaultMaxPaths caps how many element paths browser_paths lists.
const DefaultMaxPaths = 100

// PathsTool lists structural paths of the interactive elements in the
// active tab.
type PathsTool struct {
	sessionTool
}

// NewPathsTool creates a new paths tool.
func NewPathsTool(manager *sessions.SessionManager) *PathsTool {
	return &PathsTool{sessionTool{manager: manager}}
}

// Name returns the tool name.
func (t *PathsTool) Name() string {
	return "browser_paths"
}

// Description returns the tool description.
func (t *PathsTool) Description() string {
	return "List the interactive elements of the active tab (links, buttons, inputs, elements with interactive roles) with the structural path browser_act accepts for each."
}

// Schema returns the tool's JSON schema.
func (t *PathsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": sessionProperty(),
			"filter": map[string]interface{}{
				"type":        "string",
				"description": "Only list elements whose tag or text contains this string (case-insensitive)",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of elements to list. Default: 100",
			},
		},
		[]string{"session"},
	)
}

// PathsInput represents the parameters for listing paths.
type PathsInput struct {
	XMLName    xml.Name `xml:"arguments"`
	Session    string   `xml:"session"`
	Filter     string   `xml:"filter"`
	MaxResults int      `xml:"max_results"`
}

// Execute lists the element paths.
func (t *PathsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input PathsInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	s, err := t.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	paths, err := s.Paths()
	if err != nil {
		return "", nil, err
	}

	limit := input.MaxResults
	if limit <= 0 {
		limit = DefaultMaxPaths
	}
	matched := filterPaths(paths, input.Filter)
	total := len(matched)
	if total == 0 {
		return "No interactive elements found.", map[string]interface{}{"total": 0}, nil
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Interactive elements: %d\n\n", total))
	for _, p := range matched {
		shadow := ""
		if p.Shadow {
			shadow = " (shadow)"
		}
		result.WriteString(fmt.Sprintf("%s\n   <%s>%s %s\n", p.Path, p.Tag, shadow, p.Text))
	}
	if total > len(matched) {
		result.WriteString(fmt.Sprintf("\n%d more not shown. Narrow the list with filter.", total-len(matched)))
	}

	return strings.TrimRight(result.String(), "\n"), map[string]interface{}{"total": total}, nil
}

func filterPaths(paths []locator.ElementPath, filter string) []locator.ElementPath {
	if filter == "" {
		return paths
	}
	needle := strings.ToLower(filter)
	var out []locator.ElementPath
	for _, p := range paths {
		if strings.Contains(strings.ToLower(p.Tag), needle) || strings.Contains(strings.ToLower(p.Text), needle) {
			out = append(out, p)
		}
	}
	return out
}
