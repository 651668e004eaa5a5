package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/tools"
)

// StartSessionTool creates a new browser session.
type StartSessionTool struct {
	manager *sessions.SessionManager
}

// NewStartSessionTool creates a new start session tool.
func NewStartSessionTool(manager *sessions.SessionManager) *StartSessionTool {
	return &StartSessionTool{
		manager: manager,
	}
}

// Name returns the tool name.
func (t *StartSessionTool) Name() string {
	return "start_browser_session"
}

// Description returns the tool description.
func (t *StartSessionTool) Description() string {
	return "Create a new browser session for web automation. Sessions persist across calls and track every tab the pages open."
}

// Schema returns the tool's JSON schema.
func (t *StartSessionTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Unique name for the browser session (e.g., 'research', 'checkout')",
			},
			"headless": map[string]interface{}{
				"type":        "boolean",
				"description": "Run browser in headless mode (no visible window). Default comes from configuration",
			},
			"width": map[string]interface{}{
				"type":        "integer",
				"description": "Browser viewport width in pixels. Default: 1280",
			},
			"height": map[string]interface{}{
				"type":        "integer",
				"description": "Browser viewport height in pixels. Default: 720",
			},
		},
		[]string{"name"},
	)
}

// StartSessionInput defines the input parameters for starting a browser session.
type StartSessionInput struct {
	XMLName  xml.Name `xml:"arguments"`
	Name     string   `xml:"name"`
	Headless *bool    `xml:"headless"`
	Width    *int     `xml:"width"`
	Height   *int     `xml:"height"`
}

// Execute starts a new browser session.
func (t *StartSessionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	input, err := t.parseInput(argsXML)
	if err != nil {
		return "", nil, err
	}

	opts := t.buildSessionOptions(input)
	if validateErr := validateViewport(opts.Viewport); validateErr != nil {
		return "", nil, validateErr
	}

	if initErr := t.manager.Initialize(); initErr != nil {
		return "", nil, fmt.Errorf("failed to initialize browser: %w", initErr)
	}

	s, err := t.manager.StartSession(input.Name, opts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start session: %w", err)
	}

	mode := "headed"
	if s.Headless {
		mode = "headless"
	}

	result := fmt.Sprintf(`Browser session created successfully

Session Details:
- Name: %s
- Mode: %s
- Viewport: %dx%d pixels
- Status: Ready

Use browser_navigate to load a page, browser_paths to list element paths and browser_act to act on them.`,
		s.Name,
		mode,
		opts.Viewport.Width,
		opts.Viewport.Height,
	)
	return result, map[string]interface{}{"session": s.Name, "headless": s.Headless}, nil
}

// parseInput parses and validates the XML input parameters.
func (t *StartSessionTool) parseInput(argsXML []byte) (*StartSessionInput, error) {
	var input StartSessionInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if input.Name == "" {
		return nil, fmt.Errorf("session name is required")
	}

	return &input, nil
}

// buildSessionOptions constructs SessionOptions from input and config defaults.
func (t *StartSessionTool) buildSessionOptions(input *StartSessionInput) sessions.SessionOptions {
	opts := sessions.OptionsFromConfig()
	vp := *opts.Viewport
	opts.Viewport = &vp

	if input.Headless != nil {
		opts.Headless = *input.Headless
	}
	if input.Width != nil {
		opts.Viewport.Width = *input.Width
	}
	if input.Height != nil {
		opts.Viewport.Height = *input.Height
	}

	return opts
}

// validateViewport validates viewport dimensions are within acceptable range.
func validateViewport(vp *sessions.Viewport) error {
	if vp.Width < 100 || vp.Width > 5000 {
		return fmt.Errorf("viewport width must be between 100 and 5000 pixels")
	}
	if vp.Height < 100 || vp.Height > 5000 {
		return fmt.Errorf("viewport height must be between 100 and 5000 pixels")
	}
	return nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *StartSessionTool) IsLoopBreaking() bool {
	return false
}
