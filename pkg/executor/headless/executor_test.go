package headless

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/pagehand/pkg/actions"
	"github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/browser/browsertest"
	"github.com/entrhq/pagehand/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	executor *Executor
	launcher *browsertest.Launcher
	page     *browsertest.Page
	out      *bytes.Buffer
	events   []*types.Event
	dir      string
}

func newHarness(t *testing.T, script string) *harness {
	t.Helper()

	cfg, err := ParseConfig([]byte(script))
	require.NoError(t, err)

	h := &harness{
		page: browsertest.NewPage(),
		out:  &bytes.Buffer{},
		dir:  t.TempDir(),
	}
	h.launcher = &browsertest.Launcher{Pages: []*browsertest.Page{h.page}}

	m := browser.NewSessionManager()
	m.SetLauncher(h.launcher)
	m.SetSettings(browser.Settings{Actions: actions.Options{NewTabWait: 20 * time.Millisecond}})
	t.Cleanup(func() { _ = m.Shutdown() })

	h.executor, err = NewExecutor(m, cfg,
		WithLogger(NewLoggerTo(h.out, LogLevelVerbose)),
		WithEventHandler(func(e *types.Event) { h.events = append(h.events, e) }),
		WithBaseDir(h.dir),
	)
	require.NoError(t, err)
	return h
}

func (h *harness) artifactPath(name string) string {
	return filepath.Join(h.dir, ".pagehand", "artifacts", name)
}

func (h *harness) eventTypes() []types.EventType {
	out := make([]types.EventType, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

func (h *harness) count(t types.EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func TestExecutor_Run(t *testing.T) {
	h := newHarness(t, `
name: checkout
start_url: https://shop.test/
steps:
  - name: add to cart
    act: {path: /html/body/button, method: click}
  - expect_url: "https://shop.test/cart*"
  - screenshot: shots/cart.png
`)
	h.page.NavigateOnClick("https://shop.test/cart")

	err := h.executor.Run(context.Background())
	require.NoError(t, err)

	summary := h.executor.Summary()
	assert.Equal(t, statusSuccess, summary.Status)
	assert.Empty(t, summary.Error)
	require.Len(t, summary.Steps, 4)
	assert.Equal(t, "open start url", summary.Steps[0].Name)
	assert.Equal(t, "add to cart", summary.Steps[1].Name)
	assert.Equal(t, "https://shop.test/cart", summary.Steps[1].URL)
	assert.Equal(t, ExecutionMetrics{StepsRun: 4, Actions: 1, Navigations: 2, Screenshots: 1}, summary.Metrics)
	assert.Equal(t, []string{"https://shop.test/", "https://shop.test/cart"}, summary.VisitedURL)

	assert.Equal(t, []string{"https://shop.test/@"}, h.page.Gotos())
	assert.Equal(t, []string{"click xpath=/html/body/button"}, h.page.Actions())

	shot, err := os.ReadFile(h.artifactPath("shots/cart.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(shot))
	for _, name := range []string{"execution.json", "summary.md", "metrics.json"} {
		assert.FileExists(t, h.artifactPath(name))
	}

	seen := h.eventTypes()
	require.NotEmpty(t, seen)
	assert.Equal(t, types.EventTypeSessionStart, seen[0])
	assert.Equal(t, types.EventTypeSessionEnd, seen[len(seen)-1])
	assert.Equal(t, 4, h.count(types.EventTypeStepComplete))
	assert.Equal(t, 1, h.count(types.EventTypeActionResult))
	assert.Equal(t, 2, h.count(types.EventTypeNavigation))
	assert.Equal(t, 1, h.count(types.EventTypeArtifact))

	assert.True(t, h.launcher.Context(0).Closed(), "session should be closed after the run")
	assert.Contains(t, h.out.String(), "✓ SUCCESS")
}

func TestExecutor_StepFailureStopsRun(t *testing.T) {
	h := newHarness(t, `
steps:
  - expect_url: "https://elsewhere.test/*"
  - screenshot: never.png
`)

	err := h.executor.Run(context.Background())
	require.Error(t, err)

	summary := h.executor.Summary()
	assert.Equal(t, statusFailed, summary.Status)
	assert.Contains(t, summary.Error, "does not match")
	assert.Len(t, summary.Steps, 1)
	assert.Equal(t, 1, summary.Metrics.StepsFailed)
	assert.NoFileExists(t, h.artifactPath("never.png"))
	assert.FileExists(t, h.artifactPath("execution.json"))
	assert.Equal(t, 1, h.count(types.EventTypeStepFailed))
	assert.Equal(t, 1, h.count(types.EventTypeError))
}

func TestExecutor_ContinueOnError(t *testing.T) {
	h := newHarness(t, `
continue_on_error: true
steps:
  - act: {path: /html/body/button, method: explode}
  - act: {path: /html/body/input, method: fill, args: [hello]}
`)

	err := h.executor.Run(context.Background())
	require.NoError(t, err)

	summary := h.executor.Summary()
	assert.Equal(t, statusPartialSuccess, summary.Status)
	assert.Equal(t, "1 of 2 steps failed", summary.Error)
	require.Len(t, summary.Steps, 2)
	assert.NotEmpty(t, summary.Steps[0].Error)
	assert.Empty(t, summary.Steps[1].Error)
	// fill clears the field before typing, so nothing is appended to old text
	assert.Equal(t, []string{
		"fill xpath=/html/body/input ",
		"fill xpath=/html/body/input hello",
	}, h.page.Actions())
}

func TestExecutor_ConstraintViolations(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			name: "method not allowed",
			script: `
continue_on_error: true
constraints:
  allowed_methods: [click]
steps:
  - act: {path: /html/body/input, method: fill, args: [x]}
  - act: {path: /html/body/button, method: click}
`,
			wantErr: "method_restriction",
		},
		{
			name: "denied url",
			script: `
constraints:
  denied_urls: ["https://evil.test/*"]
steps:
  - goto: https://evil.test/login
`,
			wantErr: "url_pattern",
		},
		{
			name: "too many steps",
			script: `
constraints:
  max_steps: 1
steps:
  - goto: https://shop.test/
  - goto: https://shop.test/again
`,
			wantErr: "step_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.script)

			err := h.executor.Run(context.Background())
			require.Error(t, err)
			assert.Equal(t, statusFailed, h.executor.Summary().Status)
			assert.Contains(t, h.executor.Summary().Error, tt.wantErr)
			assert.Empty(t, h.page.Actions())
		})
	}
}

func TestExecutor_Popup(t *testing.T) {
	h := newHarness(t, `
start_url: https://shop.test/
steps:
  - act: {path: /html/body/a, method: click}
  - expect_url: https://shop.test/help
  - switch_page: 0
  - expect_url: https://shop.test/
  - switch_page: -1
  - expect_url: https://shop.test/help
`)
	h.page.OpenOnClick(browsertest.NewPageAt("https://shop.test/help"))

	err := h.executor.Run(context.Background())
	require.NoError(t, err)

	summary := h.executor.Summary()
	assert.Equal(t, statusSuccess, summary.Status, summary.Error)
	assert.Equal(t, 1, summary.Metrics.PagesOpened)
	assert.Len(t, summary.Pages, 2)
	assert.Equal(t, 1, h.count(types.EventTypePageOpened))
	assert.Equal(t, 2, h.count(types.EventTypePageSwitched))
	assert.Equal(t, 1, h.page.Fronted())
}

func TestExecutor_SwitchPageOutOfRange(t *testing.T) {
	h := newHarness(t, `
steps:
  - switch_page: 3
`)

	err := h.executor.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, h.executor.Summary().Error, "no tab at index 3")
}

func TestExecutor_PDF(t *testing.T) {
	h := newHarness(t, `
browser:
  headless: true
steps:
  - pdf: report.pdf
`)

	err := h.executor.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(h.artifactPath("report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Zero(t, h.executor.Summary().Metrics.PDFPages)
	assert.Contains(t, h.out.String(), "could not read page count")
}

func TestExecutor_PDFRequiresHeadless(t *testing.T) {
	h := newHarness(t, `
browser:
  headless: false
steps:
  - pdf: report.pdf
`)

	err := h.executor.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, h.executor.Summary().Error, "headless")
}

func TestExecutor_CanceledContext(t *testing.T) {
	h := newHarness(t, `
steps:
  - goto: https://shop.test/
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.executor.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, h.executor.Summary().Error, "execution canceled")
	assert.Empty(t, h.page.Gotos())
}

func TestNewExecutor_Validation(t *testing.T) {
	_, err := NewExecutor(nil, DefaultConfig())
	assert.Error(t, err)

	_, err = NewExecutor(browser.NewSessionManager(), DefaultConfig())
	assert.ErrorContains(t, err, "invalid configuration")
}
