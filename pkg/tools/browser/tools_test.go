package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/pagehand/pkg/actions"
	sessions "github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/browser/browsertest"
	"github.com/entrhq/pagehand/pkg/security/workspace"
	"github.com/entrhq/pagehand/pkg/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRegistry(t *testing.T) (*ToolRegistry, *tools.Registry, *browsertest.Launcher) {
	t.Helper()
	launcher := &browsertest.Launcher{}
	manager := sessions.NewSessionManager()
	manager.SetLauncher(launcher)
	manager.SetSettings(sessions.Settings{Actions: actions.Options{NewTabWait: 20 * time.Millisecond}})
	t.Cleanup(func() { _ = manager.Shutdown() })

	guard, err := workspace.NewGuard(t.TempDir())
	require.NoError(t, err)

	r := NewToolRegistry(manager, guard)
	return r, tools.NewRegistry(r.RegisterTools()...), launcher
}

func call(t *testing.T, reg *tools.Registry, text string) (string, map[string]interface{}, error) {
	t.Helper()
	tc, _, err := tools.ParseToolCall(text)
	require.NoError(t, err)
	return reg.Call(context.Background(), tc)
}

func startMain(t *testing.T, reg *tools.Registry) {
	t.Helper()
	_, _, err := call(t, reg, `<tool><tool_name>start_browser_session</tool_name><arguments><name>main</name><headless>true</headless></arguments></tool>`)
	require.NoError(t, err)
}

func activePage(t *testing.T, r *ToolRegistry) *browsertest.Page {
	t.Helper()
	s, err := r.GetSessionManager().GetSession("main")
	require.NoError(t, err)
	native, err := s.Active().Native()
	require.NoError(t, err)
	return native.(*browsertest.Page)
}

func TestRegisterTools(t *testing.T) {
	r, reg, _ := newTestRegistry(t)

	names := make([]string, 0)
	for _, tool := range r.RegisterTools() {
		names = append(names, tool.Name())
		assert.False(t, tool.IsLoopBreaking())
		assert.Equal(t, "object", tool.Schema()["type"])
	}
	assert.ElementsMatch(t, []string{
		"start_browser_session", "list_browser_sessions", "close_browser_session",
		"browser_navigate", "browser_act", "browser_list_pages", "browser_switch_page",
		"browser_screenshot", "browser_paths",
	}, names)
	assert.Len(t, r.RegisterTools(), len(names), "registration is idempotent")

	visible := make([]string, 0)
	for _, tool := range reg.Visible() {
		visible = append(visible, tool.Name())
	}
	assert.Equal(t, []string{"list_browser_sessions", "start_browser_session"}, visible)
	assert.False(t, r.ShouldShowBrowserTools())
}

func TestStartSession(t *testing.T) {
	r, reg, launcher := newTestRegistry(t)

	out, meta, err := call(t, reg, `<tool><tool_name>start_browser_session</tool_name><arguments><name>main</name><headless>true</headless><width>800</width></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "Mode: headless")
	assert.Contains(t, out, "Viewport: 800x720 pixels")
	assert.Equal(t, "main", meta["session"])

	require.Len(t, launcher.Launched(), 1)
	assert.Equal(t, 800, launcher.Launched()[0].Viewport.Width)
	assert.True(t, r.ShouldShowBrowserTools())
	assert.Len(t, reg.Visible(), 9)

	_, _, err = call(t, reg, `<tool><tool_name>start_browser_session</tool_name><arguments><name>main</name></arguments></tool>`)
	assert.ErrorContains(t, err, "already exists")
}

func TestStartSession_Validation(t *testing.T) {
	_, reg, _ := newTestRegistry(t)

	_, _, err := call(t, reg, `<tool><tool_name>start_browser_session</tool_name><arguments></arguments></tool>`)
	assert.ErrorContains(t, err, "session name is required")

	_, _, err = call(t, reg, `<tool><tool_name>start_browser_session</tool_name><arguments><name>x</name><width>50</width></arguments></tool>`)
	assert.ErrorContains(t, err, "viewport width")
}

func TestListAndCloseSessions(t *testing.T) {
	_, reg, launcher := newTestRegistry(t)

	out, _, err := call(t, reg, `<tool><tool_name>list_browser_sessions</tool_name><arguments></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "No active browser sessions")

	startMain(t, reg)
	out, _, err = call(t, reg, `<tool><tool_name>list_browser_sessions</tool_name><arguments></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "1. main")
	assert.Contains(t, out, "Tabs: 1")

	_, _, err = call(t, reg, `<tool><tool_name>close_browser_session</tool_name><arguments><session>main</session></arguments></tool>`)
	require.NoError(t, err)
	assert.True(t, launcher.Context(0).Closed())

	_, _, err = call(t, reg, `<tool><tool_name>close_browser_session</tool_name><arguments><session>main</session></arguments></tool>`)
	assert.ErrorContains(t, err, "not available", "interaction tools hide once no session is left")
}

func TestNavigate(t *testing.T) {
	r, reg, _ := newTestRegistry(t)
	startMain(t, reg)

	out, meta, err := call(t, reg, `<tool><tool_name>browser_navigate</tool_name><arguments><session>main</session><url>https://shop.test/?a=1&b=2</url></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "URL: https://shop.test/?a=1&b=2")
	assert.Equal(t, "https://shop.test/?a=1&b=2", meta["url"])
	assert.Equal(t, []string{"https://shop.test/?a=1&b=2@load"}, activePage(t, r).Gotos())

	_, _, err = call(t, reg, `<tool><tool_name>browser_navigate</tool_name><arguments><session>main</session><url>https://x.test/</url><wait_until>never</wait_until></arguments></tool>`)
	assert.ErrorContains(t, err, "invalid wait_until")

	_, _, err = call(t, reg, `<tool><tool_name>browser_navigate</tool_name><arguments><session>other</session><url>https://x.test/</url></arguments></tool>`)
	assert.ErrorContains(t, err, "not found")
}

func TestAct(t *testing.T) {
	r, reg, _ := newTestRegistry(t)
	startMain(t, reg)
	page := activePage(t, r)
	page.NavigateOnClick("https://shop.test/cart")

	out, meta, err := call(t, reg, `<tool><tool_name>browser_act</tool_name><arguments><session>main</session><path>/html/body/button</path><method>click</method></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "Action click on /html/body/button succeeded")
	assert.Equal(t, "about:blank", meta["url_before"])
	assert.Equal(t, "https://shop.test/cart", meta["url_after"])
	assert.Equal(t, meta["page"], meta["active_page"])

	_, _, err = call(t, reg, `<tool><tool_name>browser_act</tool_name><arguments><session>main</session><path>/html/body/input</path><method>fill</method><args><arg>hello</arg></args></arguments></tool>`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"click xpath=/html/body/button",
		"fill xpath=/html/body/input ",
		"fill xpath=/html/body/input hello",
	}, page.Actions())

	_, _, err = call(t, reg, `<tool><tool_name>browser_act</tool_name><arguments><session>main</session><path>/html/body</path><method>teleport</method></arguments></tool>`)
	assert.ErrorIs(t, err, actions.ErrUnknownMethod)
}

func TestPagesAndSwitch(t *testing.T) {
	r, reg, _ := newTestRegistry(t)
	startMain(t, reg)
	first := activePage(t, r)

	s, err := r.GetSessionManager().GetSession("main")
	require.NoError(t, err)
	second, err := s.NewPage()
	require.NoError(t, err)

	out, _, err := call(t, reg, `<tool><tool_name>browser_list_pages</tool_name><arguments><session>main</session></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "Open Tabs: 2")
	assert.Contains(t, out, "* 2. "+string(second.ID))

	firstID := s.Pages()[0].ID
	out, _, err = call(t, reg, `<tool><tool_name>browser_switch_page</tool_name><arguments><session>main</session><page>`+string(firstID)+`</page></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "Switched to tab "+string(firstID))
	assert.Equal(t, 1, first.Fronted())

	_, _, err = call(t, reg, `<tool><tool_name>browser_switch_page</tool_name><arguments><session>main</session></arguments></tool>`)
	assert.ErrorContains(t, err, "page id is required")
}

func TestScreenshot(t *testing.T) {
	r, reg, _ := newTestRegistry(t)
	startMain(t, reg)

	out, meta, err := call(t, reg, `<tool><tool_name>browser_screenshot</tool_name><arguments><session>main</session><path>shots/home.png</path></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "Screenshot saved")
	assert.Equal(t, 3, meta["bytes"])

	dest := filepath.Join(r.guard.Root(), "shots", "home.png")
	assert.Equal(t, dest, meta["path"])
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestScreenshot_OutsideOutputDir(t *testing.T) {
	_, reg, _ := newTestRegistry(t)
	startMain(t, reg)

	_, _, err := call(t, reg, `<tool><tool_name>browser_screenshot</tool_name><arguments><session>main</session><path>../escape.png</path></arguments></tool>`)
	assert.ErrorIs(t, err, workspace.ErrOutsideWorkspace)
}

func TestPaths(t *testing.T) {
	r, reg, _ := newTestRegistry(t)
	startMain(t, reg)
	activePage(t, r).SetHTML(`<html><body>
<a href="/home">Home</a>
<form><input name="q" placeholder="Search"><button>Go</button></form>
</body></html>`)

	out, meta, err := call(t, reg, `<tool><tool_name>browser_paths</tool_name><arguments><session>main</session></arguments></tool>`)
	require.NoError(t, err)
	assert.Equal(t, 3, meta["total"])
	assert.Contains(t, out, "/html/body/a")
	assert.Contains(t, out, "/html/body/form/button")

	out, meta, err = call(t, reg, `<tool><tool_name>browser_paths</tool_name><arguments><session>main</session><filter>search</filter></arguments></tool>`)
	require.NoError(t, err)
	assert.Equal(t, 1, meta["total"])
	assert.Contains(t, out, "/html/body/form/input")

	out, _, err = call(t, reg, `<tool><tool_name>browser_paths</tool_name><arguments><session>main</session><max_results>1</max_results></arguments></tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "2 more not shown")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "5m", formatDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "2h 3m", formatDuration(2*time.Hour+3*time.Minute))
}
