package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})
}

func TestInitialize(t *testing.T) {
	t.Run("registers default sections", func(t *testing.T) {
		resetGlobal(t)
		require.NoError(t, Initialize(filepath.Join(t.TempDir(), "config.yaml")))
		require.True(t, IsInitialized())

		ids := []string{}
		for _, s := range Global().GetSections() {
			ids = append(ids, s.ID())
		}
		assert.Equal(t, []string{SectionIDBrowser, SectionIDLocator, SectionIDActions}, ids)

		assert.NotNil(t, GetBrowser())
		assert.NotNil(t, GetLocator())
		assert.NotNil(t, GetActions())
	})

	t.Run("getters return nil before initialization", func(t *testing.T) {
		resetGlobal(t)
		assert.False(t, IsInitialized())
		assert.Nil(t, GetBrowser())
		assert.Nil(t, GetLocator())
		assert.Nil(t, GetActions())
		assert.Panics(t, func() { Global() })
	})

	t.Run("round trips saved values", func(t *testing.T) {
		resetGlobal(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, Initialize(configPath))

		GetLocator().SetData(map[string]interface{}{"shadow_timeout": "3s"})
		GetActions().SetData(map[string]interface{}{"click_timeout": "2s"})
		require.NoError(t, Global().SaveAll())

		resetGlobal(t)
		require.NoError(t, Initialize(configPath))

		timeout, interval := GetLocator().Polling()
		assert.Equal(t, 3*time.Second, timeout)
		assert.Equal(t, 50*time.Millisecond, interval)
		assert.Equal(t, 2*time.Second, GetActions().Timeouts().Click)
	})

	t.Run("reads hand written yaml", func(t *testing.T) {
		resetGlobal(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `version: "1.0"
sections:
  browser:
    headless: false
    viewport_width: 1920
    max_sessions: 2
  actions:
    settle_timeout: 5000
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
		require.NoError(t, Initialize(configPath))

		b := GetBrowser().Snapshot()
		assert.False(t, b.Headless)
		assert.Equal(t, 1920, b.ViewportWidth)
		assert.Equal(t, 720, b.ViewportHeight)
		assert.Equal(t, 2, b.MaxSessions)
		assert.Equal(t, 5*time.Second, GetActions().Timeouts().Settle)
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		resetGlobal(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("sections: [unclosed"), 0600))
		assert.Error(t, Initialize(configPath))
		assert.False(t, IsInitialized())
	})
}
