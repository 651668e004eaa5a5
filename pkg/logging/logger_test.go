package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDir points the package at a temporary log directory and resets
// global state.
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origInitErr := initErr
	origSessionID := sessionID
	origWriter := fileWriter

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	sessionID = ""
	sessionIDOnce = sync.Once{}
	fileWriter = nil
	fileWriterOnce = sync.Once{}

	t.Cleanup(func() {
		_ = Shutdown()
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		sessionID = origSessionID
		sessionIDOnce = sync.Once{}
		fileWriter = origWriter
		fileWriterOnce = sync.Once{}
	})
}

func readLog(t *testing.T, l *Logger) string {
	t.Helper()
	require.NoError(t, l.Close())
	content, err := os.ReadFile(l.LogPath())
	require.NoError(t, err)
	return string(content)
}

func TestNewLogger(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test-component")
	require.NoError(t, err)

	assert.Equal(t, "test-component", logger.Component())
	assert.NotEmpty(t, logger.SessionID())
	assert.NotEmpty(t, logger.LogPath())
}

func TestLoggerFormatting(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	logger.Printf("Test message %d", 123)
	logger.Debugf("Debug message")
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	content := readLog(t, logger)
	for _, pattern := range []string{
		"[INFO] [test] Test message 123",
		"[DEBUG] [test] Debug message",
		"[INFO] [test] Info message",
		"[WARN] [test] Warning message",
		"[ERROR] [test] Error message",
	} {
		assert.Contains(t, content, pattern)
	}
}

func TestMultipleComponentsShareSessionFile(t *testing.T) {
	setupTestDir(t)

	first, err := NewLogger("component1")
	require.NoError(t, err)
	second, err := NewLogger("component2")
	require.NoError(t, err)

	assert.Equal(t, first.SessionID(), second.SessionID())
	assert.Equal(t, first.LogPath(), second.LogPath())

	first.Printf("from component1")
	second.Printf("from component2")

	content := readLog(t, first)
	assert.Contains(t, content, "[component1] from component1")
	assert.Contains(t, content, "[component2] from component2")
}

func TestSetLevelFiltersDebug(t *testing.T) {
	setupTestDir(t)
	require.NoError(t, SetLevel("info"))
	t.Cleanup(func() { _ = SetLevel("debug") })

	logger, err := NewLogger("filtered")
	require.NoError(t, err)
	logger.Debugf("hidden")
	logger.Infof("shown")

	content := readLog(t, logger)
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, "shown")

	assert.Error(t, SetLevel("loud"))
}

func TestLogLine(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("core")
	require.NoError(t, err)

	logger.Log(LogLine{
		Category: "action",
		Message:  "click failed",
		Level:    LevelError,
		Auxiliary: map[string]any{
			"path":  "/html/body/button",
			"error": errors.New("detached").Error(),
		},
	})
	logger.Log(LogLine{Category: "action", Message: "scrolling", Level: LevelDebug})

	content := readLog(t, logger)
	assert.Contains(t, content, "[ERROR] [core] click failed")
	assert.Contains(t, content, `"category": "action"`)
	assert.Contains(t, content, `"path": "/html/body/button"`)
	assert.Contains(t, content, "[DEBUG] [core] scrolling")
}

func TestSinkHelpers(t *testing.T) {
	var got []LogLine
	sink := SinkFunc(func(l LogLine) { got = append(got, l) })
	sink.Log(LogLine{Message: "one"})

	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Message)

	assert.NotNil(t, OrNop(nil))
	assert.NotPanics(t, func() { OrNop(nil).Log(LogLine{Message: "dropped"}) })

	OrNop(sink).Log(LogLine{Message: "two"})
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[1].Message)
}

func TestGetSessionID(t *testing.T) {
	setupTestDir(t)

	id1 := GetSessionID()
	id2 := GetSessionID()
	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}

func TestGetLogDirectory(t *testing.T) {
	setupTestDir(t)

	dir, err := GetLogDirectory()
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoggerCloseIsIdempotent(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestLogPathFormat(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	fileName := filepath.Base(logger.LogPath())
	require.True(t, strings.HasSuffix(fileName, "-pagehand.log"), fileName)
	assert.Contains(t, strings.TrimSuffix(fileName, "-pagehand.log"), "-")
}

func TestNopLogger(t *testing.T) {
	l := Nop("quiet")
	assert.NotPanics(t, func() {
		l.Infof("nothing %d", 1)
		l.Log(LogLine{Message: "nothing"})
	})
	assert.Empty(t, l.LogPath())
}
