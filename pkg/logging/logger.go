package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides structured debug logging for pagehand components.
// All components of one process share a session-specific, size-rotated file
// in ~/.pagehand/logs/.
type Logger struct {
	sessionID string
	component string
	zl        *zap.SugaredLogger
	out       zapcore.WriteSyncer
	logPath   string
	closeOnce sync.Once
}

const (
	maxLogSizeMB  = 20
	maxLogBackups = 5
	maxLogAgeDays = 14
)

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	// shared rotating writer, opened lazily for the session
	fileWriter     *lumberjack.Logger
	fileWriterOnce sync.Once

	// level is shared by every logger of the process
	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".pagehand", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

func sessionWriter(path string) *lumberjack.Logger {
	fileWriterOnce.Do(func() {
		fileWriter = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
	})
	return fileWriter
}

// encoderConfig renders "[time] [LEVEL] [component] message {fields}".
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format("2006-01-02 15:04:05.000") + "]")
		},
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		},
		EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + name + "]")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func newZap(component string, out zapcore.WriteSyncer) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), out, level)
	return zap.New(core).Named(component).Sugar()
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.pagehand/logs/<session-id>-pagehand.log
//
// If the log directory cannot be created, it returns a fallback logger that
// writes to stderr along with the error. Callers can check the error to
// detect fallback mode and log warnings.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-pagehand.log", sessID))
	out := zapcore.AddSync(sessionWriter(logPath))

	return &Logger{
		sessionID: sessID,
		component: component,
		zl:        newZap(component, out),
		out:       out,
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	out := zapcore.Lock(os.Stderr)
	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		zl:        newZap(component, out),
		out:       out,
	}
	l.Warnf("failed to initialize file logging: %v", err)
	l.Warnf("falling back to stderr logging")
	return l
}

// Nop returns a logger that discards everything. Useful in tests and for
// components constructed without a logger.
func Nop(component string) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		zl:        zap.NewNop().Sugar(),
		out:       zapcore.AddSync(io.Discard),
	}
}

// SetLevel changes the minimum level of every logger in the process.
// Valid values are debug, info, warn and error.
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}

// Printf logs a formatted message
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zl.Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.zl.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.zl.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.zl.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.zl.Errorf(format, v...)
}

// Writer returns an io.Writer that writes to this logger's destination
func (l *Logger) Writer() io.Writer {
	return l.out
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Component returns the component name the logger was created for
func (l *Logger) Component() string {
	return l.component
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes buffered entries. Safe to call multiple times. The shared
// session file stays open for other components; see Shutdown.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.zl.Sync()
		if err != nil && l.logPath == "" {
			// stderr does not support fsync on most platforms
			err = nil
		}
	})
	return err
}

// Shutdown closes the shared session log file.
func Shutdown() error {
	if fileWriter == nil {
		return nil
	}
	return fileWriter.Close()
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
