package browser

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/entrhq/pagehand/pkg/logging"
)

// ErrNotInitialized is returned when sessions are requested before
// Initialize.
var ErrNotInitialized = errors.New("session manager not initialized")

// SessionManager manages all active browser sessions.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	launcher    Launcher
	settings    Settings
	sink        logging.Sink
	maxSessions int
	idleTimeout time.Duration
	initialized bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		sink:        logging.NopSink,
		maxSessions: DefaultMaxSessions,
		idleTimeout: DefaultIdleTimeout,
		initialized: false,
	}
}

// Initialize starts the browser driver. It must be called before creating
// any sessions. A launcher set with SetLauncher is used as is.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if m.launcher == nil {
		l, err := newPlaywrightLauncher()
		if err != nil {
			return err
		}
		m.launcher = l
	}

	m.initialized = true
	return nil
}

// StartSession launches a browser and wraps it in a new named session.
func (m *SessionManager) StartSession(name string, opts SessionOptions) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[name]; exists {
		return nil, fmt.Errorf("session %q already exists", name)
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	if !m.initialized {
		return nil, ErrNotInitialized
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	browser, bc, err := m.launcher.Launch(opts)
	if err != nil {
		return nil, err
	}

	session, err := newSession(name, opts, browser, bc, m.settings, m.sink)
	if err != nil {
		_ = bc.Close()
		_ = browser.Close()
		return nil, err
	}

	m.sessions[name] = session
	m.sink.Log(logging.LogLine{
		Category:  "session",
		Message:   "session started",
		Level:     logging.LevelInfo,
		Auxiliary: map[string]any{"session": name, "headless": opts.Headless},
	})
	return session, nil
}

// CloseSession closes and removes a browser session.
func (m *SessionManager) CloseSession(name string) error {
	m.mu.Lock()
	session, exists := m.sessions[name]
	if exists {
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %q not found", name)
	}

	// Errors while tearing down are logged; the session is gone either way.
	if err := session.Close(); err != nil {
		m.logCloseError(name, err)
	}
	return nil
}

// GetSession retrieves an active session by name.
func (m *SessionManager) GetSession(name string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[name]
	if !exists {
		return nil, fmt.Errorf("session %q not found", name)
	}

	return session, nil
}

// ListSessions returns information about all active sessions, sorted by
// name.
func (m *SessionManager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// HasSessions returns true if there are any active sessions.
func (m *SessionManager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// CloseAll closes all active sessions.
func (m *SessionManager) CloseAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for name, session := range sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown closes all sessions and stops the browser driver.
func (m *SessionManager) Shutdown() error {
	closeErr := m.CloseAll()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized && m.launcher != nil {
		if err := m.launcher.Stop(); err != nil {
			return errors.Join(closeErr, err)
		}
		m.initialized = false
	}
	return closeErr
}

// CleanupIdleSessions closes sessions that have been idle for longer than the timeout.
func (m *SessionManager) CleanupIdleSessions() error {
	m.mu.Lock()
	now := time.Now()
	var idle []*Session
	for name, session := range m.sessions {
		if now.Sub(session.LastUsedAt()) > m.idleTimeout {
			idle = append(idle, session)
			delete(m.sessions, name)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, session := range idle {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", session.Name, err))
		}
	}
	return errors.Join(errs...)
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// SetIdleTimeout sets the idle timeout duration.
func (m *SessionManager) SetIdleTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTimeout = timeout
}

// SetLauncher replaces the browser launcher. Call before Initialize.
func (m *SessionManager) SetLauncher(l Launcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launcher = l
}

// SetSettings sets the locator and action tuning for sessions started
// afterwards.
func (m *SessionManager) SetSettings(s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// SetSink sets where sessions send diagnostics.
func (m *SessionManager) SetSink(sink logging.Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = logging.OrNop(sink)
}

func (m *SessionManager) logCloseError(name string, err error) {
	m.sink.Log(logging.LogLine{
		Category:  "session",
		Message:   "error closing session",
		Level:     logging.LevelError,
		Auxiliary: map[string]any{"session": name, "error": err.Error()},
	})
}
