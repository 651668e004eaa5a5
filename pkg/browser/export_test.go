package browser

import (
	"context"
	"time"
)

func SetLastUsed(s *Session, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = at
}

func ClampToContext(ctx context.Context, d time.Duration) time.Duration {
	return clampToContext(ctx, d)
}

func (m *SessionManager) Limits() (int, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxSessions, m.idleTimeout
}
