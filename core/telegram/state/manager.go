package state

import (
	"context"
	"sync"
	"time"

	"announcebot/core/logger"
	"log/slog"
)

// Manager keeps conversation sessions in memory, one slot per user.
// Last write wins when the same user races against themselves.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewManager constructs an empty in-memory Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Set replaces the user's session with a fresh one holding flow.
func (m *Manager) Set(userID int64, flow FlowState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &Session{Flow: flow, CreatedAt: m.now()}
}

// Update applies mutate to the user's current flow, keeping the original
// CreatedAt stamp. It reports false without calling mutate when the user
// has no active session.
func (m *Manager) Update(userID int64, mutate func(FlowState) FlowState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[userID]
	if !ok {
		return false
	}
	session.Flow = mutate(session.Flow)
	return true
}

// Get returns the user's current flow if a session exists.
func (m *Manager) Get(userID int64) (FlowState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	return session.Flow, true
}

// Has reports whether the user holds an active session.
func (m *Manager) Has(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[userID]
	return ok
}

// Clear removes the user's session. Clearing an absent session is a no-op.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// SweepExpired removes sessions older than maxAge and returns how many
// were dropped.
func (m *Manager) SweepExpired(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for userID, session := range m.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(m.sessions, userID)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps expired sessions every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.SweepExpired(maxAge); removed > 0 {
				logger.Info(ctx, "tg", "state.sweep",
					slog.String("status", "ok"),
					slog.Int("count", removed),
				)
			}
		}
	}
}
