package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager maintains the registry of all connected ClientSessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*ClientSession // clientID → session
	logger   *zap.Logger
}

// NewManager creates a new Manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*ClientSession),
		logger:   logger,
	}
}

// Register adds a session. A previous session for the same client is closed
// first (reconnect).
func (m *Manager) Register(s *ClientSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[s.ClientID]; ok && old != s {
		old.Close()
		m.logger.Info("duplicate session displaced",
			zap.String("client_id", s.ClientID))
	}
	m.sessions[s.ClientID] = s
	m.logger.Info("client session registered",
		zap.String("client_id", s.ClientID),
		zap.String("room", s.Room),
		zap.String("role", s.Role))
}

// Unregister removes s if it is still the registered session for its client.
func (m *Manager) Unregister(s *ClientSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.ClientID]; ok && cur == s {
		delete(m.sessions, s.ClientID)
		m.logger.Info("client session unregistered", zap.String("client_id", s.ClientID))
	}
}

// Get returns the session for clientID, or nil if not found.
func (m *Manager) Get(clientID string) *ClientSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[clientID]
}

// Count returns the number of currently connected sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// All returns a snapshot slice of all current sessions.
func (m *Manager) All() []*ClientSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ClientSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// CloseAll closes every session and waits up to wait for them to unregister.
func (m *Manager) CloseAll(wait time.Duration) {
	sessions := m.All()
	m.logger.Info("closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}

	start := time.Now()
	for time.Since(start) < wait {
		if m.Count() == 0 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
