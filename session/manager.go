// Package session manages collections of named client sessions and their
// persistence to disk.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davrell/seshttp/client"
)

// Manager owns a set of named sessions, evicting the ones that sit idle too
// long.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*managed

	maxSessions     int
	sessionTimeout  time.Duration
	cleanupInterval time.Duration

	shutdown chan struct{}
	once     sync.Once
}

type managed struct {
	session  *client.Session
	lastUsed time.Time
}

// NewManager creates a manager and starts its background cleanup loop.
func NewManager() *Manager {
	m := &Manager{
		sessions:        make(map[string]*managed),
		maxSessions:     100,
		sessionTimeout:  30 * time.Minute,
		cleanupInterval: 1 * time.Minute,
		shutdown:        make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Create builds a new session under the given ID. An empty ID gets a
// generated UUID. The session ID is returned.
func (m *Manager) Create(id, baseURL string, opts ...client.Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return "", fmt.Errorf("maximum sessions limit reached (%d)", m.maxSessions)
	}
	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := m.sessions[id]; exists {
		return "", fmt.Errorf("session already exists: %s", id)
	}

	s, err := client.NewSession(baseURL, opts...)
	if err != nil {
		return "", err
	}

	m.sessions[id] = &managed{session: s, lastUsed: time.Now()}
	return id, nil
}

// Get retrieves a session by ID, refreshing its idle timer.
func (m *Manager) Get(id string) (*client.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	entry.lastUsed = time.Now()
	return entry.session, nil
}

// Close removes a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("session not found: %s", id)
	}
	delete(m.sessions, id)
	return nil
}

// IDs returns the IDs of all live sessions.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *Manager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// SetSessionTimeout sets the idle timeout after which sessions are evicted.
func (m *Manager) SetSessionTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionTimeout = timeout
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.shutdown:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, entry := range m.sessions {
		if now.Sub(entry.lastUsed) > m.sessionTimeout {
			delete(m.sessions, id)
		}
	}
}

// Shutdown stops the cleanup loop and drops all sessions.
func (m *Manager) Shutdown() {
	m.once.Do(func() { close(m.shutdown) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*managed)
}
