package terminal

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// sessionEntry pairs a session with the lock that makes it shareable;
// the session itself stays single-owner under that lock.
type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// SessionManager is the concurrency boundary over per-pane sessions: a
// lock-striped map from pane id to session, with each session guarded
// by its own mutex. Map operations never block on a busy session.
type SessionManager struct {
	sessions *xsync.MapOf[string, *sessionEntry]
}

// NewSessionManager creates an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: xsync.NewMapOf[string, *sessionEntry]()}
}

// Create registers a session for paneID, replacing any prior one.
func (m *SessionManager) Create(paneID string, cols, rows, maxScrollback int) {
	m.sessions.Store(paneID, &sessionEntry{session: NewSession(paneID, cols, rows, maxScrollback)})
}

// With runs fn with exclusive access to paneID's session; it reports
// whether the session existed.
func (m *SessionManager) With(paneID string, fn func(*Session)) bool {
	entry, ok := m.sessions.Load(paneID)
	if !ok {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(entry.session)
	return true
}

// Remove drops paneID's session and reports whether it existed.
func (m *SessionManager) Remove(paneID string) bool {
	_, ok := m.sessions.LoadAndDelete(paneID)
	return ok
}

// Len reports how many sessions are registered.
func (m *SessionManager) Len() int {
	return m.sessions.Size()
}

// PaneIDs returns the ids of every registered session, in no
// particular order.
func (m *SessionManager) PaneIDs() []string {
	out := make([]string, 0, m.sessions.Size())
	m.sessions.Range(func(key string, _ *sessionEntry) bool {
		out = append(out, key)
		return true
	})
	return out
}
