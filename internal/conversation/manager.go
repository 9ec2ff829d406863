package conversation

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager maps opaque session ids to their contexts. It exists so concurrent
// callers never share one process-wide history: each session id selects its
// own Context, and a fresh id is minted when the caller supplies none.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Context
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Context)}
}

// Session returns the context for the given id, creating it on first use.
// An empty id mints a new uuid. The returned id identifies the session for
// subsequent calls.
func (m *Manager) Session(id string) (string, *Context) {
	if strings.TrimSpace(id) == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, ok := m.sessions[id]
	if !ok {
		ctx = NewContext()
		m.sessions[id] = ctx
	}
	return id, ctx
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
