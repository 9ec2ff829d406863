// Package conversation keeps per-session chat state: an append-only turn log
// plus the bounded active window used for generation requests. Each session
// owns exactly one Context; contexts are never shared across sessions.
package conversation

import (
	"sync"
	"time"

	"github.com/kirei-app/kirei/internal/domain"
)

// DefaultWindow is the number of recent turns sent to the generation backend.
const DefaultWindow = 5

// Context is one session's conversation history.
type Context struct {
	mu    sync.RWMutex
	turns []domain.Turn
}

// NewContext creates an empty conversation context.
func NewContext() *Context {
	return &Context{}
}

// Append records a turn. It never fails.
func (c *Context) Append(role domain.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, domain.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// ActiveWindow returns the last n turns, oldest first. It never truncates
// the stored history; n <= 0 falls back to DefaultWindow.
func (c *Context) ActiveWindow(n int) []domain.Turn {
	if n <= 0 {
		n = DefaultWindow
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	start := len(c.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.Turn, len(c.turns)-start)
	copy(out, c.turns[start:])
	return out
}

// FullHistory returns the complete ordered turn sequence. Diagnostics only;
// it is never sent to the generation backend in full.
func (c *Context) FullHistory() []domain.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of stored turns.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}
