package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/kirei-app/kirei/internal/domain"
)

func TestActiveWindow_LastNOldestFirst(t *testing.T) {
	c := NewContext()
	for i := 0; i < 8; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		c.Append(role, fmt.Sprintf("turn %d", i))
	}

	window := c.ActiveWindow(5)
	if len(window) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(window))
	}
	for i, turn := range window {
		want := fmt.Sprintf("turn %d", i+3)
		if turn.Content != want {
			t.Errorf("window[%d] = %q, want %q", i, turn.Content, want)
		}
	}
}

func TestActiveWindow_ShorterHistory(t *testing.T) {
	c := NewContext()
	c.Append(domain.RoleUser, "hello")
	c.Append(domain.RoleAssistant, "hi")

	window := c.ActiveWindow(5)
	if len(window) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(window))
	}
	if window[0].Content != "hello" || window[1].Content != "hi" {
		t.Errorf("unexpected window order: %v", window)
	}
}

func TestActiveWindow_DoesNotTruncateHistory(t *testing.T) {
	c := NewContext()
	for i := 0; i < 20; i++ {
		c.Append(domain.RoleUser, fmt.Sprintf("turn %d", i))
		c.ActiveWindow(5)
	}

	full := c.FullHistory()
	if len(full) != 20 {
		t.Fatalf("full history must keep growing, got %d turns", len(full))
	}
	if full[0].Content != "turn 0" || full[19].Content != "turn 19" {
		t.Error("full history order corrupted")
	}
}

func TestAppend_SetsTimestampAndRole(t *testing.T) {
	c := NewContext()
	c.Append(domain.RoleAssistant, "reply")

	turn := c.FullHistory()[0]
	if turn.Role != domain.RoleAssistant {
		t.Errorf("expected assistant role, got %q", turn.Role)
	}
	if turn.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager()

	idA, a := m.Session("alice")
	idB, b := m.Session("bob")
	if idA != "alice" || idB != "bob" {
		t.Fatalf("expected ids preserved, got %q %q", idA, idB)
	}

	a.Append(domain.RoleUser, "from alice")
	if b.Len() != 0 {
		t.Error("sessions must not share context")
	}

	_, again := m.Session("alice")
	if again != a {
		t.Error("same id must return the same context")
	}
}

func TestManager_MintsIDWhenEmpty(t *testing.T) {
	m := NewManager()

	id1, c1 := m.Session("")
	id2, c2 := m.Session("  ")
	if id1 == "" || id2 == "" {
		t.Fatal("expected minted session ids")
	}
	if id1 == id2 {
		t.Error("each empty id must mint a distinct session")
	}
	if c1 == c2 {
		t.Error("minted sessions must not share context")
	}
}

func TestManager_ConcurrentSessions(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n)
			for j := 0; j < 50; j++ {
				_, c := m.Session(id)
				c.Append(domain.RoleUser, "msg")
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 10 {
		t.Fatalf("expected 10 sessions, got %d", m.Len())
	}
	for i := 0; i < 10; i++ {
		_, c := m.Session(fmt.Sprintf("session-%d", i))
		if c.Len() != 50 {
			t.Errorf("session %d: expected 50 turns, got %d", i, c.Len())
		}
	}
}
