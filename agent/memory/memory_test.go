package memory

import (
	"fmt"
	"testing"

	"github.com/mfigueroa/gastobot/agent/schema"
)

func TestGetCreatesEmptyLog(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{})
	if turns := s.Get("new-session"); len(turns) != 0 {
		t.Fatalf("expected empty log, got %d turns", len(turns))
	}
	if s.Sessions() != 1 {
		t.Fatalf("expected session to be registered, got %d", s.Sessions())
	}
}

func TestAppendTruncatesToCap(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{TurnCap: 5})
	for i := 0; i < 12; i++ {
		s.Append("s1", Turn{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	turns := s.Get("s1")
	if len(turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(turns))
	}
	// Most recent retained, relative order preserved.
	for i, turn := range turns {
		want := fmt.Sprintf("msg-%d", 7+i)
		if turn.Content != want {
			t.Fatalf("turn %d = %q, want %q", i, turn.Content, want)
		}
	}
}

func TestSessionEvictionDropsOldestHalf(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{SessionCap: 10})
	for i := 0; i < 11; i++ {
		s.Append(fmt.Sprintf("session-%02d", i), Turn{Role: RoleUser, Content: "x"})
	}

	// Registering the 11th session exceeds the cap: the oldest-registered
	// half (5 of 11) is dropped regardless of recent use.
	if got := s.Sessions(); got != 6 {
		t.Fatalf("expected 6 surviving sessions, got %d", got)
	}

	// Oldest sessions are gone; Get recreates them empty.
	if turns := s.Get("session-00"); len(turns) != 0 {
		t.Fatalf("expected session-00 evicted, found %d turns", len(turns))
	}
	if turns := s.Get("session-10"); len(turns) != 1 {
		t.Fatalf("expected newest session retained, got %d turns", len(turns))
	}
}

func TestTakePendingIsOneShot(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{})
	s.SetPending("s1", PendingSlots{
		Kind:        schema.KindIncome,
		Category:    "freelance",
		Description: "pago por una web",
	})

	p, ok := s.TakePending("s1")
	if !ok {
		t.Fatal("expected pending slots")
	}
	if p.Kind != schema.KindIncome || p.Category != "freelance" {
		t.Fatalf("unexpected pending slots: %+v", p)
	}

	if _, ok := s.TakePending("s1"); ok {
		t.Fatal("pending slots must be cleared after take")
	}
}

func TestLockSerializesTurns(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{})
	unlock := s.Lock("s1")
	// Data operations must still work while a turn holds the lock.
	s.Append("s1", Turn{Role: RoleUser, Content: "hola"})
	unlock()

	done := make(chan struct{})
	go func() {
		u := s.Lock("s1")
		u()
		close(done)
	}()
	<-done
}

func TestEvictionSkipsSessionWithTurnInFlight(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{SessionCap: 4})

	unlock := s.Lock("s1")
	s.Append("s1", Turn{Role: RoleUser, Content: "hola"})
	for _, id := range []string{"s2", "s3", "s4"} {
		s.Get(id)
	}

	// Fifth session exceeds the cap; the oldest half (s1, s2) is the drop
	// candidate set, but s1 holds its turn lock.
	s.Get("s5")

	if got := len(s.Get("s1")); got != 1 {
		t.Fatalf("in-flight session lost its log, got %d turns", got)
	}
	if s.Sessions() != 4 {
		t.Fatalf("Sessions() = %d, want 4 after evicting only s2", s.Sessions())
	}
	unlock()

	// A later turn for s1 must serialize on the same lock, not a fresh one.
	relock := s.Lock("s1")
	s.Append("s1", Turn{Role: RoleAgent, Content: "respuesta"})
	relock()
	if got := len(s.Get("s1")); got != 2 {
		t.Fatalf("log after relock = %d turns, want 2", got)
	}

	// Released sessions are evictable again.
	s.Get("s6")
	if got := len(s.Get("s1")); got != 0 {
		t.Fatalf("released oldest session survived eviction with %d turns", got)
	}
}
