// Package memory tracks short conversational context per session: a bounded
// turn log plus the unresolved slots of the immediately preceding turn. It is
// the only shared mutable state in the core and owns the per-session locks the
// orchestrator serializes on.
package memory

import (
	"sync"

	"github.com/mfigueroa/gastobot/agent/schema"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one message in a session's log, ordered by arrival.
type Turn struct {
	Role    Role
	Content string
}

// PendingSlots carries a described-but-incomplete transaction across exactly
// one turn boundary, so an amount-only follow-up can finish it.
type PendingSlots struct {
	Kind        schema.Kind
	Category    schema.Category
	Description string
	DateRef     string
}

type Config struct {
	// TurnCap is the per-session log size; oldest turns are evicted first.
	TurnCap int `split_words:"true" default:"20"`
	// SessionCap bounds concurrently tracked sessions. When exceeded, the
	// oldest-registered half of sessions is dropped. Registration order, not
	// last use: the policy is deliberately coarse.
	SessionCap int `split_words:"true" default:"1000"`
}

type session struct {
	// turnMu serializes whole turns; mu guards the data below. Separate
	// locks so Append/Get work while a turn holds turnMu.
	turnMu  sync.Mutex
	mu      sync.Mutex
	turns   []Turn
	pending *PendingSlots

	// inUse counts turns holding (or about to hold) turnMu. Guarded by
	// Store.mu; eviction must not drop a session mid-turn, or a second
	// message would mint a fresh turnMu and run concurrently.
	inUse int
}

// Store is the session registry. All methods are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	turnCap    int
	sessionCap int
	sessions   map[string]*session
	order      []string
}

func NewStore(cfg Config) *Store {
	turnCap := cfg.TurnCap
	if turnCap <= 0 {
		turnCap = 20
	}
	sessionCap := cfg.SessionCap
	if sessionCap <= 0 {
		sessionCap = 1000
	}
	return &Store{
		turnCap:    turnCap,
		sessionCap: sessionCap,
		sessions:   make(map[string]*session),
	}
}

// Get returns a copy of the ordered turn log for a session, creating an empty
// one if absent.
func (s *Store) Get(sessionID string) []Turn {
	sess := s.ensure(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append adds one turn and truncates the log to the most recent TurnCap
// entries.
func (s *Store) Append(sessionID string, t Turn) {
	sess := s.ensure(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = append(sess.turns, t)
	if overflow := len(sess.turns) - s.turnCap; overflow > 0 {
		sess.turns = append([]Turn(nil), sess.turns[overflow:]...)
	}
}

// SetPending records unresolved slots for the next turn to pick up.
func (s *Store) SetPending(sessionID string, p PendingSlots) {
	sess := s.ensure(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.pending = &p
}

// TakePending returns and clears the pending slots. The one-shot semantics
// keep carry-over scoped to the immediately following turn.
func (s *Store) TakePending(sessionID string) (PendingSlots, bool) {
	sess := s.ensure(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.pending == nil {
		return PendingSlots{}, false
	}
	p := *sess.pending
	sess.pending = nil
	return p, true
}

// Lock acquires the session's turn lock and returns the release func. The
// orchestrator holds it for a whole turn so turn N's updates are visible
// before turn N+1 begins. The session is pinned against eviction until the
// release func runs.
func (s *Store) Lock(sessionID string) func() {
	s.mu.Lock()
	sess := s.ensureLocked(sessionID)
	sess.inUse++
	s.mu.Unlock()

	sess.turnMu.Lock()
	return func() {
		sess.turnMu.Unlock()
		s.mu.Lock()
		sess.inUse--
		s.mu.Unlock()
	}
}

// Sessions reports the number of currently tracked sessions.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) ensure(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(sessionID)
}

func (s *Store) ensureLocked(sessionID string) *session {
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}

	sess := &session{}
	s.sessions[sessionID] = sess
	s.order = append(s.order, sessionID)

	if len(s.sessions) > s.sessionCap {
		s.evictLocked()
	}

	return sess
}

// evictLocked drops the oldest-registered half of sessions, skipping any with
// a turn in flight. Caller holds s.mu.
func (s *Store) evictLocked() {
	drop := len(s.order) / 2
	kept := make([]string, 0, len(s.order)-drop)
	for i, id := range s.order {
		if i >= drop {
			kept = append(kept, s.order[i:]...)
			break
		}
		if sess := s.sessions[id]; sess != nil && sess.inUse > 0 {
			kept = append(kept, id)
			continue
		}
		delete(s.sessions, id)
	}
	s.order = kept
}
