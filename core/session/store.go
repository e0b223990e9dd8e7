package session

import (
	"sync"
	"time"
)

// State identifies where a user's support conversation currently is.
type State string

const (
	// StateIdle indicates there is no open request; sessions in this state
	// are not stored, absence of an entry is equivalent to StateIdle.
	StateIdle State = "idle"
	// StatePending indicates the user asked for help and no operator has
	// claimed the conversation yet.
	StatePending State = "pending"
	// StateActive indicates the operator claimed the conversation and
	// messages forward bidirectionally.
	StateActive State = "active"
)

// Session stores the conversation state for a single user.
type Session struct {
	State     State
	StartedAt time.Time
	UpdatedAt time.Time
}

// Store keeps user sessions and the operator selection behind a single mutex.
// One lock is deliberate: load is a single operator and a modest number of
// users, and it makes a session transition plus a selection change atomic.
type Store struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	selection int64
	now       func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Txn is the view of the store passed to Mutate callbacks. Methods must only
// be called from within the callback; the store mutex is held throughout.
type Txn interface {
	Get(user int64) State
	SetState(user int64, st State)
	Delete(user int64)
	Select(user int64)
	Selection() (int64, bool)
	ClearSelection()
}

// Mutate runs fn while holding the store mutex. A routing decision for a user
// performs its read-modify-write inside a single Mutate call, which is what
// serializes concurrent events touching the same session.
func (s *Store) Mutate(fn func(tx Txn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(txn{s})
}

// Get returns the state for a user, StateIdle if no session exists.
func (s *Store) Get(user int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txn{s}.Get(user)
}

// SetState updates the state for a user, creating a session if necessary.
// Setting StateIdle removes the session entry.
func (s *Store) SetState(user int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn{s}.SetState(user, st)
}

// Delete removes the session for a user and clears the operator selection if
// it points at that user. Deleting a nonexistent session is a no-op.
func (s *Store) Delete(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn{s}.Delete(user)
}

// SelectForOperator binds the operator to the given user for replies.
func (s *Store) SelectForOperator(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn{s}.Select(user)
}

// CurrentSelection returns the user the operator currently replies to.
func (s *Store) CurrentSelection() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txn{s}.Selection()
}

// ClearSelection unbinds the operator from any user.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn{s}.ClearSelection()
}

// Len reports the number of non-idle sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// txn implements Txn over the already-locked store.
type txn struct{ s *Store }

func (t txn) Get(user int64) State {
	if sess, ok := t.s.sessions[user]; ok {
		return sess.State
	}
	return StateIdle
}

func (t txn) SetState(user int64, st State) {
	if st == StateIdle {
		t.Delete(user)
		return
	}
	now := t.s.now()
	sess, ok := t.s.sessions[user]
	if !ok {
		t.s.sessions[user] = &Session{State: st, StartedAt: now, UpdatedAt: now}
		return
	}
	sess.State = st
	sess.UpdatedAt = now
}

func (t txn) Delete(user int64) {
	delete(t.s.sessions, user)
	if t.s.selection == user {
		t.s.selection = 0
	}
}

func (t txn) Select(user int64) {
	t.s.selection = user
}

func (t txn) Selection() (int64, bool) {
	if t.s.selection == 0 {
		return 0, false
	}
	return t.s.selection, true
}

func (t txn) ClearSelection() {
	t.s.selection = 0
}
