package session

import (
	"sync"

	"reelpress/internal/config"
	"reelpress/internal/storage"
)

// Post carries the working data for one production run while it awaits
// confirm or cancel.
type Post struct {
	Title    string
	Content  string
	Hashtags string
	Date     string

	SourceImagePath string
	PreviewPath     string
	Audio           config.AudioTrack
	Run             storage.RunDir
}

// Session is the per-user in-memory workflow state. Sessions are created
// lazily on first interaction and lost on process restart by design.
type Session struct {
	ID       string
	State    State
	Audio    config.AudioTrack
	HasAudio bool
	Pending  *Post
}

// Reset returns the session to the main menu, discarding any pending post
// and audio selection.
func (s *Session) Reset() {
	s.State = StateMenuShown
	s.Audio = config.AudioTrack{}
	s.HasAudio = false
	s.Pending = nil
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Store holds one session per transport-assigned user identity. Each key owns
// its own mutex: events for the same user serialize, events for different
// users never contend. This is the per-key exclusive critical section that
// prevents two interleaved photo uploads from both passing the awaiting-photo
// guard.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Update runs fn with exclusive access to the session for id, creating the
// session in the Idle state when absent. The per-key lock is held for fn's
// full duration, so long pipelines block later events for the same user
// rather than racing them.
func (s *Store) Update(id string, fn func(*Session) error) error {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.session)
}

// Snapshot returns a copy of the session for id, or a zero-value Idle session
// when none exists. Pending is shared with the live session; treat it as
// read-only.
func (s *Store) Snapshot(id string) Session {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Reset returns the session for id to the main menu state.
func (s *Store) Reset(id string) {
	_ = s.Update(id, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

// Len reports the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) entryFor(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[id]; ok {
		return e
	}
	e = &entry{session: Session{ID: id, State: StateIdle}}
	s.entries[id] = e
	return e
}
