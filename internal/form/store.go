package form

import (
	"sync"
	"time"

	"github.com/m3rciful/screeningbot/internal/chat"
)

// Store keeps one session per user in memory and serializes work on a
// single user through Lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*userLock

	now func() time.Time
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*userLock),
		now:      time.Now,
	}
}

// Lock blocks until the caller owns userID and returns the release func.
// Lock entries are dropped once nobody holds or waits for them.
func (s *Store) Lock(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
			s.locksMu.Unlock()
		})
	}
}

// Start replaces any existing session of userID with a fresh one at the
// first field.
func (s *Store) Start(userID int64, requester chat.Identity, schema *Schema, source string) *Session {
	sess := newSession(userID, requester, schema, source, s.now())
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session of userID if one exists.
func (s *Store) Get(userID int64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Discard removes the session of userID.
func (s *Store) Discard(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// InProgress reports whether userID has an active form. It takes the user
// lock, so callers already holding it must use Active instead.
func (s *Store) InProgress(userID int64) bool {
	release := s.Lock(userID)
	defer release()
	return s.Active(userID)
}

// Active reports whether userID has an active form. The caller must hold
// the user lock.
func (s *Store) Active(userID int64) bool {
	sess, ok := s.Get(userID)
	return ok && sess.Active()
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
