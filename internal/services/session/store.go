package session

import (
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

// Store is an in-memory session registry. Sessions are small and
// short-lived, so a mutex-guarded map is the whole persistence story;
// artifacts on disk outlive the process, sessions do not.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
	}
}

// Put registers a session, stamping its timestamps.
func (s *Store) Put(session *models.Session) {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get returns a copy of the session, or ErrSessionNotFound.
func (s *Store) Get(id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, interfaces.ErrSessionNotFound
	}
	return *session, nil
}

// Update applies fn to the session under the lock and refreshes its
// UpdatedAt stamp. Callers mutate only through here, so readers never
// observe a half-written transition.
func (s *Store) Update(id string, fn func(*models.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return interfaces.ErrSessionNotFound
	}
	fn(session)
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// Touch refreshes the session's UpdatedAt stamp. Pipelines heartbeat
// through here during long stages so the reaper leaves them alone.
func (s *Store) Touch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return interfaces.ErrSessionNotFound
	}
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// List returns copies of every session, ordered by creation time.
func (s *Store) List() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

var _ interfaces.SessionStore = (*Store)(nil)
