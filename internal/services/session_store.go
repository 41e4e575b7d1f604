package services

import (
	"sync"

	"library-catalog/internal/models"
)

// SessionStore is the in-memory token → session map. Sessions live until
// they are deleted or the store is cleared; there is no expiry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.Session)}
}

func (s *SessionStore) Put(session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
}

func (s *SessionStore) Get(token string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	return session, ok
}

func (s *SessionStore) Delete(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok
}

// UpdateUser refreshes the user view of every session owned by user.Username.
func (s *SessionStore) UpdateUser(user models.PublicUser) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, session := range s.sessions {
		if session.User.Username == user.Username {
			session.User = user
			s.sessions[token] = session
			n++
		}
	}
	return n
}

func (s *SessionStore) RevokeUser(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, session := range s.sessions {
		if session.User.Username == username {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

func (s *SessionStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.sessions)
	clear(s.sessions)
	return n
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
