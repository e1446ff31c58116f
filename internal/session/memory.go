package session

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// MemoryStore manages sessions in memory. Suitable for development and
// tests; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create makes a new anonymous session.
func (s *MemoryStore) Create(_ context.Context) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a session by ID. Expired sessions are treated as missing.
func (s *MemoryStore) Get(_ context.Context, id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.now().Sub(session.CreatedAt) > TTL {
		return nil
	}

	copied := *session
	return &copied
}

// Save persists the session's mutable fields.
func (s *MemoryStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.ID]
	if !ok {
		return nil
	}
	stored.OAuthState = session.OAuthState
	stored.Token = session.Token
	stored.UserID = session.UserID
	stored.UserName = session.UserName
	return nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// GetFromRequest extracts the session from the request cookie.
func (s *MemoryStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *MemoryStore) SetCookie(w http.ResponseWriter, session *Session) {
	setCookie(w, session)
}

// ClearCookie removes the session cookie from the response.
func (s *MemoryStore) ClearCookie(w http.ResponseWriter) {
	clearCookie(w)
}

var _ Manager = (*MemoryStore)(nil)
