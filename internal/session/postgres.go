package session

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/moodtunes/api/internal/db"
)

// PGStore manages sessions in PostgreSQL so they survive restarts.
type PGStore struct {
	database *db.DB
}

// NewPGStore creates a new database-backed session store.
func NewPGStore(database *db.DB) *PGStore {
	return &PGStore{database: database}
}

// Create makes a new anonymous session and stores it.
func (s *PGStore) Create(ctx context.Context) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &db.Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
	if err := s.database.Sessions().Create(ctx, record); err != nil {
		return nil, err
	}

	return &Session{ID: id, CreatedAt: now}, nil
}

// Get retrieves a session by ID. Expired sessions are filtered out by the
// repository query.
func (s *PGStore) Get(ctx context.Context, id string) *Session {
	record, err := s.database.Sessions().Get(ctx, id)
	if err != nil {
		return nil
	}

	session := &Session{
		ID:         record.ID,
		OAuthState: deref(record.OAuthState),
		CreatedAt:  record.CreatedAt,
	}
	if record.AccessToken != nil {
		session.Token = &oauth2.Token{
			AccessToken:  deref(record.AccessToken),
			RefreshToken: deref(record.RefreshToken),
			TokenType:    "Bearer",
		}
		if record.TokenExpiry != nil {
			session.Token.Expiry = *record.TokenExpiry
		}
	}
	if record.UserID != nil {
		session.UserID = *record.UserID
		if user, err := s.database.Users().Get(ctx, session.UserID); err == nil {
			session.UserName = user.DisplayName
		}
	}
	return session
}

// Save persists the session's mutable fields.
func (s *PGStore) Save(ctx context.Context, session *Session) error {
	record := &db.Session{
		ID:         session.ID,
		UserID:     optional(session.UserID),
		OAuthState: optional(session.OAuthState),
	}
	if session.Token != nil {
		record.AccessToken = optional(session.Token.AccessToken)
		record.RefreshToken = optional(session.Token.RefreshToken)
		if !session.Token.Expiry.IsZero() {
			expiry := session.Token.Expiry
			record.TokenExpiry = &expiry
		}
	}
	return s.database.Sessions().Update(ctx, record)
}

// Delete removes a session.
func (s *PGStore) Delete(ctx context.Context, id string) {
	_ = s.database.Sessions().Delete(ctx, id)
}

// GetFromRequest extracts the session from the request cookie.
func (s *PGStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *PGStore) SetCookie(w http.ResponseWriter, session *Session) {
	setCookie(w, session)
}

// ClearCookie removes the session cookie from the response.
func (s *PGStore) ClearCookie(w http.ResponseWriter) {
	clearCookie(w)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

var _ Manager = (*PGStore)(nil)
