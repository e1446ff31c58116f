// Package session manages browser sessions for the mood recommendation
// service. A session is created anonymously when the login flow begins,
// carries the OAuth anti-forgery state while the flow is in flight, and is
// upgraded with the token and user identity once the flow completes.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	cookieName = "session_id"

	// TTL is how long a session lives regardless of token expiry.
	TTL = 24 * time.Hour
)

// Session represents a browser session. OAuthState is a single slot: a new
// login attempt overwrites any in-flight state, invalidating the older
// attempt.
type Session struct {
	ID         string
	OAuthState string
	Token      *oauth2.Token
	UserID     string
	UserName   string
	CreatedAt  time.Time
}

// Manager defines the interface for session storage.
type Manager interface {
	// Create makes a new anonymous session.
	Create(ctx context.Context) (*Session, error)
	// Get retrieves a live session by ID, or nil.
	Get(ctx context.Context, id string) *Session
	// Save persists the mutable fields: state slot, token and user binding.
	Save(ctx context.Context, session *Session) error
	// Delete removes a session. Deleting a missing session is a no-op.
	Delete(ctx context.Context, id string)
	// GetFromRequest extracts the session from the request cookie, or nil.
	GetFromRequest(r *http.Request) *Session
	SetCookie(w http.ResponseWriter, session *Session)
	ClearCookie(w http.ResponseWriter)
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// setCookie sets the session cookie on the response.
func setCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TTL.Seconds()),
	})
}

// clearCookie removes the session cookie from the response.
func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
