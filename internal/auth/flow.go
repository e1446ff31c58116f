// Package auth implements the authorization-code login flow against
// Spotify. State lives in the server-side session rather than a browser
// cookie, so a session has at most one login attempt in flight: starting a
// new attempt overwrites the previous state and invalidates it.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/moodtunes/api/internal/db"
	"github.com/moodtunes/api/internal/session"
	"github.com/moodtunes/api/internal/spotify"
)

const stateLength = 16

var (
	// ErrStateMismatch is returned when the callback state does not match
	// the state stored in the session, or no attempt is in flight.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrAccessDenied is returned when the user declined the consent screen.
	ErrAccessDenied = errors.New("user denied access")
)

// TokenExchangeError wraps a failure to trade the authorization code for a
// token, or to fetch the user profile with the fresh token.
type TokenExchangeError struct {
	Err error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// UserStore persists provider profiles after a successful login.
type UserStore interface {
	Upsert(ctx context.Context, user *db.User) error
}

// Flow drives the login state machine for a session.
type Flow struct {
	auth     *spotifyauth.Authenticator
	sessions session.Manager
	users    UserStore
	now      func() time.Time
}

// Config holds the OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewFlow creates a login flow. users may be nil when profile persistence
// is not wanted.
func NewFlow(cfg Config, sessions session.Manager, users UserStore) *Flow {
	authenticator := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopeUserReadEmail,
		),
	)
	return &Flow{
		auth:     authenticator,
		sessions: sessions,
		users:    users,
		now:      time.Now,
	}
}

// Begin stores a fresh anti-forgery state in the session and returns the
// provider authorization URL. Any in-flight attempt on the same session is
// overwritten.
func (f *Flow) Begin(ctx context.Context, sess *session.Session) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}

	sess.OAuthState = state
	if err := f.sessions.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}

	return f.auth.AuthURL(state), nil
}

// Complete finishes the login flow from the provider callback. The stored
// state is consumed no matter the outcome, so a callback URL cannot be
// replayed.
func (f *Flow) Complete(ctx context.Context, sess *session.Session, r *http.Request) error {
	stored := sess.OAuthState
	sess.OAuthState = ""
	if err := f.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	returned := r.URL.Query().Get("state")
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(returned)) != 1 {
		return ErrStateMismatch
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		if errParam == "access_denied" {
			return ErrAccessDenied
		}
		return &TokenExchangeError{Err: fmt.Errorf("provider error: %s", errParam)}
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// A callback with no code and no error param means the provider
		// granted nothing. Treat it like a declined consent screen rather
		// than attempting an exchange that can only fail.
		return ErrAccessDenied
	}

	token, err := f.auth.Exchange(ctx, code)
	if err != nil {
		return &TokenExchangeError{Err: err}
	}

	client := spotify.NewAPI(f.auth.Client(ctx, token))
	profile, err := client.CurrentUser(ctx)
	if err != nil {
		return &TokenExchangeError{Err: fmt.Errorf("fetching profile: %w", err)}
	}

	if f.users != nil {
		user := &db.User{
			ID:          string(profile.ID),
			DisplayName: profile.DisplayName,
			Email:       profile.Email,
		}
		if err := f.users.Upsert(ctx, user); err != nil {
			return fmt.Errorf("saving user: %w", err)
		}
	}

	sess.Token = token
	sess.UserID = string(profile.ID)
	sess.UserName = profile.DisplayName
	if err := f.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Authorized reports whether the session holds a token that is still live.
// A token expiring exactly now counts as expired.
func (f *Flow) Authorized(sess *session.Session) bool {
	if sess == nil || sess.Token == nil || sess.Token.AccessToken == "" {
		return false
	}
	return f.now().Before(sess.Token.Expiry)
}

// End logs the session out. Ending a session that was never authorized, or
// ending twice, is a no-op.
func (f *Flow) End(ctx context.Context, sess *session.Session) {
	if sess == nil {
		return
	}
	f.sessions.Delete(ctx, sess.ID)
}

// Client builds an authenticated provider client from the session token,
// with the bounded outbound request timeout applied.
func (f *Flow) Client(ctx context.Context, sess *session.Session) *spotifyapi.Client {
	return spotify.NewAPI(f.auth.Client(ctx, sess.Token))
}

const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateState creates a random alphanumeric anti-forgery token.
func generateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = stateAlphabet[int(b[i])%len(stateAlphabet)]
	}
	return string(b), nil
}
