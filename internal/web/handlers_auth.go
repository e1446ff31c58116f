package web

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/moodtunes/api/internal/auth"
)

// handleLogin starts the OAuth flow: it attaches a session (creating one if
// the browser has none) and redirects to the provider consent page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := s.sessions.GetFromRequest(r)
	if sess == nil {
		created, err := s.sessions.Create(ctx)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, errorResponse{
				Error:   codeInternal,
				Message: "could not create session",
			})
			return
		}
		sess = created
		s.sessions.SetCookie(w, sess)
	}

	authURL, err := s.flow.Begin(ctx, sess)
	if err != nil {
		log.Error().Err(err).Msg("starting login flow")
		writeError(w, r, http.StatusInternalServerError, errorResponse{
			Error:   codeInternal,
			Message: "could not start login",
		})
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback completes the OAuth flow. Outcomes are encoded as redirect
// fragments so the front end can render a message; raw errors never reach
// the user.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.GetFromRequest(r)
	if sess == nil {
		authCallbacksTotal.WithLabelValues("state_mismatch").Inc()
		http.Redirect(w, r, "/#error=state_mismatch", http.StatusFound)
		return
	}

	err := s.flow.Complete(r.Context(), sess, r)
	switch {
	case err == nil:
		authCallbacksTotal.WithLabelValues("success").Inc()
		http.Redirect(w, r, "/?authenticated=true", http.StatusFound)
	case errors.Is(err, auth.ErrStateMismatch):
		authCallbacksTotal.WithLabelValues("state_mismatch").Inc()
		http.Redirect(w, r, "/#error=state_mismatch", http.StatusFound)
	case errors.Is(err, auth.ErrAccessDenied):
		authCallbacksTotal.WithLabelValues("access_denied").Inc()
		http.Redirect(w, r, "/#error=access_denied", http.StatusFound)
	default:
		log.Error().Err(err).Msg("completing login flow")
		authCallbacksTotal.WithLabelValues("invalid_token").Inc()
		http.Redirect(w, r, "/#error=invalid_token", http.StatusFound)
	}
}

// handleLogout destroys the session and clears the cookie. Logging out
// without a session is fine.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := s.sessions.GetFromRequest(r); sess != nil {
		s.flow.End(r.Context(), sess)
	}
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

type authStatusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user"`
}

type statusUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleAuthStatus reports whether the caller holds a live authorized
// session.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.GetFromRequest(r)
	if !s.flow.Authorized(sess) {
		writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, authStatusResponse{
		Authenticated: true,
		User:          &statusUser{ID: sess.UserID, Name: sess.UserName},
	})
}
