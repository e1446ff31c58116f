package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/moodtunes/api/internal/db"
	"github.com/moodtunes/api/internal/session"
)

// rewriteTransport redirects all outbound requests to a test server so the
// token endpoint and the profile endpoint can be faked.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type fakeUserStore struct {
	upserted []*db.User
}

func (f *fakeUserStore) Upsert(_ context.Context, user *db.User) error {
	f.upserted = append(f.upserted, user)
	return nil
}

func testFlow(t *testing.T) (*Flow, session.Manager, *fakeUserStore) {
	t.Helper()
	sessions := session.NewMemoryStore()
	users := &fakeUserStore{}
	flow := NewFlow(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://127.0.0.1:8080/callback",
	}, sessions, users)
	return flow, sessions, users
}

func newSession(t *testing.T, sessions session.Manager) *session.Session {
	t.Helper()
	sess, err := sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sess
}

func callbackRequest(state, code, errParam string) *http.Request {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	if code != "" {
		q.Set("code", code)
	}
	if errParam != "" {
		q.Set("error", errParam)
	}
	return httptest.NewRequest(http.MethodGet, "/callback?"+q.Encode(), nil)
}

func TestBeginStoresStateAndBuildsURL(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)

	authURL, err := flow.Begin(context.Background(), sess)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(sess.OAuthState) != stateLength {
		t.Fatalf("state length = %d, want %d", len(sess.OAuthState), stateLength)
	}
	if !strings.Contains(authURL, "state="+sess.OAuthState) {
		t.Errorf("auth URL missing state parameter: %s", authURL)
	}
	if !strings.Contains(authURL, "client_id=client-id") {
		t.Errorf("auth URL missing client id: %s", authURL)
	}

	stored := sessions.Get(context.Background(), sess.ID)
	if stored == nil || stored.OAuthState != sess.OAuthState {
		t.Error("state not persisted to session store")
	}
}

func TestBeginOverwritesInFlightState(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)
	ctx := context.Background()

	if _, err := flow.Begin(ctx, sess); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	first := sess.OAuthState

	if _, err := flow.Begin(ctx, sess); err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	if sess.OAuthState == first {
		t.Fatal("second Begin did not replace the state")
	}

	// The older attempt's callback must now fail.
	err := flow.Complete(ctx, sess, callbackRequest(first, "code", ""))
	if err != ErrStateMismatch {
		t.Fatalf("Complete with stale state = %v, want ErrStateMismatch", err)
	}
}

func TestCompleteStateMismatch(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)
	ctx := context.Background()

	if _, err := flow.Begin(ctx, sess); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	err := flow.Complete(ctx, sess, callbackRequest("forged-state-0000", "code", ""))
	if err != ErrStateMismatch {
		t.Fatalf("Complete = %v, want ErrStateMismatch", err)
	}
	if stored := sessions.Get(ctx, sess.ID); stored.OAuthState != "" {
		t.Error("state should be consumed even on mismatch")
	}
}

func TestCompleteWithoutBegin(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)

	err := flow.Complete(context.Background(), sess, callbackRequest("anything", "code", ""))
	if err != ErrStateMismatch {
		t.Fatalf("Complete = %v, want ErrStateMismatch", err)
	}
}

func TestCompleteMissingCode(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)
	ctx := context.Background()

	if _, err := flow.Begin(ctx, sess); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	state := sess.OAuthState

	// Matching state but no code and no error param: nothing was granted,
	// so no exchange is attempted.
	err := flow.Complete(ctx, sess, callbackRequest(state, "", ""))
	if err != ErrAccessDenied {
		t.Fatalf("Complete = %v, want ErrAccessDenied", err)
	}
	if sess.Token != nil {
		t.Error("no token should be stored")
	}
	if stored := sessions.Get(ctx, sess.ID); stored.OAuthState != "" {
		t.Error("state should be consumed")
	}
}

func TestCompleteAccessDenied(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)
	ctx := context.Background()

	if _, err := flow.Begin(ctx, sess); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	state := sess.OAuthState

	err := flow.Complete(ctx, sess, callbackRequest(state, "", "access_denied"))
	if err != ErrAccessDenied {
		t.Fatalf("Complete = %v, want ErrAccessDenied", err)
	}

	// The callback cannot be replayed after the state is consumed.
	err = flow.Complete(ctx, sess, callbackRequest(state, "", "access_denied"))
	if err != ErrStateMismatch {
		t.Fatalf("replayed Complete = %v, want ErrStateMismatch", err)
	}
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
		case "/v1/me":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"listener-1","display_name":"Test Listener","email":"listener@example.com"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	httpClient := &http.Client{Transport: rewriteTransport{target: target}}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	flow, sessions, users := testFlow(t)
	sess := newSession(t, sessions)

	if _, err := flow.Begin(ctx, sess); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	state := sess.OAuthState

	if err := flow.Complete(ctx, sess, callbackRequest(state, "auth-code", "")); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if sess.Token == nil || sess.Token.AccessToken != "fresh-token" {
		t.Fatalf("token not stored: %+v", sess.Token)
	}
	if sess.UserID != "listener-1" || sess.UserName != "Test Listener" {
		t.Errorf("user binding = %q/%q", sess.UserID, sess.UserName)
	}
	if len(users.upserted) != 1 || users.upserted[0].Email != "listener@example.com" {
		t.Errorf("user not upserted: %+v", users.upserted)
	}

	stored := sessions.Get(ctx, sess.ID)
	if stored.OAuthState != "" {
		t.Error("state should be consumed on success")
	}
	if stored.Token == nil || stored.Token.AccessToken != "fresh-token" {
		t.Error("token not persisted to session store")
	}

	// Replaying the callback must fail.
	err = flow.Complete(ctx, sess, callbackRequest(state, "auth-code", ""))
	if err != ErrStateMismatch {
		t.Fatalf("replayed Complete = %v, want ErrStateMismatch", err)
	}
}

func TestAuthorizedExpiryBoundary(t *testing.T) {
	flow, _, _ := testFlow(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	flow.now = func() time.Time { return now }

	tests := []struct {
		name string
		sess *session.Session
		want bool
	}{
		{"nil session", nil, false},
		{"no token", &session.Session{ID: "s"}, false},
		{
			"live token",
			&session.Session{Token: &oauth2.Token{AccessToken: "t", Expiry: now.Add(time.Second)}},
			true,
		},
		{
			"expiring exactly now",
			&session.Session{Token: &oauth2.Token{AccessToken: "t", Expiry: now}},
			false,
		},
		{
			"expired",
			&session.Session{Token: &oauth2.Token{AccessToken: "t", Expiry: now.Add(-time.Minute)}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flow.Authorized(tt.sess); got != tt.want {
				t.Errorf("Authorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEndIdempotent(t *testing.T) {
	flow, sessions, _ := testFlow(t)
	sess := newSession(t, sessions)
	ctx := context.Background()

	flow.End(ctx, sess)
	if sessions.Get(ctx, sess.ID) != nil {
		t.Fatal("session should be gone after End")
	}
	flow.End(ctx, sess)
	flow.End(ctx, nil)
}
