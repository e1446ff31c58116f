package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	api "github.com/zmb3/spotify/v2"

	"github.com/moodtunes/api/internal/mood"
)

// rewriteTransport redirects every request to the test server while keeping
// the original path and query intact.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	return api.New(&http.Client{Transport: rewriteTransport{target: target}})
}

func noShuffle(n int, swap func(i, j int)) {}

func trackJSON(id, name string) string {
	return fmt.Sprintf(`{
		"type": "track",
		"id": %q,
		"name": %q,
		"artists": [{"name": "Artist A"}, {"name": "Artist B"}],
		"album": {"name": "Album"},
		"duration_ms": 180000,
		"popularity": 55,
		"preview_url": "https://p.example/%s",
		"external_urls": {"spotify": "https://open.spotify.com/track/%s"}
	}`, id, name, id, id)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "above cap", limit: 1000, want: 50},
		{name: "zero defaults", limit: 0, want: 20},
		{name: "negative defaults", limit: -3, want: 20},
		{name: "in range", limit: 5, want: 5},
		{name: "at cap", limit: 50, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.limit); got != tt.want {
				t.Errorf("ClampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}

func TestRecommendByFeatures(t *testing.T) {
	var gotQuery url.Values
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recommendations" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"seeds": [], "tracks": [%s, %s]}`,
			trackJSON("t1", "First"), trackJSON("t2", "Second"))
	}))

	profile, err := mood.Resolve("happy")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	r := NewRecommender()
	tracks, err := r.TracksForMood(context.Background(), client, profile, 10)
	if err != nil {
		t.Fatalf("TracksForMood: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].ID != "t1" || tracks[0].Name != "First" {
		t.Errorf("first track = %+v", tracks[0])
	}
	if len(tracks[0].Artists) != 2 || tracks[0].Artists[0] != "Artist A" {
		t.Errorf("artists = %v", tracks[0].Artists)
	}
	if tracks[0].DurationMs != 180000 {
		t.Errorf("duration = %d, want 180000", tracks[0].DurationMs)
	}
	if tracks[0].ExternalURL != "https://open.spotify.com/track/t1" {
		t.Errorf("external url = %q", tracks[0].ExternalURL)
	}

	if got := gotQuery.Get("seed_genres"); got == "" {
		t.Error("request missing seed_genres")
	}
	if got := gotQuery.Get("target_valence"); got == "" {
		t.Error("request missing target_valence")
	}
	if got := gotQuery.Get("min_energy"); got == "" {
		t.Error("request missing min_energy")
	}
}

func TestRecommendTokenExpired(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"status": 401, "message": "The access token expired"}}`)
	}))

	profile, _ := mood.Resolve("sad")
	r := NewRecommender()
	_, err := r.TracksForMood(context.Background(), client, profile, 5)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestRecommendUpstreamError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error": {"status": 502, "message": "upstream exploded"}}`)
	}))

	profile, _ := mood.Resolve("sad")
	r := NewRecommender()
	_, err := r.TracksForMood(context.Background(), client, profile, 5)

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", upstream.Status)
	}
	if upstream.Body != "upstream exploded" {
		t.Errorf("body = %q", upstream.Body)
	}
}

// fallbackHandler serves a 404 for the recommendation endpoint and a playlist
// search corpus where two playlists share three track ids out of 10+10.
func fallbackHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/recommendations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"status": 404, "message": "Not Found"}}`)
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("search request missing q")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"playlists": {"href": "", "items": [
			{"id": "", "name": "tombstone", "owner": {"id": "x"}},
			{"id": "p1", "name": "Mix One", "owner": {"id": "u1"}, "tracks": {"href": "", "total": 10}},
			{"id": "p2", "name": "Mix Two", "owner": {"id": "u2"}, "tracks": {"href": "", "total": 10}},
			{"id": "p3", "name": "", "owner": {"id": "u3"}}
		], "limit": 10, "offset": 0, "total": 4}}`)
	})
	playlistItems := func(prefix string, shared int) string {
		items := ""
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("%s-%d", prefix, i)
			if i < shared {
				id = fmt.Sprintf("shared-%d", i)
			}
			if items != "" {
				items += ","
			}
			items += fmt.Sprintf(`{"added_at": "2024-01-01T00:00:00Z", "track": %s}`, trackJSON(id, "Track "+id))
		}
		return fmt.Sprintf(`{"items": [%s], "limit": 20, "offset": 0, "total": 10}`, items)
	}
	mux.HandleFunc("/v1/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, playlistItems("p1", 3))
	})
	mux.HandleFunc("/v1/playlists/p2/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, playlistItems("p2", 3))
	})
	return mux
}

func TestSearchFallbackDeduplicates(t *testing.T) {
	client := testClient(t, fallbackHandler(t))

	profile, _ := mood.Resolve("happy")
	r := NewRecommender(WithSearchFallback(true), withShuffle(noShuffle))
	tracks, err := r.TracksForMood(context.Background(), client, profile, 50)
	if err != nil {
		t.Fatalf("TracksForMood: %v", err)
	}

	// 10 + 10 tracks with 3 overlapping ids leaves at most 17 unique.
	if len(tracks) != 17 {
		t.Errorf("got %d tracks, want 17", len(tracks))
	}
	seen := make(map[string]bool)
	for _, track := range tracks {
		if seen[track.ID] {
			t.Errorf("duplicate track id %s", track.ID)
		}
		seen[track.ID] = true
	}
}

func TestSearchFallbackTruncatesToLimit(t *testing.T) {
	client := testClient(t, fallbackHandler(t))

	profile, _ := mood.Resolve("happy")
	r := NewRecommender(WithSearchFallback(true), withShuffle(noShuffle))
	tracks, err := r.TracksForMood(context.Background(), client, profile, 5)
	if err != nil {
		t.Fatalf("TracksForMood: %v", err)
	}
	if len(tracks) != 5 {
		t.Errorf("got %d tracks, want 5", len(tracks))
	}
}

func TestFallbackDisabledSurfacesUpstreamError(t *testing.T) {
	client := testClient(t, fallbackHandler(t))

	profile, _ := mood.Resolve("happy")
	r := NewRecommender()
	_, err := r.TracksForMood(context.Background(), client, profile, 5)

	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusNotFound {
		t.Errorf("error = %v, want upstream 404", err)
	}
}

func TestSearchFallbackNoResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/recommendations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"status": 404, "message": "Not Found"}}`)
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"playlists": {"href": "", "items": [], "limit": 10, "offset": 0, "total": 0}}`)
	})
	client := testClient(t, mux)

	profile, _ := mood.Resolve("relaxed")
	r := NewRecommender(WithSearchFallback(true))
	_, err := r.TracksForMood(context.Background(), client, profile, 5)
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("error = %v, want ErrNoResults", err)
	}
}
