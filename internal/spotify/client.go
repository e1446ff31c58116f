// Package spotify wraps the provider web API with the two mood-based query
// strategies: a feature-seeded recommendation query and a playlist
// search-and-aggregate fallback.
package spotify

import (
	"context"
	"errors"
	"net/http"
	"time"

	api "github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/moodtunes/api/internal/mood"
)

const (
	// DefaultLimit is used when the caller does not supply a result limit.
	DefaultLimit = 20

	// MaxLimit is the provider's hard cap on results per request.
	MaxLimit = 50

	// requestTimeout bounds every outbound provider call. Failed or timed-out
	// calls surface as terminal errors for the request; nothing is retried.
	requestTimeout = 10 * time.Second

	// outboundRate limits provider calls per second across all requests.
	outboundRate = 10
)

// Recommender executes mood queries against the provider. The primary
// strategy sends feature targets and genre seeds to the recommendation
// endpoint; when the endpoint is unavailable (upstream 404) and the fallback
// is enabled, it aggregates tracks from public playlists instead.
type Recommender struct {
	limiter        *rate.Limiter
	searchFallback bool
	shuffle        func(n int, swap func(i, j int))
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithSearchFallback enables the playlist search-and-aggregate fallback.
func WithSearchFallback(enabled bool) Option {
	return func(r *Recommender) { r.searchFallback = enabled }
}

// withShuffle overrides the shuffle used by the fallback path. Tests use it
// to make ordering deterministic.
func withShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(r *Recommender) { r.shuffle = fn }
}

// NewRecommender creates a Recommender with a shared outbound rate limiter.
func NewRecommender(opts ...Option) *Recommender {
	r := &Recommender{
		limiter: rate.NewLimiter(rate.Limit(outboundRate), 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewAPI builds a provider API client from an authenticated HTTP client,
// applying the bounded request timeout.
func NewAPI(httpClient *http.Client) *api.Client {
	httpClient.Timeout = requestTimeout
	return api.New(httpClient)
}

// ClampLimit normalizes a requested result limit into [1, MaxLimit],
// substituting DefaultLimit when the value is absent or not positive.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// TracksForMood returns up to limit normalized tracks matching the mood
// profile. The mood must already be resolved; this method performs no label
// validation of its own.
func (r *Recommender) TracksForMood(ctx context.Context, client *api.Client, profile mood.Profile, limit int) ([]Track, error) {
	limit = ClampLimit(limit)

	tracks, err := r.recommendByFeatures(ctx, client, profile, limit)
	if err == nil {
		return tracks, nil
	}

	var upstream *UpstreamError
	if r.searchFallback && errors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
		return r.searchAndAggregate(ctx, client, profile, limit)
	}
	return nil, err
}

// wait blocks until the limiter admits another outbound call.
func (r *Recommender) wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
