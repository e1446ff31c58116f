package spotify

import (
	"errors"
	"fmt"
	"net/http"

	api "github.com/zmb3/spotify/v2"
)

// Sentinel errors.
var (
	// ErrTokenExpired is returned when the provider rejects the access token.
	// Callers should prompt a re-login instead of reporting a generic failure.
	ErrTokenExpired = errors.New("access token expired or revoked")

	// ErrNoResults is returned when the search-and-aggregate path finds no
	// usable playlists or tracks. Distinct from a transport failure.
	ErrNoResults = errors.New("no tracks found for mood")
)

// UpstreamError carries the provider's original status and message so
// failures stay diagnosable. Upstream errors are never retried.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Body)
}

// classify maps a provider API error to the package taxonomy. A 401 becomes
// ErrTokenExpired; any other API error keeps its status and body attached.
// Transport errors pass through wrapped.
func classify(err error) error {
	var apiErr api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized {
			return ErrTokenExpired
		}
		return &UpstreamError{Status: apiErr.Status, Body: apiErr.Message}
	}
	return fmt.Errorf("calling provider: %w", err)
}
