package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/moodtunes/api/internal/mood"
	"github.com/moodtunes/api/internal/spotify"
)

type moodsResponse struct {
	Moods        []string          `json:"moods"`
	Descriptions map[string]string `json:"descriptions"`
}

// handleMoods lists the supported mood labels and their descriptions.
func (s *Server) handleMoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, moodsResponse{
		Moods:        mood.Labels(),
		Descriptions: mood.Descriptions(),
	})
}

type recommendationsResponse struct {
	Mood         string                             `json:"mood"`
	MoodFeatures map[mood.Feature]mood.FeatureRange `json:"moodFeatures"`
	Tracks       []spotify.Track                    `json:"tracks"`
	Total        int                                `json:"total"`
}

// handleRecommendations returns tracks for the requested mood using the
// caller's own provider token.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	profile, err := mood.Resolve(r.URL.Query().Get("mood"))
	if err != nil {
		var unsupported *mood.UnsupportedMoodError
		if errors.As(err, &unsupported) {
			recommendationsTotal.WithLabelValues(unsupported.Label, "unsupported").Inc()
			writeError(w, r, http.StatusBadRequest, errorResponse{
				Error:          codeUnsupportedMood,
				Message:        fmt.Sprintf("mood %q is not supported", unsupported.Label),
				SupportedMoods: unsupported.Supported,
			})
			return
		}
		writeError(w, r, http.StatusBadRequest, errorResponse{Error: codeUnsupportedMood, Message: err.Error()})
		return
	}

	// A non-numeric limit falls back to the default rather than erroring.
	limit := spotify.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = spotify.ClampLimit(parsed)
		}
	}

	client := s.flow.Client(ctx, sess)
	tracks, err := s.tracks.TracksForMood(ctx, client, profile, limit)
	if err != nil {
		s.writeRecommendationError(w, r, profile.Label, err)
		return
	}

	recommendationsTotal.WithLabelValues(profile.Label, "success").Inc()
	writeJSON(w, http.StatusOK, recommendationsResponse{
		Mood:         profile.Label,
		MoodFeatures: profile.Features,
		Tracks:       tracks,
		Total:        len(tracks),
	})
}

func (s *Server) writeRecommendationError(w http.ResponseWriter, r *http.Request, label string, err error) {
	var upstream *spotify.UpstreamError
	switch {
	case errors.Is(err, spotify.ErrTokenExpired):
		recommendationsTotal.WithLabelValues(label, "token_expired").Inc()
		writeError(w, r, http.StatusUnauthorized, errorResponse{
			Error:    codeTokenExpired,
			Message:  "access token expired, please log in again",
			LoginURL: "/login",
		})
	case errors.Is(err, spotify.ErrNoResults):
		recommendationsTotal.WithLabelValues(label, "no_results").Inc()
		writeError(w, r, http.StatusNotFound, errorResponse{
			Error:   codeNoResults,
			Message: fmt.Sprintf("no tracks found for mood %q", label),
		})
	case errors.As(err, &upstream):
		recommendationsTotal.WithLabelValues(label, "upstream_error").Inc()
		log.Error().Int("upstream_status", upstream.Status).Str("body", upstream.Body).Msg("provider error")
		writeError(w, r, http.StatusBadGateway, errorResponse{
			Error:   codeRecommendation,
			Message: fmt.Sprintf("provider returned status %d: %s", upstream.Status, upstream.Body),
		})
	default:
		recommendationsTotal.WithLabelValues(label, "error").Inc()
		log.Error().Err(err).Msg("recommendation failed")
		writeError(w, r, http.StatusInternalServerError, errorResponse{
			Error:   codeRecommendation,
			Message: "recommendation request failed",
		})
	}
}
