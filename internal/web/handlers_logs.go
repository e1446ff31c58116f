package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/moodtunes/api/internal/db"
	"github.com/moodtunes/api/internal/insights"
	"github.com/moodtunes/api/internal/mood"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type logMoodRequest struct {
	Mood              string        `json:"mood"`
	PlaylistUsed      string        `json:"playlistUsed"`
	RecommendedTracks []db.TrackRef `json:"recommendedTracks"`
	SessionData       struct {
		TrackCount    int    `json:"trackCount"`
		TracksClicked int    `json:"tracksClicked"`
		UserAgent     string `json:"userAgent"`
	} `json:"sessionData"`
}

type logMoodResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID        string    `json:"id"`
		Mood      string    `json:"mood"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"data"`
}

// handleLogMood appends a mood selection event for the session user. The
// write must complete before the response goes out.
func (s *Server) handleLogMood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	var body logMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, errorResponse{
			Error:   codeValidation,
			Message: "malformed JSON body",
		})
		return
	}

	userAgent := body.SessionData.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	entry := db.NewMoodLog(
		sess.UserID,
		mood.Normalize(body.Mood),
		body.RecommendedTracks,
		body.SessionData.TracksClicked,
		userAgent,
		time.Now(),
	)
	if body.PlaylistUsed != "" {
		entry.PlaylistUsed = &body.PlaylistUsed
	}

	if err := s.logs.Append(ctx, entry); err != nil {
		var invalid *db.ValidationError
		if errors.As(err, &invalid) {
			writeError(w, r, http.StatusBadRequest, errorResponse{
				Error:   codeValidation,
				Message: invalid.Error(),
			})
			return
		}
		log.Error().Err(err).Msg("appending mood log")
		writeError(w, r, http.StatusInternalServerError, errorResponse{
			Error:   codeInternal,
			Message: "could not record mood selection",
		})
		return
	}

	moodLogsTotal.WithLabelValues(entry.Mood).Inc()

	resp := logMoodResponse{Success: true}
	resp.Data.ID = entry.ID.String()
	resp.Data.Mood = entry.Mood
	resp.Data.Timestamp = entry.CreatedAt
	writeJSON(w, http.StatusCreated, resp)
}

// authorizeUserPath enforces that path-scoped user data is only readable by
// the session owner. Cross-user reads are a 403, not a 404.
func (s *Server) authorizeUserPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	sess := sessionFrom(r.Context())
	if userID != sess.UserID {
		writeError(w, r, http.StatusForbidden, errorResponse{
			Error:   codeAccessDenied,
			Message: "you can only access your own data",
		})
		return "", false
	}
	return userID, true
}

type historyResponse struct {
	Entries  []historyEntry `json:"entries"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

type historyEntry struct {
	ID            string        `json:"id"`
	Mood          string        `json:"mood"`
	PlaylistUsed  *string       `json:"playlistUsed,omitempty"`
	Tracks        []db.TrackRef `json:"tracks"`
	TrackCount    int           `json:"trackCount"`
	TracksClicked int           `json:"tracksClicked"`
	Timestamp     time.Time     `json:"timestamp"`
}

// handleHistory returns a page of the user's own mood log.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authorizeUserPath(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := db.HistoryFilter{
		Mood:      q.Get("mood"),
		SinceDays: queryInt(q.Get("days"), 0),
	}
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("limit"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	entries, total, err := s.logs.History(r.Context(), userID, filter, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("loading mood history")
		writeError(w, r, http.StatusInternalServerError, errorResponse{
			Error:   codeInternal,
			Message: "could not load history",
		})
		return
	}

	resp := historyResponse{
		Entries:  make([]historyEntry, 0, len(entries)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, historyEntry{
			ID:            e.ID.String(),
			Mood:          e.Mood,
			PlaylistUsed:  e.PlaylistUsed,
			Tracks:        e.Tracks,
			TrackCount:    e.TrackCount,
			TracksClicked: e.TracksClicked,
			Timestamp:     e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	TotalSelections int                `json:"totalSelections"`
	MoodCounts      []db.MoodCount     `json:"moodCounts"`
	ByDayOfWeek     []db.BucketCount   `json:"byDayOfWeek"`
	ByHourOfDay     []db.BucketCount   `json:"byHourOfDay"`
	Insights        []insights.Insight `json:"insights"`
}

// handleStats returns aggregate counts plus derived insights for the user's
// own mood log.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authorizeUserPath(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	sinceDays := queryInt(r.URL.Query().Get("days"), 0)

	moodCounts, err := s.logs.AggregateByMood(ctx, userID, sinceDays)
	if err != nil {
		s.statsError(w, r, err)
		return
	}
	byDay, err := s.logs.AggregateByDayOfWeek(ctx, userID, sinceDays)
	if err != nil {
		s.statsError(w, r, err)
		return
	}
	byHour, err := s.logs.AggregateByHourOfDay(ctx, userID, sinceDays)
	if err != nil {
		s.statsError(w, r, err)
		return
	}
	derived, err := s.insights.Summary(ctx, userID, sinceDays)
	if err != nil {
		s.statsError(w, r, err)
		return
	}

	total := 0
	for _, mc := range moodCounts {
		total += mc.Count
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalSelections: total,
		MoodCounts:      moodCounts,
		ByDayOfWeek:     byDay,
		ByHourOfDay:     byHour,
		Insights:        derived,
	})
}

func (s *Server) statsError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Msg("building mood stats")
	writeError(w, r, http.StatusInternalServerError, errorResponse{
		Error:   codeInternal,
		Message: "could not build stats",
	})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
