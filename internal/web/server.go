// Package web provides the HTTP server and JSON API for the mood
// recommendation service.
package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/moodtunes/api/internal/auth"
	"github.com/moodtunes/api/internal/db"
	"github.com/moodtunes/api/internal/insights"
	"github.com/moodtunes/api/internal/mood"
	"github.com/moodtunes/api/internal/session"
	"github.com/moodtunes/api/internal/spotify"
)

// TrackSource produces recommendations for a mood profile.
type TrackSource interface {
	TracksForMood(ctx context.Context, client *spotifyapi.Client, profile mood.Profile, limit int) ([]spotify.Track, error)
}

// MoodLogStore is the slice of the mood log repository the handlers need.
type MoodLogStore interface {
	Append(ctx context.Context, entry *db.MoodLog) error
	History(ctx context.Context, userID string, filter db.HistoryFilter, page, pageSize int) ([]db.MoodLog, int, error)
	AggregateByMood(ctx context.Context, userID string, sinceDays int) ([]db.MoodCount, error)
	AggregateByDayOfWeek(ctx context.Context, userID string, sinceDays int) ([]db.BucketCount, error)
	AggregateByHourOfDay(ctx context.Context, userID string, sinceDays int) ([]db.BucketCount, error)
}

// Config holds server wiring.
type Config struct {
	Addr           string
	AllowedOrigins []string
	Sessions       session.Manager
	Flow           *auth.Flow
	Tracks         TrackSource
	Logs           MoodLogStore
	Insights       *insights.Service
}

// Server is the HTTP server for the service.
type Server struct {
	router   chi.Router
	server   *http.Server
	sessions session.Manager
	flow     *auth.Flow
	tracks   TrackSource
	logs     MoodLogStore
	insights *insights.Service
}

// NewServer creates a web server with all routes configured.
func NewServer(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		sessions: cfg.Sessions,
		flow:     cfg.Flow,
		tracks:   cfg.Tracks,
		logs:     cfg.Logs,
		insights: cfg.Insights,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(allowedOrigins []string) {
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(metricsMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsHandler(allowedOrigins))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", metricsHandler())

	s.router.Get("/login", s.handleLogin)
	s.router.Get("/callback", s.handleCallback)
	s.router.Get("/logout", s.handleLogout)
	s.router.Get("/auth/status", s.handleAuthStatus)
	s.router.Get("/moods", s.handleMoods)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/recommendations", s.handleRecommendations)
		r.Route("/api/mood", func(r chi.Router) {
			r.Post("/log", s.handleLogMood)
			r.Get("/history/{userID}", s.handleHistory)
			r.Get("/stats/{userID}", s.handleStats)
		})
	})
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until the context is canceled or an
// interrupt arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
