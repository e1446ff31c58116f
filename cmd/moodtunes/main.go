// Command moodtunes runs the mood-based music recommendation API.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodtunes/api/internal/auth"
	"github.com/moodtunes/api/internal/config"
	"github.com/moodtunes/api/internal/db"
	"github.com/moodtunes/api/internal/insights"
	"github.com/moodtunes/api/internal/session"
	"github.com/moodtunes/api/internal/spotify"
	"github.com/moodtunes/api/internal/web"
)

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.New(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	log.Info().Msg("database ready")

	sessions := session.NewPGStore(database)
	flow := auth.NewFlow(auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
	}, sessions, database.Users())

	recommender := spotify.NewRecommender(
		spotify.WithSearchFallback(cfg.Spotify.SearchFallback),
	)

	go sweepSessions(ctx, database)

	server := web.NewServer(web.Config{
		Addr:           ":" + cfg.Server.Port,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Sessions:       sessions,
		Flow:           flow,
		Tracks:         recommender,
		Logs:           database.MoodLogs(),
		Insights:       insights.NewService(database.MoodLogs()),
	})
	return server.Run(ctx)
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// sweepSessions periodically removes expired sessions.
func sweepSessions(ctx context.Context, database *db.DB) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := database.Sessions().DeleteExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("sweeping sessions")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("expired sessions purged")
			}
		}
	}
}
