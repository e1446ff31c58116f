package db

import (
	"context"
	"fmt"
)

// schema holds the bootstrap DDL. Statements are idempotent so Migrate can
// run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		oauth_state TEXT,
		access_token TEXT,
		refresh_token TEXT,
		token_expiry TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mood_logs (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		mood TEXT NOT NULL,
		playlist_used TEXT,
		tracks JSONB NOT NULL DEFAULT '[]',
		track_count INT NOT NULL DEFAULT 0,
		tracks_clicked INT NOT NULL DEFAULT 0,
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		day_of_week INT NOT NULL,
		hour_of_day INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_logs_user_created ON mood_logs (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_logs_user_mood ON mood_logs (user_id, mood)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
}

// Migrate applies the schema. Safe to call on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
