package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodtunes/api/internal/mood"
)

// MoodLogRepository handles the append-only mood selection log.
type MoodLogRepository struct {
	pool *pgxpool.Pool
}

// HistoryFilter narrows a history query. Zero values mean "no filter".
type HistoryFilter struct {
	Mood      string
	SinceDays int
}

// Append validates and inserts a mood log entry. The entry is never mutated
// afterwards. Invalid moods and missing user ids are rejected before any
// write happens.
func (r *MoodLogRepository) Append(ctx context.Context, entry *MoodLog) error {
	if entry.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "required"}
	}
	if !mood.Valid(entry.Mood) {
		return &ValidationError{Field: "mood", Reason: fmt.Sprintf("%q is not a supported mood", entry.Mood)}
	}

	tracks, err := json.Marshal(entry.Tracks)
	if err != nil {
		return fmt.Errorf("encoding tracks: %w", err)
	}

	query := `
		INSERT INTO mood_logs (id, user_id, mood, playlist_used, tracks, track_count, tracks_clicked, user_agent, created_at, day_of_week, hour_of_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Mood,
		entry.PlaylistUsed,
		tracks,
		entry.TrackCount,
		entry.TracksClicked,
		entry.UserAgent,
		entry.CreatedAt,
		entry.DayOfWeek,
		entry.HourOfDay,
	)
	if err != nil {
		return fmt.Errorf("inserting mood log: %w", err)
	}
	return nil
}

// History returns a page of the user's entries sorted by timestamp
// descending, along with the total count matching the filter. page is
// 1-based.
func (r *MoodLogRepository) History(ctx context.Context, userID string, filter HistoryFilter, page, pageSize int) ([]MoodLog, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where := `WHERE user_id = $1`
	args := []any{userID}
	if filter.Mood != "" {
		args = append(args, mood.Normalize(filter.Mood))
		where += fmt.Sprintf(` AND mood = $%d`, len(args))
	}
	if filter.SinceDays > 0 {
		args = append(args, time.Now().AddDate(0, 0, -filter.SinceDays))
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mood_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting mood logs: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
		SELECT id, user_id, mood, playlist_used, tracks, track_count, tracks_clicked, user_agent, created_at, day_of_week, hour_of_day
		FROM mood_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying mood logs: %w", err)
	}
	defer rows.Close()

	var entries []MoodLog
	for rows.Next() {
		var entry MoodLog
		var tracks []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Mood,
			&entry.PlaylistUsed,
			&tracks,
			&entry.TrackCount,
			&entry.TracksClicked,
			&entry.UserAgent,
			&entry.CreatedAt,
			&entry.DayOfWeek,
			&entry.HourOfDay,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning mood log: %w", err)
		}
		if err := json.Unmarshal(tracks, &entry.Tracks); err != nil {
			return nil, 0, fmt.Errorf("decoding tracks: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// AggregateByMood returns per-mood counts with the most recent use, sorted
// by count descending. sinceDays <= 0 aggregates over all entries.
func (r *MoodLogRepository) AggregateByMood(ctx context.Context, userID string, sinceDays int) ([]MoodCount, error) {
	query := `
		SELECT mood, COUNT(*), MAX(created_at)
		FROM mood_logs
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY mood
		ORDER BY COUNT(*) DESC, mood
	`
	rows, err := r.pool.Query(ctx, query, userID, sinceCutoff(sinceDays))
	if err != nil {
		return nil, fmt.Errorf("aggregating by mood: %w", err)
	}
	defer rows.Close()

	var counts []MoodCount
	for rows.Next() {
		var mc MoodCount
		if err := rows.Scan(&mc.Mood, &mc.Count, &mc.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning mood count: %w", err)
		}
		counts = append(counts, mc)
	}
	return counts, rows.Err()
}

// AggregateByDayOfWeek groups counts over the stored day_of_week column.
// The bucket was derived once at entry creation; it is never recomputed
// from the timestamp here.
func (r *MoodLogRepository) AggregateByDayOfWeek(ctx context.Context, userID string, sinceDays int) ([]BucketCount, error) {
	return r.aggregateBucket(ctx, "day_of_week", userID, sinceDays)
}

// AggregateByHourOfDay groups counts over the stored hour_of_day column.
func (r *MoodLogRepository) AggregateByHourOfDay(ctx context.Context, userID string, sinceDays int) ([]BucketCount, error) {
	return r.aggregateBucket(ctx, "hour_of_day", userID, sinceDays)
}

func (r *MoodLogRepository) aggregateBucket(ctx context.Context, column, userID string, sinceDays int) ([]BucketCount, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM mood_logs
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY %s
		ORDER BY %s
	`, column, column, column)

	rows, err := r.pool.Query(ctx, query, userID, sinceCutoff(sinceDays))
	if err != nil {
		return nil, fmt.Errorf("aggregating by %s: %w", column, err)
	}
	defer rows.Close()

	var counts []BucketCount
	for rows.Next() {
		var bc BucketCount
		if err := rows.Scan(&bc.Bucket, &bc.Count); err != nil {
			return nil, fmt.Errorf("scanning bucket count: %w", err)
		}
		counts = append(counts, bc)
	}
	return counts, rows.Err()
}

// sinceCutoff converts a day lookback into an absolute lower bound. Zero or
// negative lookbacks cover all history.
func sinceCutoff(sinceDays int) time.Time {
	if sinceDays <= 0 {
		return time.Time{}
	}
	return time.Now().AddDate(0, 0, -sinceDays)
}
