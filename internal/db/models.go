package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a provider user profile.
type User struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents a web session. A session is created anonymous at the
// start of the login flow (only OAuthState set) and upgraded with user and
// token fields after a successful code exchange.
type Session struct {
	ID           string
	UserID       *string    // nil until authorized
	OAuthState   *string    // single-slot anti-forgery token, nil outside the flow
	AccessToken  *string    // nil until authorized
	RefreshToken *string    // nil until authorized
	TokenExpiry  *time.Time // nil until authorized
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// TrackRef is the compact track snapshot stored with a mood log entry.
type TrackRef struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artistNames"`
	URL     string   `json:"sourceUrl,omitempty"`
}

// MoodLog is one mood selection event. Entries are append-only and never
// mutated after creation.
type MoodLog struct {
	ID            uuid.UUID
	UserID        string
	Mood          string
	PlaylistUsed  *string
	Tracks        []TrackRef
	TrackCount    int
	TracksClicked int
	UserAgent     string
	CreatedAt     time.Time
	DayOfWeek     int // 0 (Sunday) - 6, derived from CreatedAt at creation
	HourOfDay     int // 0 - 23, derived from CreatedAt at creation
}

// NewMoodLog builds an entry with the derived day/hour buckets computed once
// from the entry's own timestamp. They are stored and never recomputed.
func NewMoodLog(userID, moodLabel string, tracks []TrackRef, tracksClicked int, userAgent string, at time.Time) *MoodLog {
	return &MoodLog{
		ID:            uuid.New(),
		UserID:        userID,
		Mood:          moodLabel,
		Tracks:        tracks,
		TrackCount:    len(tracks),
		TracksClicked: tracksClicked,
		UserAgent:     userAgent,
		CreatedAt:     at,
		DayOfWeek:     int(at.Weekday()),
		HourOfDay:     at.Hour(),
	}
}

// MoodCount is an aggregate row for a single mood.
type MoodCount struct {
	Mood     string    `json:"mood"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"lastUsed"`
}

// BucketCount is an aggregate row for a day-of-week or hour-of-day bucket.
type BucketCount struct {
	Bucket int `json:"bucket"`
	Count  int `json:"count"`
}
