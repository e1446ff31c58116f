// Package insights derives listening-pattern summaries from the mood
// selection log: dominant moods, busiest times, the overall vibe of recent
// picks and the devices they come from.
package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/useragent"

	"github.com/moodtunes/api/internal/db"
)

// historySample caps how many recent entries feed the vibe and device
// insights.
const historySample = 200

// Insight is a single human-readable observation about a user's habits.
type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

// LogSource is the slice of the mood log repository the service needs.
type LogSource interface {
	AggregateByMood(ctx context.Context, userID string, sinceDays int) ([]db.MoodCount, error)
	AggregateByDayOfWeek(ctx context.Context, userID string, sinceDays int) ([]db.BucketCount, error)
	AggregateByHourOfDay(ctx context.Context, userID string, sinceDays int) ([]db.BucketCount, error)
	History(ctx context.Context, userID string, filter db.HistoryFilter, page, pageSize int) ([]db.MoodLog, int, error)
}

// Service computes insights from the mood log.
type Service struct {
	logs LogSource
}

// NewService creates an insights service.
func NewService(logs LogSource) *Service {
	return &Service{logs: logs}
}

// Summary builds the insight list for a user. sinceDays <= 0 covers all
// history. Users with no entries get a single "empty" insight rather than
// an error.
func (s *Service) Summary(ctx context.Context, userID string, sinceDays int) ([]Insight, error) {
	moods, err := s.logs.AggregateByMood(ctx, userID, sinceDays)
	if err != nil {
		return nil, fmt.Errorf("aggregating moods: %w", err)
	}
	if len(moods) == 0 {
		return []Insight{{
			Type:    "empty",
			Title:   "No history yet",
			Message: "Pick a mood and get some recommendations to start seeing insights here.",
			Icon:    "🎵",
		}}, nil
	}

	insights := []Insight{topMoodInsight(moods[0])}

	days, err := s.logs.AggregateByDayOfWeek(ctx, userID, sinceDays)
	if err != nil {
		return nil, fmt.Errorf("aggregating days: %w", err)
	}
	if day, ok := busiestBucket(days); ok {
		insights = append(insights, Insight{
			Type:    "busiest-day",
			Title:   "Busiest day",
			Message: fmt.Sprintf("%s is when you reach for music the most.", time.Weekday(day).String()),
			Icon:    "📅",
		})
	}

	hours, err := s.logs.AggregateByHourOfDay(ctx, userID, sinceDays)
	if err != nil {
		return nil, fmt.Errorf("aggregating hours: %w", err)
	}
	if hour, ok := busiestBucket(hours); ok {
		insights = append(insights, Insight{
			Type:    "busiest-hour",
			Title:   "Peak listening hour",
			Message: fmt.Sprintf("Most of your picks happen around %s.", hourLabel(hour)),
			Icon:    "🕑",
		})
	}

	entries, _, err := s.logs.History(ctx, userID, db.HistoryFilter{SinceDays: sinceDays}, 1, historySample)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if vibe, ok := vibeInsight(entries); ok {
		insights = append(insights, vibe)
	}
	if device, ok := deviceInsight(entries); ok {
		insights = append(insights, device)
	}

	return insights, nil
}

func topMoodInsight(top db.MoodCount) Insight {
	return Insight{
		Type:    "top-mood",
		Title:   "Most frequent mood",
		Message: fmt.Sprintf("You picked %s %d times, more than any other mood.", top.Mood, top.Count),
		Icon:    moodIcon(top.Mood),
	}
}

// busiestBucket returns the bucket with the highest count. Ties go to the
// earlier bucket since aggregates arrive bucket-ordered.
func busiestBucket(counts []db.BucketCount) (int, bool) {
	if len(counts) == 0 {
		return 0, false
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	return best.Bucket, true
}

// deviceInsight classifies the user agents of recent entries.
func deviceInsight(entries []db.MoodLog) (Insight, bool) {
	var mobile, desktop int
	for _, entry := range entries {
		if entry.UserAgent == "" {
			continue
		}
		ua := useragent.Parse(entry.UserAgent)
		switch {
		case ua.Mobile || ua.Tablet:
			mobile++
		case ua.Desktop:
			desktop++
		}
	}
	total := mobile + desktop
	if total == 0 {
		return Insight{}, false
	}

	if mobile > desktop {
		return Insight{
			Type:    "device",
			Title:   "On the go",
			Message: "Most of your mood picks come from your phone.",
			Icon:    "📱",
		}, true
	}
	return Insight{
		Type:    "device",
		Title:   "At the desk",
		Message: "Most of your mood picks come from a computer.",
		Icon:    "💻",
	}, true
}

func hourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

var moodIcons = map[string]string{
	"happy":     "😊",
	"sad":       "😢",
	"energetic": "⚡",
	"relaxed":   "🌙",
	"focused":   "🎯",
	"romantic":  "❤️",
}

func moodIcon(label string) string {
	if icon, ok := moodIcons[label]; ok {
		return icon
	}
	return "🎵"
}
