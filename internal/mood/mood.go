// Package mood maps the fixed set of mood labels to numeric audio-feature
// target ranges used to bias recommendation queries.
package mood

import (
	"fmt"
	"sort"
	"strings"
)

// Feature identifies a provider-defined audio feature.
type Feature string

// Audio features referenced by mood profiles. All values are fractions in
// [0,1] except Tempo, which is in BPM.
const (
	Valence          Feature = "valence"
	Energy           Feature = "energy"
	Danceability     Feature = "danceability"
	Tempo            Feature = "tempo"
	Acousticness     Feature = "acousticness"
	Instrumentalness Feature = "instrumentalness"
	Speechiness      Feature = "speechiness"
)

// FeatureRange holds an optional target value with optional lower and upper
// bounds. A nil field means the profile does not constrain that dimension.
// Whenever both a target and a bound are present, min <= target <= max holds.
type FeatureRange struct {
	Target *float64 `json:"target,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Profile describes the audio-feature shape of a single mood label together
// with the provider hints (genre seeds, search phrases) used to query for it.
// Profiles are immutable and defined at build time.
type Profile struct {
	Label         string                   `json:"label"`
	Description   string                   `json:"description"`
	Features      map[Feature]FeatureRange `json:"features"`
	GenreSeeds    []string                 `json:"-"`
	SearchPhrases []string                 `json:"-"`
}

// UnsupportedMoodError is returned when a label is not one of the supported
// moods. Supported always carries the full list of valid labels so callers
// can present alternatives.
type UnsupportedMoodError struct {
	Label     string
	Supported []string
}

func (e *UnsupportedMoodError) Error() string {
	return fmt.Sprintf("unsupported mood %q (supported: %s)", e.Label, strings.Join(e.Supported, ", "))
}

func f(v float64) *float64 { return &v }

// profiles is the canonical mood table. Keys are normalized labels.
var profiles = map[string]Profile{
	"happy": {
		Label:       "happy",
		Description: "Bright, uplifting tracks with high positivity and energy",
		Features: map[Feature]FeatureRange{
			Valence:      {Target: f(0.8), Min: f(0.6), Max: f(1.0)},
			Energy:       {Target: f(0.8), Min: f(0.6), Max: f(1.0)},
			Danceability: {Target: f(0.7)},
		},
		GenreSeeds:    []string{"pop", "dance", "funk", "disco"},
		SearchPhrases: []string{"happy music", "feel good songs", "good vibes"},
	},
	"sad": {
		Label:       "sad",
		Description: "Low-key, melancholic tracks for quiet reflection",
		Features: map[Feature]FeatureRange{
			Valence:      {Target: f(0.2), Min: f(0.0), Max: f(0.4)},
			Energy:       {Target: f(0.3), Min: f(0.0), Max: f(0.5)},
			Danceability: {Target: f(0.3)},
		},
		GenreSeeds:    []string{"acoustic", "piano", "singer-songwriter", "sad"},
		SearchPhrases: []string{"sad songs", "melancholy music", "heartbreak songs"},
	},
	"energetic": {
		Label:       "energetic",
		Description: "Fast, driving tracks that keep the tempo up",
		Features: map[Feature]FeatureRange{
			Valence:      {Target: f(0.6)},
			Energy:       {Target: f(0.9), Min: f(0.7), Max: f(1.0)},
			Danceability: {Target: f(0.8)},
			Tempo:        {Target: f(120), Min: f(100)},
		},
		GenreSeeds:    []string{"work-out", "edm", "dance", "power-pop"},
		SearchPhrases: []string{"workout music", "high energy songs", "pump up playlist"},
	},
	"relaxed": {
		Label:       "relaxed",
		Description: "Slow, mellow tracks for unwinding",
		Features: map[Feature]FeatureRange{
			Valence:      {Target: f(0.5)},
			Energy:       {Target: f(0.3), Min: f(0.0), Max: f(0.5)},
			Tempo:        {Target: f(80), Max: f(100)},
			Acousticness: {Target: f(0.6)},
		},
		GenreSeeds:    []string{"chill", "ambient", "acoustic", "sleep"},
		SearchPhrases: []string{"chill music", "relaxing songs", "calm vibes"},
	},
	"focused": {
		Label:       "focused",
		Description: "Instrumental, low-distraction tracks for deep work",
		Features: map[Feature]FeatureRange{
			Valence:          {Target: f(0.4)},
			Energy:           {Target: f(0.5)},
			Acousticness:     {Target: f(0.4)},
			Instrumentalness: {Target: f(0.7)},
			Speechiness:      {Min: f(0.0), Max: f(0.1)},
		},
		GenreSeeds:    []string{"ambient", "classical", "study", "minimal-techno"},
		SearchPhrases: []string{"focus music", "deep concentration", "study beats"},
	},
	"romantic": {
		Label:       "romantic",
		Description: "Warm, soulful tracks for slow evenings",
		Features: map[Feature]FeatureRange{
			Valence:      {Target: f(0.6), Min: f(0.4)},
			Energy:       {Target: f(0.4), Max: f(0.6)},
			Danceability: {Target: f(0.5)},
			Acousticness: {Target: f(0.5)},
		},
		GenreSeeds:    []string{"romance", "r-n-b", "soul", "jazz"},
		SearchPhrases: []string{"romantic songs", "love songs", "date night music"},
	},
}

// Normalize trims whitespace and lowercases a mood label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Resolve looks up the profile for the given label after normalization.
// Unknown labels fail with *UnsupportedMoodError; they are never silently
// defaulted.
func Resolve(label string) (Profile, error) {
	p, ok := profiles[Normalize(label)]
	if !ok {
		return Profile{}, &UnsupportedMoodError{Label: label, Supported: Labels()}
	}
	return p, nil
}

// Valid reports whether label names a supported mood after normalization.
func Valid(label string) bool {
	_, ok := profiles[Normalize(label)]
	return ok
}

// Labels returns the sorted list of supported mood labels.
func Labels() []string {
	labels := make([]string, 0, len(profiles))
	for l := range profiles {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Descriptions returns a label -> description map for all supported moods.
func Descriptions() map[string]string {
	out := make(map[string]string, len(profiles))
	for l, p := range profiles {
		out[l] = p.Description
	}
	return out
}
