package insights

import (
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/moodtunes/api/internal/db"
	"github.com/moodtunes/api/internal/mood"
)

const (
	vibeClusters  = 3
	minVibeSample = 5
)

// vibeFeatures defines the audio features spanning the vibe space. Order
// matters: it fixes the coordinate layout.
var vibeFeatures = []mood.Feature{mood.Energy, mood.Valence, mood.Danceability, mood.Acousticness}

// entryObservation places a log entry in feature space for k-means.
type entryObservation struct {
	coords clusters.Coordinates
}

func (o entryObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o entryObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// vibeInsight clusters recent entries by the feature targets of their moods
// and names the dominant cluster. Too few entries, or a failed partition,
// simply yields no insight.
func vibeInsight(entries []db.MoodLog) (Insight, bool) {
	if len(entries) < minVibeSample {
		return Insight{}, false
	}

	var obs clusters.Observations
	for _, entry := range entries {
		profile, err := mood.Resolve(entry.Mood)
		if err != nil {
			continue
		}
		obs = append(obs, entryObservation{coords: featureCoords(profile)})
	}
	if len(obs) < vibeClusters {
		return Insight{}, false
	}

	km := kmeans.New()
	result, err := km.Partition(obs, vibeClusters)
	if err != nil {
		return Insight{}, false
	}

	dominant := result[0]
	for _, cluster := range result[1:] {
		if len(cluster.Observations) > len(dominant.Observations) {
			dominant = cluster
		}
	}

	name := vibeName(dominant.Center[0], dominant.Center[1], dominant.Center[3])
	return Insight{
		Type:    "vibe",
		Title:   "Your overall vibe",
		Message: "Your recent selections cluster around a " + name + " vibe.",
		Icon:    "🎧",
	}, true
}

// featureCoords maps a mood profile onto the vibe space using the feature
// targets, with 0.5 for features the profile leaves open.
func featureCoords(profile mood.Profile) clusters.Coordinates {
	coords := make(clusters.Coordinates, len(vibeFeatures))
	for i, feature := range vibeFeatures {
		coords[i] = 0.5
		if rng, ok := profile.Features[feature]; ok && rng.Target != nil {
			coords[i] = *rng.Target
		}
	}
	return coords
}

// vibeName labels a centroid with an energy/valence quadrant name plus an
// acoustic modifier.
func vibeName(energy, valence, acousticness float64) string {
	var base string
	switch {
	case energy > 0.6 && valence > 0.5:
		base = "Upbeat Party"
	case energy > 0.6:
		base = "Intense & Dark"
	case valence > 0.5:
		base = "Chill & Happy"
	default:
		base = "Reflective & Melancholy"
	}
	if acousticness > 0.6 {
		return base + " (Acoustic)"
	}
	return base
}
