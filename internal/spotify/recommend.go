package spotify

import (
	"context"
	"fmt"

	api "github.com/zmb3/spotify/v2"

	"github.com/moodtunes/api/internal/mood"
)

// maxGenreSeeds is the provider cap on seed values per recommendation call.
const maxGenreSeeds = 5

// recommendByFeatures queries the recommendation endpoint directly with the
// profile's genre seeds and target/min/max feature values.
func (r *Recommender) recommendByFeatures(ctx context.Context, client *api.Client, profile mood.Profile, limit int) ([]Track, error) {
	if err := r.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	seeds := profile.GenreSeeds
	if len(seeds) > maxGenreSeeds {
		seeds = seeds[:maxGenreSeeds]
	}

	recs, err := client.GetRecommendations(ctx,
		api.Seeds{Genres: seeds},
		trackAttributes(profile),
		api.Limit(limit),
	)
	if err != nil {
		return nil, classify(err)
	}

	tracks := make([]Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		track := convertSimpleTrack(t)
		if complete(track) {
			tracks = append(tracks, track)
		}
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// trackAttributes translates a mood profile's feature ranges into provider
// query attributes. Only the dimensions the profile constrains are sent.
func trackAttributes(profile mood.Profile) *api.TrackAttributes {
	attrs := api.NewTrackAttributes()
	for feature, rng := range profile.Features {
		switch feature {
		case mood.Valence:
			if rng.Target != nil {
				attrs = attrs.TargetValence(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinValence(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxValence(*rng.Max)
			}
		case mood.Energy:
			if rng.Target != nil {
				attrs = attrs.TargetEnergy(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinEnergy(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxEnergy(*rng.Max)
			}
		case mood.Danceability:
			if rng.Target != nil {
				attrs = attrs.TargetDanceability(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinDanceability(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxDanceability(*rng.Max)
			}
		case mood.Tempo:
			if rng.Target != nil {
				attrs = attrs.TargetTempo(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinTempo(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxTempo(*rng.Max)
			}
		case mood.Acousticness:
			if rng.Target != nil {
				attrs = attrs.TargetAcousticness(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinAcousticness(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxAcousticness(*rng.Max)
			}
		case mood.Instrumentalness:
			if rng.Target != nil {
				attrs = attrs.TargetInstrumentalness(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinInstrumentalness(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxInstrumentalness(*rng.Max)
			}
		case mood.Speechiness:
			if rng.Target != nil {
				attrs = attrs.TargetSpeechiness(*rng.Target)
			}
			if rng.Min != nil {
				attrs = attrs.MinSpeechiness(*rng.Min)
			}
			if rng.Max != nil {
				attrs = attrs.MaxSpeechiness(*rng.Max)
			}
		}
	}
	return attrs
}
