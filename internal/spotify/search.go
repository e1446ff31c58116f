package spotify

import (
	"context"
	"fmt"
	"math/rand"

	api "github.com/zmb3/spotify/v2"

	"github.com/moodtunes/api/internal/mood"
)

const (
	// maxPlaylists bounds how many search hits are aggregated.
	maxPlaylists = 3

	// tracksPerPlaylist bounds how many tracks are fetched from each playlist.
	tracksPerPlaylist = 20
)

// searchAndAggregate finds public playlists matching the mood's first search
// phrase, pulls tracks from up to maxPlaylists of them, deduplicates by track
// id, shuffles, and truncates to limit. Zero usable playlists or tracks fail
// with ErrNoResults rather than returning an empty success.
func (r *Recommender) searchAndAggregate(ctx context.Context, client *api.Client, profile mood.Profile, limit int) ([]Track, error) {
	if len(profile.SearchPhrases) == 0 {
		return nil, ErrNoResults
	}
	phrase := profile.SearchPhrases[0]

	if err := r.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	result, err := client.Search(ctx, phrase, api.SearchTypePlaylist, api.Limit(10))
	if err != nil {
		return nil, classify(err)
	}
	if result.Playlists == nil || len(result.Playlists.Playlists) == 0 {
		return nil, ErrNoResults
	}

	playlists := filterPlaylists(result.Playlists.Playlists, maxPlaylists)
	if len(playlists) == 0 {
		return nil, ErrNoResults
	}

	seen := make(map[string]struct{})
	var tracks []Track
	for _, p := range playlists {
		if err := r.wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		page, err := client.GetPlaylistItems(ctx, p.ID, api.Limit(tracksPerPlaylist))
		if err != nil {
			return nil, classify(err)
		}
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			track := convertFullTrack(item.Track.Track)
			if !complete(track) {
				continue
			}
			if _, dup := seen[track.ID]; dup {
				continue
			}
			seen[track.ID] = struct{}{}
			tracks = append(tracks, track)
		}
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}

	shuffle := r.shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})

	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// filterPlaylists keeps only playlists with an id, a name, and an owner,
// up to max entries. Search results regularly include tombstoned playlists
// with those fields blanked.
func filterPlaylists(playlists []api.SimplePlaylist, max int) []api.SimplePlaylist {
	var out []api.SimplePlaylist
	for _, p := range playlists {
		if p.ID == "" || p.Name == "" || p.Owner.ID == "" {
			continue
		}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}
