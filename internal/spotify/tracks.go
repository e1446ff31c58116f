package spotify

import (
	api "github.com/zmb3/spotify/v2"
)

// Track is the normalized track shape returned to callers. Every provider
// response is reduced to this regardless of which query strategy produced it.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artistNames"`
	Album       string   `json:"albumName,omitempty"`
	PreviewURL  string   `json:"previewUrl,omitempty"`
	ExternalURL string   `json:"externalUrl"`
	DurationMs  int      `json:"durationMs"`
	Popularity  int      `json:"popularity"`
}

// convertSimpleTrack normalizes a track from the recommendation endpoint.
func convertSimpleTrack(t api.SimpleTrack) Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return Track{
		ID:          t.ID.String(),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs["spotify"],
		DurationMs:  int(t.Duration),
	}
}

// convertFullTrack normalizes a track from playlist or search responses,
// which additionally carry popularity.
func convertFullTrack(t *api.FullTrack) Track {
	out := convertSimpleTrack(t.SimpleTrack)
	out.Album = t.Album.Name
	out.Popularity = int(t.Popularity)
	return out
}

// complete reports whether a track has the minimum fields to be useful.
// Playlists routinely contain removed or local tracks with empty metadata.
func complete(t Track) bool {
	return t.ID != "" && t.Name != ""
}
