package main

// Request bodies accepted by the API.

type searchRequest struct {
	Query string `json:"query"`
}

type batchSearchRequest struct {
	Queries []string `json:"queries"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      *bool  `json:"public"` // defaults to true when omitted
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type generateRequest struct {
	Description     string `json:"description"`
	SongCount       int    `json:"songCount"`
	DurationMinutes int    `json:"durationMinutes"`
}

// trackCandidate is one search result as served by POST /api/search,
// in upstream relevance order.
type trackCandidate struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumImage string   `json:"albumImage,omitempty"`
	Duration   int      `json:"duration"`
	Popularity int      `json:"popularity"`
	PreviewURL *string  `json:"previewUrl"`
}
