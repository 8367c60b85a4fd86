// Spotify Web API client types, based on
// https://developer.spotify.com/documentation/web-api/reference/
package spotify

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist represents a track or album artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
}

// Album represents the album a track belongs to.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track represents a search result candidate.
type Track struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity"`
	PreviewURL *string  `json:"preview_url"`
}

// User represents the authenticated user's profile.
type User struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Images      []Image `json:"images"`
}

// Owner identifies who a playlist belongs to.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// Playlist represents a user playlist.
type Playlist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Public        bool           `json:"public"`
	Collaborative bool           `json:"collaborative,omitempty"`
	Owner         Owner          `json:"owner"`
	Tracks        playlistTracks `json:"tracks"`
	Images        []Image        `json:"images,omitempty"`
	URI           string         `json:"uri,omitempty"`
}

// TokenPair is the result of an auth-code exchange or a refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}

type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

type playlistPage struct {
	Items []Playlist `json:"items"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}
