package spotify

import (
	"context"
	"net/http"
	"net/url"

	"playlist-api-go/cache"
	"playlist-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// ListOwnedPlaylists returns the playlists the authenticated user owns,
// cache-aside under the token-derived owner identifier. /me/playlists
// also includes followed playlists, which the user cannot add tracks
// to, so the page is filtered down to the user's own.
func (c *Client) ListOwnedPlaylists(ctx context.Context, token string) ([]Playlist, error) {
	key := cache.PlaylistsKey(ownerID(token))

	var playlists []Playlist
	if c.cache.GetJSON(ctx, key, &playlists) {
		return playlists, nil
	}

	user, err := c.GetProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	params := url.Values{"limit": {"50"}}
	var page playlistPage
	if err := c.doWithRetry(ctx, http.MethodGet, "/me/playlists?"+params.Encode(), token, nil, &page); err != nil {
		return nil, err
	}

	owned := make([]Playlist, 0, len(page.Items))
	for _, p := range page.Items {
		if p.Owner.ID == user.ID {
			owned = append(owned, p)
		}
	}

	c.cache.SetJSON(ctx, key, owned, c.cache.TTLs().PlaylistList)
	return owned, nil
}

// GetPlaylist fetches one playlist by id, cache-aside.
func (c *Client) GetPlaylist(ctx context.Context, token, id string) (*Playlist, error) {
	key := cache.PlaylistKey(id)

	var playlist Playlist
	if c.cache.GetJSON(ctx, key, &playlist) {
		return &playlist, nil
	}

	if err := c.doWithRetry(ctx, http.MethodGet, "/playlists/"+id, token, nil, &playlist); err != nil {
		return nil, err
	}

	c.cache.SetJSON(ctx, key, playlist, c.cache.TTLs().Playlist)
	return &playlist, nil
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// CreatePlaylist creates a playlist for userID and invalidates the
// owner's cached entries. Invalidation is fire-and-forget: it runs in
// the background, errors are logged, and callers must not assume it has
// completed by the time this returns.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID, name, description string, isPublic bool) (*Playlist, error) {
	body := createPlaylistRequest{Name: name, Description: description, Public: isPublic}

	var playlist Playlist
	if err := c.doWithRetry(ctx, http.MethodPost, "/users/"+userID+"/playlists", token, body, &playlist); err != nil {
		return nil, err
	}

	c.invalidateOwnerAsync(token)

	log.Infof("%s Created playlist %q for user %s", logcolors.LogPlaylists, name, userID)
	return &playlist, nil
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// AddTracks appends track URIs to a playlist, transparently chunked to
// the upstream's 100-item cap. Chunks are issued sequentially so the
// insertion order is preserved; the returned snapshot ids are in
// submission order. A mid-sequence failure surfaces as a
// PartialAddError carrying how many chunks already committed.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) ([]string, error) {
	var snapshots []string
	for start := 0; start < len(uris); start += addTracksChunkSize {
		end := start + addTracksChunkSize
		if end > len(uris) {
			end = len(uris)
		}

		var resp snapshotResponse
		err := c.doWithRetry(ctx, http.MethodPost, "/playlists/"+playlistID+"/tracks", token, addTracksRequest{URIs: uris[start:end]}, &resp)
		if err != nil {
			return snapshots, &PartialAddError{Committed: len(snapshots), Err: err}
		}
		snapshots = append(snapshots, resp.SnapshotID)
	}

	owner := ownerID(token)
	go func() {
		c.cache.Delete(context.Background(), cache.PlaylistKey(playlistID))
		c.cache.InvalidateOwner(context.Background(), owner)
	}()

	log.Infof("%s Added %d tracks to playlist %s in %d chunks", logcolors.LogPlaylists, len(uris), playlistID, len(snapshots))
	return snapshots, nil
}

func (c *Client) invalidateOwnerAsync(token string) {
	owner := ownerID(token)
	go c.cache.InvalidateOwner(context.Background(), owner)
}
