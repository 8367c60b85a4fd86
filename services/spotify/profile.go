package spotify

import (
	"context"
	"net/http"

	"playlist-api-go/cache"
)

// GetProfile returns the authenticated user's profile, cache-aside
// under the token-derived owner identifier.
func (c *Client) GetProfile(ctx context.Context, token string) (*User, error) {
	key := cache.ProfileKey(ownerID(token))

	var user User
	if c.cache.GetJSON(ctx, key, &user) {
		return &user, nil
	}

	if err := c.doWithRetry(ctx, http.MethodGet, "/me", token, nil, &user); err != nil {
		return nil, err
	}

	c.cache.SetJSON(ctx, key, user, c.cache.TTLs().Profile)
	return &user, nil
}
