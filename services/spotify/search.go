package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"playlist-api-go/cache"
	"playlist-api-go/circuitbreaker"
	"playlist-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// SearchTracks returns the top candidates for a free-text query, in
// upstream ranking order. Results are served from cache when fresh; on
// a miss the upstream call runs under the circuit breaker, and an open
// breaker degrades to an empty result set rather than an error.
func (c *Client) SearchTracks(ctx context.Context, token, query string) ([]Track, error) {
	key := cache.SearchKey(query)

	var tracks []Track
	if c.cache.GetJSON(ctx, key, &tracks) {
		log.Debugf("%s Cache hit for query %q", logcolors.LogCacheSearch, query)
		return tracks, nil
	}

	err := c.execSearch(ctx, func(callCtx context.Context) error {
		var innerErr error
		tracks, innerErr = c.fetchSearch(callCtx, token, query)
		return innerErr
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			log.Warnf("%s Circuit open, returning empty results for query %q", logcolors.LogSearch, query)
			return []Track{}, nil
		}
		return nil, classifyErr(err)
	}

	// Only cache non-empty results so a transient upstream hiccup does
	// not pin an empty answer for the full TTL
	if len(tracks) > 0 {
		c.cache.SetJSON(ctx, key, tracks, c.cache.TTLs().Search)
	}

	return tracks, nil
}

func (c *Client) execSearch(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(ctx, fn)
}

func (c *Client) fetchSearch(ctx context.Context, token, query string) ([]Track, error) {
	params := url.Values{
		"q":      {query},
		"type":   {"track"},
		"limit":  {strconv.Itoa(searchLimit)},
		"market": {"from_token"},
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/search?"+params.Encode(), token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}
