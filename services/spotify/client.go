package spotify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"playlist-api-go/cache"
	"playlist-api-go/circuitbreaker"
	"playlist-api-go/logcolors"
	"playlist-api-go/retry"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the production Spotify Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com/v1"

	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 3

	// defaultMaxBatchSize caps a single batch-search request.
	defaultMaxBatchSize = 100

	defaultBatchConcurrency = 50

	// searchLimit asks upstream for the top candidates per query.
	searchLimit = 5

	// addTracksChunkSize is the upstream cap per playlist write.
	addTracksChunkSize = 100
)

// Config carries the collaborators a Client needs. Breaker and Cache
// are constructed by the caller and injected so their lifetime and
// monitoring stay outside the client.
type Config struct {
	BaseURL          string
	Cache            *cache.Helper
	Breaker          *circuitbreaker.CircuitBreaker
	Timeout          time.Duration
	MaxRetries       int
	MaxBatchSize     int
	BatchConcurrency int
	HTTPClient       *http.Client
}

// Client is a resilient Spotify Web API client: reads go through the
// cache-aside helper, search is guarded by a circuit breaker, and all
// other calls retry with exponential backoff.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	cache            *cache.Helper
	breaker          *circuitbreaker.CircuitBreaker
	retry            retry.Policy
	timeout          time.Duration
	maxBatchSize     int
	batchConcurrency int
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = defaultBatchConcurrency
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewHelper(cache.NoopStore{}, cache.TTLs{})
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		cache:      cfg.Cache,
		breaker:    cfg.Breaker,
		retry: retry.Policy{
			Name:       "spotify",
			MaxRetries: cfg.MaxRetries,
			Retryable:  retryable,
		},
		timeout:          cfg.Timeout,
		maxBatchSize:     cfg.MaxBatchSize,
		batchConcurrency: cfg.BatchConcurrency,
	}
}

// BreakerStatus is the monitoring view of the search circuit breaker.
type BreakerStatus struct {
	Name     string                  `json:"name"`
	State    string                  `json:"state"`
	Counters circuitbreaker.Counters `json:"counters"`
}

func (c *Client) BreakerStatus() BreakerStatus {
	if c.breaker == nil {
		return BreakerStatus{Name: "search", State: circuitbreaker.StateClosed.String()}
	}
	return BreakerStatus{
		Name:     c.breaker.Name(),
		State:    c.breaker.State().String(),
		Counters: c.breaker.Counters(),
	}
}

// do performs a single upstream call under the client-level timeout and
// maps every failure into the error taxonomy.
func (c *Client) do(ctx context.Context, method, path, token string, body, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshaling request body: %v", ErrUnknown, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrUnknown, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		log.Warnf("%s %s %s returned status %d", logcolors.LogSpotify, method, path, resp.StatusCode)
		return fmt.Errorf("%w (status %d)", classifyStatus(resp.StatusCode), resp.StatusCode)
	}

	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnknown, err)
	}
	return nil
}

// doWithRetry wraps do in the retry policy. The breaker-guarded search
// path calls do directly instead, so the two failure-handling layers
// never stack on one call.
func (c *Client) doWithRetry(ctx context.Context, method, path, token string, body, dest interface{}) error {
	return c.retry.Do(ctx, func() error {
		return c.do(ctx, method, path, token, body, dest)
	})
}

// ownerID derives a cache owner identifier from a short prefix of the
// access token. The user id often is not known before the first
// upstream call, so owner-scoped cache keys use this fingerprint
// instead; token rotation changes it, and the orphaned entries just
// age out under their TTL.
func ownerID(token string) string {
	prefix := token
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}
	return base64.StdEncoding.EncodeToString([]byte(prefix))
}
