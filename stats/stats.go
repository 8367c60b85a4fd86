package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests    atomic.Int64
	SearchRequests   atomic.Int64
	BatchRequests    atomic.Int64
	PlaylistRequests atomic.Int64
	ProfileRequests  atomic.Int64
	AIRequests       atomic.Int64
	AuthRequests     atomic.Int64
	OtherRequests    atomic.Int64

	// Cache performance
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64

	// Circuit breaker
	BreakerOpened   atomic.Int64
	BreakerRejected atomic.Int64

	// Rate limiting
	RateLimitExceeded atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	// Search-specific response times (microseconds)
	searchResponseTime  atomic.Int64
	searchResponseCount atomic.Int64
}

// Global stats instance
var global = &Stats{
	StartTime: time.Now(),
}

func init() {
	// Initialize min to a high value
	global.minResponseTime.Store(int64(^uint64(0) >> 1)) // Max int64
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// Endpoint categories for request accounting.
const (
	EndpointSearch   = "search"
	EndpointBatch    = "batch"
	EndpointPlaylist = "playlist"
	EndpointProfile  = "profile"
	EndpointAI       = "ai"
	EndpointAuth     = "auth"
	EndpointOther    = "other"
)

// RecordRequest records a request to an endpoint category
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case EndpointSearch:
		s.SearchRequests.Add(1)
	case EndpointBatch:
		s.BatchRequests.Add(1)
	case EndpointPlaylist:
		s.PlaylistRequests.Add(1)
	case EndpointProfile:
		s.ProfileRequests.Add(1)
	case EndpointAI:
		s.AIRequests.Add(1)
	case EndpointAuth:
		s.AuthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCacheHit records a cache hit
func (s *Stats) RecordCacheHit() {
	s.CacheHits.Add(1)
}

// RecordCacheMiss records a cache miss
func (s *Stats) RecordCacheMiss() {
	s.CacheMisses.Add(1)
}

// RecordBreakerOpened records a circuit breaker open transition
func (s *Stats) RecordBreakerOpened() {
	s.BreakerOpened.Add(1)
}

// RecordBreakerRejected records a call short-circuited by an open breaker
func (s *Stats) RecordBreakerRejected() {
	s.BreakerRejected.Add(1)
}

// RecordRateLimitExceeded records a request rejected with 429
func (s *Stats) RecordRateLimitExceeded() {
	s.RateLimitExceeded.Add(1)
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration, endpoint string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	// Update min/max atomically
	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if endpoint == EndpointSearch || endpoint == EndpointBatch {
		s.searchResponseTime.Add(us)
		s.searchResponseCount.Add(1)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	misses := s.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == int64(^uint64(0)>>1) {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgSearchResponseTime returns the average response time for search requests
func (s *Stats) AvgSearchResponseTime() time.Duration {
	count := s.searchResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.searchResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":    s.TotalRequests.Load(),
			"search":   s.SearchRequests.Load(),
			"batch":    s.BatchRequests.Load(),
			"playlist": s.PlaylistRequests.Load(),
			"profile":  s.ProfileRequests.Load(),
			"ai":       s.AIRequests.Load(),
			"auth":     s.AuthRequests.Load(),
			"other":    s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":     s.CacheHits.Load(),
			"misses":   s.CacheMisses.Load(),
			"hit_rate": s.CacheHitRate(),
		},
		"circuit_breaker": map[string]interface{}{
			"opened":   s.BreakerOpened.Load(),
			"rejected": s.BreakerRejected.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":        s.AvgResponseTime().String(),
			"min":        s.MinResponseTime().String(),
			"max":        s.MaxResponseTime().String(),
			"avg_search": s.AvgSearchResponseTime().String(),
		},
	}
}
