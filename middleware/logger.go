package middleware

import (
	"net/http"
	"strings"
	"time"

	"playlist-api-go/stats"

	log "github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logger logs each request and feeds the stats counters.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		endpoint := endpointCategory(r.URL.Path)

		s := stats.Get()
		s.RecordRequest(endpoint)
		s.RecordStatusCode(recorder.status)
		s.RecordResponseTime(duration, endpoint)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": duration.String(),
			"ip":       ClientIP(r),
		}).Info("request")
	})
}

func endpointCategory(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/search/batch"):
		return stats.EndpointBatch
	case strings.HasPrefix(path, "/api/search"):
		return stats.EndpointSearch
	case strings.HasPrefix(path, "/api/playlists"):
		return stats.EndpointPlaylist
	case strings.HasPrefix(path, "/api/ai"):
		return stats.EndpointAI
	case strings.HasPrefix(path, "/auth"):
		return stats.EndpointAuth
	case strings.HasPrefix(path, "/api/me"):
		return stats.EndpointProfile
	default:
		return stats.EndpointOther
	}
}
