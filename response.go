package main

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/services/ai"
	"playlist-api-go/services/spotify"
	"playlist-api-go/stats"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	stats.Get().RecordStatusCode(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeUpstreamError maps the client error taxonomy onto HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spotify.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Spotify authorization expired, please log in again")
	case errors.Is(err, spotify.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Spotify rate limit exceeded, try again shortly")
	case errors.Is(err, spotify.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "Spotify is currently unavailable")
	case errors.Is(err, spotify.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "Spotify did not respond in time")
	case errors.Is(err, spotify.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, ai.ErrInvalidOptions):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
