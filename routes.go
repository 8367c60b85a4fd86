package main

import (
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"playlist-api-go/middleware"
)

func setupRoutes(router *mux.Router, a *app) {
	// AI generation gets its own slow per-IP limiter on top of the
	// global one, since each request burns provider tokens.
	aiPerHour := a.conf.Configuration.AIRateLimitPerHour
	aiLimiter := middleware.NewIPRateLimiter(rate.Limit(float64(aiPerHour)/3600), aiPerHour)
	aiLimit := middleware.RateLimit(aiLimiter)

	// OAuth flow
	router.HandleFunc("/auth/login", a.handleLogin).Methods("GET")
	router.HandleFunc("/auth/callback", a.handleCallback).Methods("GET")
	router.HandleFunc("/auth/logout", a.handleLogout).Methods("POST")

	// Track search
	router.HandleFunc("/api/search", a.requireSession(a.handleSearch)).Methods("POST")
	router.HandleFunc("/api/search/batch", a.requireSession(a.handleBatchSearch)).Methods("POST")

	// Playlists
	router.HandleFunc("/api/playlists", a.requireSession(a.handleListPlaylists)).Methods("GET")
	router.HandleFunc("/api/playlists", a.requireSession(a.handleCreatePlaylist)).Methods("POST")
	router.HandleFunc("/api/playlists/{id}", a.requireSession(a.handleGetPlaylist)).Methods("GET")
	router.HandleFunc("/api/playlists/{id}/tracks", a.requireSession(a.handleAddTracks)).Methods("POST")

	// Current user
	router.HandleFunc("/api/me", a.requireSession(a.handleProfile)).Methods("GET")

	// AI playlist generation
	router.Handle("/api/ai/generate", aiLimit(a.requireSession(a.handleGenerate))).Methods("POST")

	// Monitoring
	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	router.HandleFunc("/stats", handleStats).Methods("GET")
	router.HandleFunc("/circuit-breaker", a.handleBreakerStatus).Methods("GET")
	router.HandleFunc("/circuit-breaker/reset", a.handleBreakerReset).Methods("POST")
}
