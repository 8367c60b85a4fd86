package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"playlist-api-go/logcolors"
	"playlist-api-go/services/ai"
	"playlist-api-go/services/spotify"
	"playlist-api-go/session"
	"playlist-api-go/stats"
)

// ============================================================================
// AUTH
// ============================================================================

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.auth.AuthorizeURL(state), http.StatusFound)
}

func (a *app) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Warnf("%s Authorization denied: %s", logcolors.LogAuth, errParam)
		writeError(w, http.StatusUnauthorized, "Authorization denied")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	pair, err := a.auth.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("%s Code exchange failed: %v", logcolors.LogAuth, err)
		writeUpstreamError(w, err)
		return
	}

	// The profile call both validates the token and gives us the user
	// ID to key the session on.
	user, err := a.spotify.GetProfile(r.Context(), pair.AccessToken)
	if err != nil {
		log.Errorf("%s Profile fetch after login failed: %v", logcolors.LogAuth, err)
		writeUpstreamError(w, err)
		return
	}

	expiresAt := time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second)
	sessionID, err := a.sessions.Create(user.ID, pair.AccessToken, pair.RefreshToken, expiresAt)
	if err != nil {
		log.Errorf("%s Failed to create session: %v", logcolors.LogAuth, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	maxAge := time.Duration(a.conf.Configuration.SessionMaxAgeDays) * 24 * time.Hour
	setSessionCookie(w, sessionID, maxAge)
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	log.Infof("%s User %s logged in", logcolors.LogAuth, user.ID)
	http.Redirect(w, r, a.conf.Configuration.FrontendURL, http.StatusFound)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := a.sessions.Delete(cookie.Value); err != nil && err != session.ErrNotFound {
			log.Warnf("%s Failed to delete session: %v", logcolors.LogSession, err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// ============================================================================
// SEARCH
// ============================================================================

func (a *app) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	tracks, err := a.spotify.SearchTracks(r.Context(), accessTokenFrom(r.Context()), req.Query)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	results := make([]trackCandidate, 0, len(tracks))
	for _, track := range tracks {
		artists := make([]string, len(track.Artists))
		for i, artist := range track.Artists {
			artists[i] = artist.Name
		}
		albumImage := ""
		if len(track.Album.Images) > 0 {
			albumImage = track.Album.Images[0].URL
		}
		results = append(results, trackCandidate{
			ID:         track.ID,
			URI:        track.URI,
			Name:       track.Name,
			Artists:    artists,
			Album:      track.Album.Name,
			AlbumImage: albumImage,
			Duration:   track.DurationMS,
			Popularity: track.Popularity,
			PreviewURL: track.PreviewURL,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (a *app) handleBatchSearch(w http.ResponseWriter, r *http.Request) {
	var req batchSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "At least one query is required")
		return
	}

	results, err := a.spotify.BatchSearch(r.Context(), accessTokenFrom(r.Context()), req.Queries)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// ============================================================================
// PLAYLISTS
// ============================================================================

func (a *app) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.spotify.ListOwnedPlaylists(r.Context(), accessTokenFrom(r.Context()))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

func (a *app) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	playlist, err := a.spotify.GetPlaylist(r.Context(), accessTokenFrom(r.Context()), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (a *app) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	isPublic := true
	if req.Public != nil {
		isPublic = *req.Public
	}

	playlist, err := a.spotify.CreatePlaylist(r.Context(), accessTokenFrom(r.Context()),
		userIDFrom(r.Context()), req.Name, req.Description, isPublic)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

func (a *app) handleAddTracks(w http.ResponseWriter, r *http.Request) {
	var req addTracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.URIs) == 0 {
		writeError(w, http.StatusBadRequest, "At least one track URI is required")
		return
	}

	playlistID := mux.Vars(r)["id"]
	snapshots, err := a.spotify.AddTracks(r.Context(), accessTokenFrom(r.Context()), playlistID, req.URIs)
	if err != nil {
		var partial *spotify.PartialAddError
		if errors.As(err, &partial) {
			// Some chunks committed before the failure; report how far
			// we got so the caller can resume instead of re-adding.
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":           "Playlist was only partially updated",
				"committedChunks": partial.Committed,
				"snapshotIds":     snapshots,
			})
			return
		}
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshotIds": snapshots})
}

// ============================================================================
// PROFILE
// ============================================================================

func (a *app) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.spotify.GetProfile(r.Context(), accessTokenFrom(r.Context()))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ============================================================================
// AI GENERATION
// ============================================================================

func (a *app) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if a.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "AI generation is not configured")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	playlist, err := a.ai.GeneratePlaylist(r.Context(), req.Description, ai.Options{
		SongCount:       req.SongCount,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		if errors.Is(err, ai.ErrInvalidOptions) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Errorf("%s Generation failed: %v", logcolors.LogAI, err)
		writeError(w, http.StatusBadGateway, "Playlist generation failed")
		return
	}

	writeJSON(w, http.StatusOK, playlist)
}

// ============================================================================
// MONITORING
// ============================================================================

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"uptime":       stats.Get().Uptime().String(),
		"cacheBackend": a.conf.Configuration.CacheBackend,
		"breaker":      a.breaker.State().String(),
	})
}

func handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.Get().Snapshot())
}

func (a *app) handleBreakerStatus(w http.ResponseWriter, r *http.Request) {
	status := a.spotify.BreakerStatus()
	payload := map[string]interface{}{
		"name":     status.Name,
		"state":    status.State,
		"counters": status.Counters,
	}
	if retryIn := a.breaker.TimeUntilRetry(); retryIn > 0 {
		payload["retryIn"] = retryIn.String()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (a *app) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	a.breaker.Reset()
	log.Infof("%s Manually reset", logcolors.CircuitBreakerPrefix(a.breaker.Name()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
