package main

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/logcolors"
	"playlist-api-go/session"
)

type contextKey string

const (
	ctxAccessToken contextKey = "accessToken"
	ctxUserID      contextKey = "userID"
	ctxSessionID   contextKey = "sessionID"
)

const (
	sessionCookieName = "session_id"
	stateCookieName   = "oauth_state"

	// Access tokens this close to expiry are refreshed before use so a
	// request never goes upstream with a token about to die mid-flight.
	tokenRefreshBuffer = 5 * time.Minute
)

// requireSession resolves the session cookie, refreshes the upstream
// token when it is about to expire, and injects the token and user ID
// into the request context.
func (a *app) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not logged in")
			return
		}

		sess, err := a.sessions.Get(cookie.Value)
		if err != nil {
			if err != session.ErrNotFound {
				log.Errorf("%s Session lookup failed: %v", logcolors.LogSession, err)
			}
			clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "Session expired, please log in again")
			return
		}

		token := sess.AccessToken
		if time.Until(sess.ExpiresAt) < tokenRefreshBuffer {
			pair, err := a.auth.Refresh(r.Context(), sess.RefreshToken)
			if err != nil {
				log.Warnf("%s Refresh failed for user %s: %v", logcolors.LogToken, sess.UserID, err)
				clearSessionCookie(w)
				writeError(w, http.StatusUnauthorized, "Session expired, please log in again")
				return
			}

			expiresAt := time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second)
			if err := a.sessions.UpdateTokens(sess.ID, pair.AccessToken, pair.RefreshToken, expiresAt); err != nil {
				log.Errorf("%s Failed to persist refreshed tokens: %v", logcolors.LogSession, err)
			}
			token = pair.AccessToken
			log.Infof("%s Refreshed access token for user %s", logcolors.LogToken, sess.UserID)
		}

		ctx := context.WithValue(r.Context(), ctxAccessToken, token)
		ctx = context.WithValue(ctx, ctxUserID, sess.UserID)
		ctx = context.WithValue(ctx, ctxSessionID, sess.ID)
		next(w, r.WithContext(ctx))
	}
}

func accessTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(ctxAccessToken).(string)
	return token
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

func setSessionCookie(w http.ResponseWriter, id string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
