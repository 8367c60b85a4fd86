package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playlist-api-go/logcolors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
)

var defaultScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
}

// Authenticator handles the authorization-code flow and token refresh.
// It performs no session mutation: the caller persists the returned pair.
type Authenticator struct {
	conf *oauth2.Config
}

func NewAuthenticator(clientID, clientSecret, redirectURL string) *Authenticator {
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       defaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
	}
}

// AuthorizeURL builds the upstream consent URL carrying the CSRF state.
func (a *Authenticator) AuthorizeURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*TokenPair, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, classifyOAuthErr(err)
	}
	return pairFromToken(tok), nil
}

// Refresh exchanges a refresh token for a new access token. The
// upstream may omit the refresh token in the response, in which case
// RefreshToken is empty and the caller keeps its existing one.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	src := a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		log.Warnf("%s Token refresh failed: %v", logcolors.LogToken, err)
		return nil, classifyOAuthErr(err)
	}

	pair := pairFromToken(tok)
	if pair.RefreshToken == refreshToken {
		pair.RefreshToken = ""
	}
	return pair, nil
}

func pairFromToken(tok *oauth2.Token) *TokenPair {
	expiresIn := int(time.Until(tok.Expiry).Seconds())
	if tok.Expiry.IsZero() {
		expiresIn = 0
	}
	return &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}

func classifyOAuthErr(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return fmt.Errorf("%w (status %d)", classifyStatus(retrieveErr.Response.StatusCode), retrieveErr.Response.StatusCode)
	}
	return classifyErr(err)
}
