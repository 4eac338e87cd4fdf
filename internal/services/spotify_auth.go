// Spotify authentication for [StreamingService]
//
// Two OAuth flows: client credentials for catalog search, authorization code
// for user playback control.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/concert-time-machine/ctm/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// tokenSafetyMargin is subtracted from the reported token lifetime so a
// request never races a token that expires mid-flight.
const tokenSafetyMargin = time.Minute

// playbackScopes are requested during interactive login. Playback control
// requires the user-modify/user-read pair; streaming covers SDK-style engines.
var playbackScopes = []string{
	"streaming",
	"user-read-email",
	"user-read-private",
	"user-modify-playback-state",
	"user-read-playback-state",
}

// SpotifyAuth manages both Spotify OAuth flows and the tokens they produce.
type SpotifyAuth struct {
	config *oauth2.Config
	client *clientcredentials.Config
	cache  TokenCache
	store  *TokenStore
	logger *log.Logger
}

// NewSpotifyAuth creates an auth client with the given OAuth2 credentials.
// User tokens persist through store; the app token lives in an in-memory
// cache unless replaced via WithTokenCache.
func NewSpotifyAuth(credentials map[string]string, store *TokenStore) (*SpotifyAuth, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingConfig)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingConfig)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       playbackScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	client := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyAuth{
		config: config,
		client: client,
		cache:  &MemoryTokenCache{},
		store:  store,
		logger: shared.NewLogger(nil),
	}, nil
}

// WithTokenCache replaces the app-token cache. Used by tests to control
// expiry deterministically.
func (a *SpotifyAuth) WithTokenCache(cache TokenCache) *SpotifyAuth {
	a.cache = cache
	return a
}

// SetTokenURL overrides the provider's token endpoint. Intended for tests.
func (a *SpotifyAuth) SetTokenURL(url string) {
	a.client.TokenURL = url
	a.config.Endpoint.TokenURL = url
}

// ClientToken returns an application access token via the client credentials
// flow, reusing the cached token until one minute before it expires.
func (a *SpotifyAuth) ClientToken(ctx context.Context) (string, error) {
	if a.cache.IsValid(time.Now()) {
		token, _ := a.cache.Get()
		return token, nil
	}

	token, err := a.client.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	a.cache.Set(token.AccessToken, token.Expiry.Add(-tokenSafetyMargin))
	return token.AccessToken, nil
}

// AuthorizationURL returns the URL the user visits to grant playback access.
func (a *SpotifyAuth) AuthorizationURL(state string) (string, error) {
	if a.config.ClientID == "" {
		return "", fmt.Errorf("%w: client_id", shared.ErrMissingConfig)
	}
	return a.config.AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for user tokens and persists them.
func (a *SpotifyAuth) ExchangeCode(ctx context.Context, code string) error {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v (check that redirect_uri matches the value registered with Spotify)", shared.ErrAuthExchange, err)
	}

	expiresIn := int(time.Until(token.Expiry).Seconds())
	if err := a.store.Save(token.AccessToken, expiresIn, token.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	return nil
}

// Refresh obtains a fresh access token using the stored refresh token.
// Returns false when no refresh token is stored or the refresh fails,
// signaling that the user must re-authenticate interactively.
func (a *SpotifyAuth) Refresh(ctx context.Context) (string, bool) {
	refreshToken, ok := a.store.RefreshToken()
	if !ok {
		return "", false
	}

	source := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		a.logger.Warn("token refresh failed", "error", err)
		return "", false
	}

	expiresIn := int(time.Until(token.Expiry).Seconds())
	if err := a.store.Save(token.AccessToken, expiresIn, token.RefreshToken); err != nil {
		a.logger.Warn("failed to persist refreshed token", "error", err)
	}

	return token.AccessToken, true
}

// UserToken returns a valid user access token, refreshing a stale one when a
// refresh token is available. Returns false when the user must log in.
func (a *SpotifyAuth) UserToken(ctx context.Context) (string, bool) {
	if token, ok := a.store.AccessToken(); ok {
		return token, true
	}
	return a.Refresh(ctx)
}

// Authenticated reports whether a usable user token is available.
func (a *SpotifyAuth) Authenticated(ctx context.Context) bool {
	_, ok := a.UserToken(ctx)
	return ok
}

// SetReturnTo records where the user should resume after authorizing.
func (a *SpotifyAuth) SetReturnTo(marker string) error {
	return a.store.SetReturnTo(marker)
}

// TakeReturnTo returns the stored return-to marker and clears it.
func (a *SpotifyAuth) TakeReturnTo() (string, bool) {
	return a.store.TakeReturnTo()
}

// Logout discards the persisted user tokens.
func (a *SpotifyAuth) Logout() error {
	return a.store.Clear()
}
