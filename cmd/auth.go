package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/server"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// AuthLogin performs the OAuth2 authorization-code flow for Spotify playback.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// lets the callback handler exchange the code; tokens are persisted by the
// auth client's token store.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingConfig)
	}

	if err := r.doOAuth(); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if marker, ok := r.auth.TakeReturnTo(); ok {
		r.writePlain("Resume where you left off: ctm player play --setlist %s\n", marker)
	} else {
		r.writePlain("You can now use: ctm player play --setlist <id>\n")
	}

	return nil
}

// AuthStatus reports whether a usable Spotify session exists.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		r.writePlain("✗ Spotify credentials not configured\n")
		return nil
	}

	if r.auth.Authenticated(ctx) {
		r.writePlain("✓ Authenticated with Spotify\n")
	} else {
		r.writePlain("✗ Not authenticated. Run 'ctm auth login'\n")
	}

	return nil
}

// AuthLogout discards the stored Spotify tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrMissingConfig)
	}

	if err := r.auth.Logout(); err != nil {
		return fmt.Errorf("failed to discard tokens: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth() error {
	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL, err := r.auth.AuthorizationURL(state)
	if err != nil {
		return fmt.Errorf("failed to build authorization URL: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(r.auth, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	return nil
}
