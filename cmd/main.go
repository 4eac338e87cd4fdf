package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/repositories"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var concertService services.ConcertService
	if config.Credentials.SetlistFM.APIKey != "" {
		if svc, err := services.NewSetlistFMService(config.Credentials.SetlistFM.APIKey); err == nil {
			concertService = svc
		}
	}

	var auth *services.SpotifyAuth
	var spotifyService *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		tokenStore, err := services.NewTokenStore("")
		if err != nil {
			logger.Warn("token store unavailable", "error", err)
		} else if auth, err = services.NewSpotifyAuth(config.Credentials.Spotify.Map(), tokenStore); err == nil {
			spotifyService = services.NewSpotifyService(auth)
		}
	}

	// The cache is an optimization; a missing or broken database only costs
	// repeat lookups.
	var db *sql.DB
	var trackCache tasks.TrackCache
	var snapshots *repositories.ConcertCacheAdapter
	if config.Database.Path != "" {
		if opened, err := shared.NewDatabase(config.Database.Path); err != nil {
			logger.Warn("cache database unavailable", "error", err)
		} else if err := shared.RunMigrations(opened); err != nil {
			logger.Warn("cache migrations failed", "error", err)
			opened.Close()
		} else {
			shared.ConfigureDatabase(opened, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			db = opened
			trackCache = repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
			snapshots = repositories.NewConcertCacheAdapter(repositories.NewSetlistRepository(db))
			defer db.Close()
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Concerts:  concertService,
		Auth:      auth,
		Spotify:   spotifyService,
		Cache:     trackCache,
		Snapshots: snapshots,
		DB:        db,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "ctm",
		Usage:    "Replay historical concert setlists through Spotify",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
