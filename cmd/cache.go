package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/repositories"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// CacheMigrate initializes the cache database and applies migrations.
func (r *Runner) CacheMigrate(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warnf("no config at %s, creating one with defaults", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config = shared.DefaultConfig()
	}

	db, err := r.cacheDB(config)
	if err != nil {
		return err
	}

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Cache database ready at %s\n", config.Database.Path)
	return nil
}

// CacheRollback rolls back the most recent cache migration.
func (r *Runner) CacheRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.cacheDB(r.config)
	if err != nil {
		return err
	}

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	r.writePlain("✓ Rolled back most recent migration\n")
	return nil
}

// CacheClear removes all cached setlists and resolved tracks.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.cacheDB(r.config)
	if err != nil {
		return err
	}

	if err := repositories.NewTrackRepository(db).Clear(); err != nil {
		return fmt.Errorf("failed to clear track cache: %w", err)
	}
	if err := repositories.NewSetlistRepository(db).Clear(); err != nil {
		return fmt.Errorf("failed to clear setlist cache: %w", err)
	}

	r.writePlain("✓ Cache cleared\n")
	return nil
}

// CacheStats shows how many setlists and tracks the cache holds.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.cacheDB(r.config)
	if err != nil {
		return err
	}

	setlists, err := repositories.NewSetlistRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list cached setlists: %w", err)
	}
	tracks, err := repositories.NewTrackRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list cached tracks: %w", err)
	}

	r.writePlain("Cached setlists: %d\n", len(setlists))
	r.writePlain("Resolved tracks: %d\n", len(tracks))

	if len(setlists) > 0 {
		r.writePlain("\nSetlists:\n")
		for _, setlist := range setlists {
			r.writePlain("  %s  %s @ %s (%d songs)\n", setlist.EventDate, setlist.ArtistName, setlist.VenueName, setlist.SongCount)
		}
	}

	return nil
}

// cacheDB returns the runner's database handle, opening one from the given
// config when the runner was built without a database.
func (r *Runner) cacheDB(config *shared.Config) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}
