package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// SearchArtists searches the concert archive for artists by name.
func (r *Runner) SearchArtists(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if query == "" {
		return fmt.Errorf("%w: artist name is required", shared.ErrMissingArgument)
	}
	if r.concerts == nil {
		return fmt.Errorf("%w: concert service not initialized, set the setlist.fm API key in config.toml", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("searching artists matching %q", query)

	var opts []services.ArtistSearchOption
	if cmd.Bool("concerts-only") {
		opts = append(opts, services.WithConcertsOnly())
	}

	artists, err := r.concerts.SearchArtists(ctx, query, opts...)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(artists, pretty)
	}

	if len(artists) == 0 {
		r.writePlain("No artists found for %q\n", query)
		return nil
	}

	r.writePlain("Found %d artists:\n\n", len(artists))
	for i, artist := range artists {
		r.writePlain("%d. %s\n", i+1, artist.Name)
		if artist.Disambiguation != "" {
			r.writePlain("   %s\n", artist.Disambiguation)
		}
		r.writePlain("   MBID: %s\n\n", artist.MBID)
	}

	return nil
}

// SearchConcerts lists one page of an artist's concert history.
func (r *Runner) SearchConcerts(ctx context.Context, cmd *cli.Command) error {
	mbid := cmd.String("mbid")
	page := cmd.Int("page")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.concerts == nil {
		return fmt.Errorf("%w: concert service not initialized, set the setlist.fm API key in config.toml", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing concerts for %s (page %d)", mbid, page)

	result := r.concerts.ArtistSetlists(ctx, mbid, int(page))

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	if len(result.Concerts) == 0 {
		r.writePlain("No concerts found\n")
		return nil
	}

	r.writePlain("Showing %d of %d concerts:\n\n", len(result.Concerts), result.Total)
	for i, concert := range result.Concerts {
		r.writePlain("%d. %s @ %s\n", i+1, concert.EventDate, concert.Location())
		r.writePlain("   Songs: %d\n", concert.TotalSongs())
		r.writePlain("   ID: %s\n\n", concert.ID)
	}

	return nil
}

// fetchConcert retrieves a setlist, consulting the local snapshot cache when
// the archive is unreachable and refreshing it on every successful fetch.
func (r *Runner) fetchConcert(ctx context.Context, setlistID string) (*services.Concert, error) {
	if setlistID == "" {
		return nil, fmt.Errorf("%w: setlist ID is required", shared.ErrMissingArgument)
	}
	if r.concerts == nil {
		return nil, fmt.Errorf("%w: concert service not initialized", shared.ErrServiceUnavailable)
	}

	concert := r.concerts.SetlistByID(ctx, setlistID)
	if concert == nil {
		if r.snapshots != nil {
			if cached, ok := r.snapshots.Load(setlistID); ok {
				r.logger.Info("serving setlist from local cache", "id", setlistID)
				return cached, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrSetlistNotFound, setlistID)
	}

	if r.snapshots != nil {
		if err := r.snapshots.Snapshot(concert); err != nil {
			r.logger.Warn("failed to snapshot setlist", "id", setlistID, "error", err)
		}
	}

	return concert, nil
}
