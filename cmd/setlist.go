package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/formatter"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

// SetlistShow prints a single setlist.
func (r *Runner) SetlistShow(ctx context.Context, cmd *cli.Command) error {
	concert, err := r.fetchConcert(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(concert, cmd.Bool("pretty"))
	}

	r.printConcertHeader(concert)
	for i, song := range tasks.PerformedSongs(concert) {
		r.writePlain("%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return nil
}

// SetlistResolve resolves a setlist's songs against the Spotify catalog and
// reports per-song outcomes.
func (r *Runner) SetlistResolve(ctx context.Context, cmd *cli.Command) error {
	concert, resolution, err := r.resolveConcert(ctx, cmd.StringArg("id"), int(cmd.Int("batch-size")), true)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(resolution, cmd.Bool("pretty"))
	}

	r.printConcertHeader(concert)
	r.writePlain("Matched %d of %d songs\n\n", resolution.ResolvedCount, resolution.TotalSongs)
	for i, res := range resolution.Resolutions {
		if res.Track != nil {
			r.writePlain("%d. ✓ %s - %s [%s]\n", i+1, res.Song.Artist, res.Song.Title, shared.FormatDuration(res.Track.DurationMS))
		} else {
			r.writePlain("%d. ✗ %s - %s\n", i+1, res.Song.Artist, res.Song.Title)
		}
	}

	return nil
}

// SetlistExport resolves a setlist and writes it to disk in the requested format.
func (r *Runner) SetlistExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	concert, resolution, err := r.resolveConcert(ctx, cmd.StringArg("id"), 0, false)
	if err != nil {
		return err
	}

	export := &formatter.SetlistExport{Concert: concert, Resolution: resolution}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Setlist exported to %s\n", result.TracksFile)
		r.writePlain("✓ Metadata exported to %s\n", result.MetadataFile)

	case "markdown", "md":
		var imageURL string
		if cmd.Bool("image") && r.spotify != nil {
			if info := r.spotify.ArtistInfo(ctx, concert.Artist.Name); info != nil && len(info.Images) > 0 {
				imageURL = info.Images[0].URL
			}
		}
		result, err := formatter.WriteMarkdownExport(export, output, imageURL)
		if err != nil {
			return err
		}
		r.writePlain("✓ Setlist exported to %s\n", result.Directory)

	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Setlist exported to %s\n", path)

	default:
		return fmt.Errorf("%w: unknown format %q (expected csv, markdown, or text)", shared.ErrInvalidArgument, format)
	}

	return nil
}

// resolveConcert fetches a setlist and resolves its songs, streaming progress
// to the terminal when showProgress is set.
func (r *Runner) resolveConcert(ctx context.Context, setlistID string, batchSize int, showProgress bool) (*services.Concert, *tasks.SetlistResolution, error) {
	concert, err := r.fetchConcert(ctx, setlistID)
	if err != nil {
		return nil, nil, err
	}

	var prog chan tasks.ProgressUpdate
	done := make(chan struct{})
	if showProgress {
		prog = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range prog {
				r.writePlain("%s\n", update.Message)
			}
		}()
	} else {
		close(done)
	}

	resolution, err := r.resolver.ResolveSetlist(ctx, prog, concert, r.selection.Generation(), tasks.ResolveOpts{BatchSize: batchSize})
	if prog != nil {
		close(prog)
	}
	<-done
	if err != nil {
		return nil, nil, err
	}

	return concert, resolution, nil
}

func (r *Runner) printConcertHeader(concert *services.Concert) {
	r.writePlain("%s @ %s\n", concert.Artist.Name, concert.Location())
	r.writePlain("Date: %s\n", concert.EventDate)
	if concert.Info != "" {
		r.writePlain("%s\n", concert.Info)
	}
	r.writePlain("Songs: %d\n\n", concert.TotalSongs())
}
