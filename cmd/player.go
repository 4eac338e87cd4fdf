package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

// PlayerPlay resolves a setlist and starts playback of one of its songs.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	setlistID := cmd.String("setlist")
	position := int(cmd.Int("song"))

	if r.manager == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	if r.auth != nil && !r.auth.Authenticated(ctx) {
		if err := r.auth.SetReturnTo(setlistID); err != nil {
			r.logger.Warn("failed to record return-to marker", "error", err)
		}
		return fmt.Errorf("%w: run 'ctm auth login' first", shared.ErrNotAuthenticated)
	}

	concert, resolution, err := r.resolveConcert(ctx, setlistID, 0, true)
	if err != nil {
		return err
	}

	songs := tasks.PerformedSongs(concert)
	if position < 1 || position > len(songs) {
		return fmt.Errorf("%w: song position %d out of range (setlist has %d songs)", shared.ErrInvalidArgument, position, len(songs))
	}

	r.selection.SelectConcert(concert)
	r.selection.SetSongIndex(position - 1)

	track := resolution.Resolutions[position-1].Track
	if track == nil {
		song := songs[position-1]
		return fmt.Errorf("%w: no match for %s - %s", shared.ErrTrackNotFound, song.Artist, song.Title)
	}

	if err := r.manager.Initialize(ctx); err != nil {
		r.logger.Warn("playback engine degraded", "error", err)
	}
	if err := r.manager.Activate(ctx); err != nil {
		r.logger.Warn("device activation failed", "error", err)
	}

	if !r.manager.PlayTrack(ctx, track.URI) {
		return fmt.Errorf("%w: could not start playback, is a Spotify device active?", shared.ErrNoDevice)
	}

	r.selection.SetPlaying(true)
	r.writePlain("▶ %s - %s [%s]\n", track.PrimaryArtist(), track.Name, shared.FormatDuration(track.DurationMS))
	r.writePlain("  %s @ %s (%s)\n", concert.Artist.Name, concert.Location(), concert.EventDate)

	return nil
}

// PlayerPause pauses the user's playback.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	if r.spotify.PausePlayback(ctx) {
		r.writePlain("⏸ Paused\n")
	} else {
		r.writePlain("✗ Could not pause playback\n")
	}
	return nil
}

// PlayerResume resumes the user's playback.
func (r *Runner) PlayerResume(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	if r.spotify.ResumePlayback(ctx) {
		r.writePlain("▶ Resumed\n")
	} else {
		r.writePlain("✗ Could not resume playback\n")
	}
	return nil
}

// PlayerSeek seeks within the currently playing track.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	if r.manager == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	position := int(cmd.Int("position"))
	if position < 0 {
		return fmt.Errorf("%w: position must be non-negative", shared.ErrInvalidArgument)
	}

	if err := r.manager.Initialize(ctx); err != nil {
		r.logger.Warn("playback engine degraded", "error", err)
	}

	r.manager.Seek(ctx, position*1000)
	r.writePlain("→ Seeked to %s\n", shared.FormatDuration(position*1000))
	return nil
}

// PlayerVolume sets the playback volume.
func (r *Runner) PlayerVolume(ctx context.Context, cmd *cli.Command) error {
	if r.manager == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	level := int(cmd.Int("level"))
	if level < 0 || level > 100 {
		return fmt.Errorf("%w: level must be between 0 and 100", shared.ErrInvalidArgument)
	}

	if err := r.manager.Initialize(ctx); err != nil {
		r.logger.Warn("playback engine degraded", "error", err)
	}

	r.manager.SetVolume(ctx, float64(level)/100)
	r.writePlain("→ Volume set to %d%%\n", level)
	return nil
}

// PlayerDevices lists the user's available playback devices.
func (r *Runner) PlayerDevices(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	devices, err := r.spotify.Devices(ctx)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		r.writePlain("No devices available. Open Spotify on a device and try again.\n")
		return nil
	}

	r.writePlain("Available devices:\n\n")
	for i, device := range devices {
		marker := " "
		if device.IsActive {
			marker = "*"
		}
		r.writePlain("%s %d. %s (%s)\n", marker, i+1, device.Name, device.Type)
	}

	return nil
}

// PlayerStatus shows the current playback state.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	state, err := r.spotify.PlayerState(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		r.writePlain("Nothing playing\n")
		return nil
	}

	status := "⏸"
	if state.IsPlaying {
		status = "▶"
	}

	if state.Item != nil {
		r.writePlain("%s %s - %s [%s/%s]\n", status, state.Item.PrimaryArtist(), state.Item.Name,
			shared.FormatDuration(state.ProgressMS), shared.FormatDuration(state.Item.DurationMS))
	} else {
		r.writePlain("%s (no track)\n", status)
	}
	r.writePlain("Device: %s\n", state.Device.Name)

	return nil
}
