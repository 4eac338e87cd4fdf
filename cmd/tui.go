package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/ui"
)

// TUI launches the interactive concert browser.
//
// Logging is redirected to a file so the TUI owns the terminal; playback is
// optional and the browser degrades to read-only when Spotify is unavailable.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("artist")
	if query == "" {
		return fmt.Errorf("%w: artist name is required", shared.ErrMissingArgument)
	}
	if r.concerts == nil {
		return fmt.Errorf("%w: concert service not initialized, set the setlist.fm API key in config.toml", shared.ErrServiceUnavailable)
	}

	fileLogger, err := shared.NewFileLogger("./tmp/ctm-tui.log")
	if err != nil {
		r.logger.Warnf("failed to open TUI log file %v", err)
	} else {
		r.SetLogger(fileLogger)
	}

	if r.manager != nil {
		if err := r.manager.Initialize(ctx); err != nil {
			r.logger.Warn("playback engine unavailable, browsing only", "error", err)
		}
	}

	model := ui.NewModel(ctx, r.concerts, r.resolver, r.manager, r.selection, query)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("TUI exited with error: %w", err)
	}

	return nil
}
