package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/concert-time-machine/ctm/internal/player"
	"github.com/concert-time-machine/ctm/internal/repositories"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/store"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	concerts  services.ConcertService
	auth      *services.SpotifyAuth
	spotify   *services.SpotifyService
	resolver  *tasks.ResolutionEngine
	manager   *player.Manager
	selection *store.Store
	snapshots *repositories.ConcertCacheAdapter
	db        *sql.DB
	logger    *log.Logger
	output    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Concerts  services.ConcertService
	Auth      *services.SpotifyAuth
	Spotify   *services.SpotifyService
	Cache     tasks.TrackCache
	Snapshots *repositories.ConcertCacheAdapter
	DB        *sql.DB
	Logger    *log.Logger
	Output    io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var streaming services.StreamingService
	var manager *player.Manager
	if opts.Spotify != nil {
		streaming = opts.Spotify

		var tokens player.TokenSupplier
		if opts.Auth != nil {
			tokens = opts.Auth.UserToken
		}
		manager = player.NewManager(opts.Spotify, player.NewConnectEngine(opts.Spotify), player.EngineConfig{
			Name:   opts.Config.Player.Name,
			Volume: opts.Config.Player.Volume,
			Tokens: tokens,
		})
	}

	return &Runner{
		config:    opts.Config,
		concerts:  opts.Concerts,
		auth:      opts.Auth,
		spotify:   opts.Spotify,
		resolver:  tasks.NewResolutionEngine(streaming, opts.Cache),
		manager:   manager,
		selection: store.New(),
		snapshots: opts.Snapshots,
		db:        opts.DB,
		logger:    opts.Logger,
		output:    opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, setlistCommand, authCommand, playerCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
