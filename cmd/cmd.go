// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// searchCommand handles concert archive searches
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the concert archive",
		Commands: []*cli.Command{
			{
				Name:  "artists",
				Usage: "Search artists by name",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "concerts-only",
						Usage: "Only return artists with at least one known concert",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SearchArtists,
			},
			{
				Name:    "concerts",
				Aliases: []string{"setlists"},
				Usage:   "List an artist's concert history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "mbid",
						Usage:    "Artist MusicBrainz ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Result page (20 concerts per page)",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SearchConcerts,
			},
		},
	}
}

// setlistCommand handles single-setlist operations
func setlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setlist",
		Usage: "Inspect, resolve, and export setlists",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a setlist by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SetlistShow,
			},
			{
				Name:  "resolve",
				Usage: "Resolve a setlist's songs to Spotify tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Concurrent track lookups (max 10)",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SetlistResolve,
			},
			{
				Name:  "export",
				Usage: "Export a resolved setlist to CSV, Markdown, or plain text",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, or text",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (base filename or directory)",
					},
					&cli.BoolFlag{
						Name:  "image",
						Usage: "Include the artist image in Markdown exports",
					},
				},
				Action: r.SetlistExport,
			},
		},
	}
}

// authCommand handles Spotify authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard stored Spotify tokens",
				Action: r.AuthLogout,
			},
		},
	}
}

// playerCommand handles playback control operations
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "player",
		Usage: "Control Spotify playback",
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Resolve a setlist and play one of its songs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "setlist",
						Usage:    "Setlist ID to play from",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "song",
						Usage: "Song position within the setlist (1-based)",
						Value: 1,
					},
				},
				Action: r.PlayerPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.PlayerPause,
			},
			{
				Name:   "resume",
				Usage:  "Resume playback",
				Action: r.PlayerResume,
			},
			{
				Name:  "seek",
				Usage: "Seek within the current track",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "position",
						Usage:    "Position in seconds",
						Required: true,
					},
				},
				Action: r.PlayerSeek,
			},
			{
				Name:  "volume",
				Usage: "Set playback volume",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "level",
						Usage:    "Volume from 0 to 100",
						Required: true,
					},
				},
				Action: r.PlayerVolume,
			},
			{
				Name:   "devices",
				Usage:  "List available playback devices",
				Action: r.PlayerDevices,
			},
			{
				Name:   "status",
				Usage:  "Show current playback state",
				Action: r.PlayerStatus,
			},
		},
	}
}

// cacheCommand handles the local concert cache database
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local concert cache",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Initialize the cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.CacheMigrate,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent cache migration",
				Action: r.CacheRollback,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached setlists and resolved tracks",
				Action: r.CacheClear,
			},
			{
				Name:   "stats",
				Usage:  "Show cache contents",
				Action: r.CacheStats,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive concert playback.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive concert browser",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "artist",
			},
		},
		Action: r.TUI,
	}
}
