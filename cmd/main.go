package main

import (
	"context"
	"errors"
	"os"

	"github.com/avolkov/spotman/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrMisconfigured):
			logger.Fatalf("configuration error: %v", err)
		case errors.Is(err, shared.ErrCorruptStore):
			logger.Fatalf("snapshot error: %v", err)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotman",
		Usage:   "Cache your Spotify library locally and build playlists from set queries over it",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:     "target-playlist",
				Aliases:  []string{"t"},
				Usage:    "Name or id of the playlist where the query result will be saved",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Compute the result but don't write anything to Spotify",
			},
			&cli.IntFlag{
				Name:    "verbosity",
				Aliases: []string{"v"},
				Usage:   "Log verbosity: 0 errors only, 1 info, 2 debug, 3 debug with caller",
				Value:   1,
			},
		},
		MutuallyExclusiveFlags: []cli.MutuallyExclusiveFlags{
			{
				Flags: [][]cli.Flag{
					{&cli.BoolFlag{
						Name:  "allow-replace",
						Usage: "Replace the contents of the target playlist if it already exists",
					}},
					{&cli.BoolFlag{
						Name:  "allow-append",
						Usage: "Append to the target playlist if it already exists",
					}},
				},
			},
		},
		Commands: runner.register(),
	}
}
