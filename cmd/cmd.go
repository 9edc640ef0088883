package main

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/spotman/internal/formatter"
	"github.com/avolkov/spotman/internal/server"
	"github.com/avolkov/spotman/internal/services"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/avolkov/spotman/internal/tasks"
	"github.com/avolkov/spotman/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the auth command waits for the browser
// callback.
const authTimeout = 5 * time.Minute

func collectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Fetch all playlists, their tracks and the saved tracks, and persist the snapshot",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.init(ctx, cmd); err != nil {
				return err
			}
			return r.engine.Collect(ctx)
		},
	}
}

func showPlaylistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show-playlists",
		Usage: "List the current user's playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print the JSON output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.init(ctx, cmd); err != nil {
				return err
			}

			playlists, err := r.catalog.Playlists(ctx, false)
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				return r.writeJSON(playlists, cmd.Bool("pretty"))
			}
			for _, playlist := range playlists {
				if err := r.writePlainln("%s", formatter.PlaylistLine(playlist)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func intersectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "intersect",
		Usage:     "Find tracks present in every one of the given playlists",
		ArgsUsage: "<playlist name or id> [<playlist name or id>...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "export-csv", Usage: "Also write the matched tracks to a CSV file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.init(ctx, cmd); err != nil {
				return err
			}

			result, err := r.engine.Intersect(ctx, cmd.Args().Slice())
			if err != nil {
				r.reportResolution(err)
				return err
			}
			return r.commitResult(ctx, cmd, result)
		},
	}
}

func playlistCounterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist-counter",
		Usage: "Find saved tracks that appear in between min and max playlists; tracks in no playlist always match",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "min-playlists", Value: 0, Usage: "Lower bound on the playlist count"},
			&cli.IntFlag{Name: "max-playlists", Usage: "Upper bound on the playlist count (defaults to --min-playlists)"},
			&cli.StringFlag{
				Name:  "ignored-name-regex",
				Usage: "Don't count playlists whose name matches this pattern",
				Value: "(Mentor.FM Discovery|.*Shazam.*)",
			},
			&cli.StringFlag{
				Name:  "ignored-description-regex",
				Usage: "Don't count playlists whose description matches this pattern",
				Value: "Generated with .*",
			},
			&cli.StringFlag{Name: "export-csv", Usage: "Also write the matched tracks to a CSV file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.init(ctx, cmd); err != nil {
				return err
			}

			opts := tasks.CounterOptions{
				MinPlaylists:            cmd.Int("min-playlists"),
				MaxPlaylists:            cmd.Int("max-playlists"),
				MaxSet:                  cmd.IsSet("max-playlists"),
				IgnoredNameRegex:        cmd.String("ignored-name-regex"),
				IgnoredDescriptionRegex: cmd.String("ignored-description-regex"),
			}
			result, err := r.engine.Counter(ctx, opts)
			if err != nil {
				r.reportResolution(err)
				return err
			}
			return r.commitResult(ctx, cmd, result)
		},
	}
}

func notInPlaylistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "not-in-playlists",
		Usage:     "Find source tracks absent from every checked playlist",
		ArgsUsage: "[<checked playlist name or id>...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "checked-playlists-name-regex", Usage: "Also check every playlist whose name matches this pattern"},
			&cli.StringFlag{Name: "source-playlist", Usage: "Take source tracks from this playlist instead of the Liked/Saved list"},
			&cli.StringFlag{Name: "export-csv", Usage: "Also write the matched tracks to a CSV file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.init(ctx, cmd); err != nil {
				return err
			}

			opts := tasks.NotInOptions{
				CheckedTokens:    cmd.Args().Slice(),
				CheckedNameRegex: cmd.String("checked-playlists-name-regex"),
				SourceToken:      cmd.String("source-playlist"),
			}
			result, err := r.engine.NotIn(ctx, opts)
			if err != nil {
				r.reportResolution(err)
				return err
			}
			return r.commitResult(ctx, cmd, result)
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and save the tokens to the config file",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.setup(cmd); err != nil {
				return err
			}

			configPath := cmd.String("config")
			if r.config == nil {
				config, err := shared.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("run `spotman setup` first: %w", err)
				}
				r.config = config
			}
			if err := r.config.Validate(); err != nil {
				return err
			}

			svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
			if err != nil {
				return err
			}

			state := shared.GenerateID()
			authURL := svc.AuthURL(state)
			r.writePlainln("Opening browser for Spotify authorization...")
			if err := shared.OpenBrowser(authURL); err != nil {
				r.logger.Warnf("could not open browser: %v", err)
				r.writePlainln("Visit this URL to authorize: %s", authURL)
			}

			waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
			defer cancel()

			handler := server.NewOAuthHandler(svc.OAuthConfig(), state)
			result, err := server.Listen(waitCtx, r.config.Credentials.Spotify.RedirectURI, handler)
			if err != nil {
				return err
			}
			if result.Error() != nil {
				return result.Error()
			}

			if err := r.config.Credentials.Spotify.Update(result.Token); err != nil {
				return err
			}
			if err := shared.SaveConfig(configPath, r.config); err != nil {
				return err
			}

			r.writePlainln("Authorized. Tokens saved to %s", configPath)
			return nil
		},
	}
}

func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse playlists and their tracks interactively",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.init(ctx, cmd); err != nil {
				return err
			}

			model := ui.NewModel(ctx, r.catalog)
			program := tea.NewProgram(model, tea.WithAltScreen())
			final, err := program.Run()
			if err != nil {
				return fmt.Errorf("browse UI failed: %w", err)
			}
			if m, ok := final.(*ui.Model); ok && m.Err() != nil {
				return m.Err()
			}
			return nil
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write an example config file to fill in",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.setup(cmd); err != nil {
				return err
			}

			configPath := cmd.String("config")
			if err := shared.CreateConfigFile(configPath); err != nil {
				return err
			}
			r.writePlainln("Wrote %s; fill in your Spotify client_id and client_secret, then run `spotman auth`", configPath)
			return nil
		},
	}
}
