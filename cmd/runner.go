package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avolkov/spotman/internal/catalog"
	"github.com/avolkov/spotman/internal/formatter"
	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/services"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/avolkov/spotman/internal/store"
	"github.com/avolkov/spotman/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not injected through RunnerOpts are wired lazily by init,
// so commands that never touch the remote service (setup, auth) don't
// require a working store or credentials.
type Runner struct {
	config   *shared.Config
	svc      services.Service
	store    *store.Store
	catalog  *catalog.Catalog
	resolver *catalog.Resolver
	engine   *tasks.Engine
	writer   *tasks.Writer
	logger   *log.Logger
	output   io.Writer
	user     *models.User
}

// RunnerOpts contains configuration options for creating a Runner.
// Tests inject mock services and in-memory stores here.
type RunnerOpts struct {
	Config  *shared.Config
	Service services.Service
	Store   *store.Store
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		svc:    opts.Service,
		store:  opts.Store,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		collectCommand, showPlaylistsCommand, intersectCommand,
		playlistCounterCommand, notInPlaylistsCommand,
		authCommand, browseCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup applies the global verbosity flag to the logger.
func (r *Runner) setup(cmd *cli.Command) error {
	verbosity := cmd.Int("verbosity")
	if verbosity < 0 || verbosity > 3 {
		return fmt.Errorf("invalid --verbosity %d: must be 0, 1, 2 or 3", verbosity)
	}
	shared.ApplyVerbosity(r.logger, verbosity)
	return nil
}

// init wires the config, service, store and engines. Idempotent; fatal
// configuration problems (missing credentials, corrupt snapshot)
// surface here before any command logic runs.
func (r *Runner) init(ctx context.Context, cmd *cli.Command) error {
	if r.engine != nil {
		return nil
	}

	if err := r.setup(cmd); err != nil {
		return err
	}

	if r.config == nil {
		configPath := cmd.String("config")
		if _, err := os.Stat(configPath); err == nil {
			config, err := shared.LoadConfig(configPath)
			if err != nil {
				return err
			}
			r.config = config
		} else {
			r.config = shared.DefaultConfig()
		}
	}

	if err := r.config.Validate(); err != nil {
		return err
	}

	if r.svc == nil {
		svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
		if err != nil {
			return err
		}
		if r.config.Credentials.Spotify.AccessToken != "" {
			if err := svc.Authenticate(ctx, r.config.Credentials.Spotify.Map()); err != nil {
				return err
			}
		} else {
			r.logger.Warn("no saved tokens found; run `spotman auth` before commands that fetch from Spotify")
		}
		r.svc = svc
	}

	if r.store == nil {
		if r.config.Snapshot.Path == "" {
			r.config.Snapshot.Path = "spotman.db"
		}
		st, err := store.Open(r.config.Snapshot.Path, r.logger)
		if err != nil {
			return err
		}
		r.store = st
	}

	r.catalog = catalog.New(r.svc, r.store, r.logger)
	r.resolver = catalog.NewResolver(r.catalog, r.logger)
	r.engine = tasks.NewEngine(r.catalog, r.resolver, r.store, r.logger)
	r.writer = tasks.NewWriter(r.svc, r.logger)
	return nil
}

// currentUser memoizes the authenticated user's profile; only write
// paths need it.
func (r *Runner) currentUser(ctx context.Context) (models.User, error) {
	if r.user != nil {
		return *r.user, nil
	}
	user, err := r.svc.CurrentUser(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to look up current user: %w", err)
	}
	r.logger.Debugf("current user: %s (%s)", user.ID, user.DisplayName)
	r.user = user
	return *user, nil
}

// commitResult resolves the target playlist and writes the result set
// into it. Query results that matched nothing, and no-op queries, are
// reported without touching the target.
func (r *Runner) commitResult(ctx context.Context, cmd *cli.Command, result *tasks.QueryResult) error {
	if result.NoOp {
		r.writePlainln("%s", result.Reason)
		return nil
	}
	if result.Empty() {
		r.writePlainln("No tracks matching criteria were found")
		return nil
	}

	allowReplace := cmd.Bool("allow-replace")
	allowAppend := cmd.Bool("allow-append")
	dryRun := cmd.Bool("dry-run")
	targetToken := cmd.String("target-playlist")

	target, created, err := r.resolver.ResolveTarget(ctx, targetToken, allowReplace, allowAppend)
	if err != nil {
		r.reportResolution(err)
		return err
	}
	// The generated description only applies when the writer creates
	// the playlist; existing playlists keep theirs.
	if created {
		target.Description = result.Description
	}

	for _, id := range result.TrackIDs {
		if track, ok := result.Tracks[id]; ok {
			r.logger.Debugf(" * %s", track.Display())
		}
	}

	user := models.User{}
	if !dryRun {
		if user, err = r.currentUser(ctx); err != nil {
			return err
		}
	}

	mode := tasks.Mode(created, allowReplace)
	target, err = r.writer.Commit(ctx, user, target, result.TrackIDs, mode, dryRun)
	if err != nil {
		return err
	}

	if path := cmd.String("export-csv"); path != "" {
		if err := r.exportCSV(path, result); err != nil {
			return err
		}
	}

	if dryRun {
		r.writePlainln("Would add %d track(s) to playlist %q", len(result.TrackIDs), target.Name)
	} else {
		r.writePlainln("Added %d track(s) to playlist %q", len(result.TrackIDs), target.Name)
	}
	return nil
}

func (r *Runner) exportCSV(path string, result *tasks.QueryResult) error {
	data, err := formatter.ResultToCSV(result.TrackIDs, result.Tracks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	r.logger.Infof("exported %d track(s) to %s", len(result.TrackIDs), path)
	return nil
}

// reportResolution prints full candidate data for ambiguous names so
// the user can retry with an id.
func (r *Runner) reportResolution(err error) {
	var ambiguous *catalog.AmbiguousError
	if errors.As(err, &ambiguous) {
		r.writePlainln("Cannot run as some playlists have a non-unique name. Full data on problematic playlists:")
		r.writePlain("%s", formatter.AmbiguityReport(ambiguous.Token, ambiguous.Candidates))
		return
	}

	var report *catalog.ResolveReport
	if errors.As(err, &report) {
		if len(report.Missing) > 0 {
			r.writePlainln("Cannot run as some playlists cannot be found: %s", strings.Join(report.Missing, ", "))
		}
		if len(report.Ambiguous) > 0 {
			r.writePlainln("Cannot run as some playlists have a non-unique name. Full data on problematic playlists:")
			for _, amb := range report.Ambiguous {
				r.writePlain("%s", formatter.AmbiguityReport(amb.Token, amb.Candidates))
			}
		}
	}
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
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
