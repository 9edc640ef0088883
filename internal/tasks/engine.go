package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/avolkov/spotman/internal/catalog"
	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/avolkov/spotman/internal/store"
	"github.com/charmbracelet/log"
)

// QueryResult is the outcome of one query operation: an ordered set of
// track ids plus the resolved track records, ready for the writer.
type QueryResult struct {
	TrackIDs    []string
	Tracks      map[string]models.Track
	Description string
	NoOp        bool
	Reason      string // set when NoOp
}

// Empty reports whether the query matched nothing.
func (r *QueryResult) Empty() bool { return len(r.TrackIDs) == 0 }

// CounterOptions parameterizes the playlist-counter query.
type CounterOptions struct {
	MinPlaylists            int
	MaxPlaylists            int
	MaxSet                  bool // whether MaxPlaylists was supplied; max defaults to min otherwise
	IgnoredNameRegex        string
	IgnoredDescriptionRegex string
}

// NotInOptions parameterizes the not-in-playlists query.
type NotInOptions struct {
	CheckedTokens    []string
	CheckedNameRegex string
	SourceToken      string // saved/liked tracks when empty
}

// Engine implements the membership query operations over the catalog.
type Engine struct {
	catalog  *catalog.Catalog
	resolver *catalog.Resolver
	store    *store.Store
	logger   *log.Logger
}

// NewEngine creates an Engine over the given catalog, resolver and
// snapshot store.
func NewEngine(c *catalog.Catalog, r *catalog.Resolver, st *store.Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{catalog: c, resolver: r, store: st, logger: logger}
}

// Collect runs a full collection pass and commits the snapshot: the only
// operation that persists anything.
func (e *Engine) Collect(ctx context.Context) error {
	e.store.MarkCollecting()
	if err := e.catalog.CollectAll(ctx, false); err != nil {
		return err
	}
	if err := e.store.Commit(); err != nil {
		return err
	}
	e.logger.Infof("playlists and tracks are collected to %q", e.store.Path())
	return nil
}

// Intersect computes the tracks common to every one of the given
// playlists. A single distinct token is a reported no-op, never an
// error; unresolved or ambiguous tokens are all collected before the
// operation aborts, so nothing is fetched on a bad operand set.
func (e *Engine) Intersect(ctx context.Context, tokens []string) (*QueryResult, error) {
	distinct := dedupe(tokens)
	if len(distinct) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist name or id", shared.ErrMissingArgument)
	}
	if len(distinct) == 1 {
		return &QueryResult{NoOp: true, Reason: "intersecting 1 playlist with itself does nothing, so skipped"}, nil
	}

	report := &catalog.ResolveReport{}
	var operands []models.Playlist
	operandIDs := make(map[string]struct{})

	for _, token := range distinct {
		candidates, err := e.resolver.Lookup(ctx, token, false)
		if err != nil {
			return nil, err
		}
		switch len(candidates) {
		case 0:
			report.Missing = append(report.Missing, token)
		case 1:
			operands = append(operands, candidates[0])
			operandIDs[candidates[0].ID] = struct{}{}
		default:
			report.Ambiguous = append(report.Ambiguous, &catalog.AmbiguousError{Token: token, Candidates: candidates})
		}
	}
	if !report.Empty() {
		return nil, report
	}

	result := &QueryResult{
		Tracks:      make(map[string]models.Track),
		Description: fmt.Sprintf("Generated with spotman by intersecting playlists: %s", strings.Join(distinct, ", ")),
	}

	// Working membership scoped to just the operand playlists, distinct
	// from the catalog's global index. A track enters the result the
	// moment its accumulated set covers every operand.
	working := make(map[string]map[string]struct{})
	emitted := make(map[string]struct{})

	e.logger.Info("going to intersect following playlists:")
	for _, playlist := range operands {
		entries, err := e.catalog.PlaylistTracks(ctx, playlist.ID, false)
		if err != nil {
			return nil, err
		}
		e.logger.Infof(" * id: %s, name: %q, num_tracks: %d", playlist.ID, playlist.Name, len(entries))

		for _, entry := range entries {
			track := entry.Track
			set, ok := working[track.ID]
			if !ok {
				set = make(map[string]struct{})
				working[track.ID] = set
			}
			set[playlist.ID] = struct{}{}

			if _, done := emitted[track.ID]; done || !coversAll(set, operandIDs) {
				continue
			}
			emitted[track.ID] = struct{}{}
			result.TrackIDs = append(result.TrackIDs, track.ID)
			result.Tracks[track.ID] = track
		}
	}

	return result, nil
}

// Counter matches saved/liked tracks whose filtered playlist count lies
// within [min, max]. Tracks in zero playlists always match. Runs a
// persisted full collection first when the store was never collected,
// otherwise a cache-satisfied re-walk.
func (e *Engine) Counter(ctx context.Context, opts CounterOptions) (*QueryResult, error) {
	if opts.MinPlaylists < 0 {
		return nil, fmt.Errorf("%w: --min-playlists cannot be less than zero", shared.ErrInvalidRange)
	}
	max := opts.MinPlaylists
	if opts.MaxSet {
		if opts.MaxPlaylists < opts.MinPlaylists {
			return nil, fmt.Errorf("%w: --max-playlists cannot be less than --min-playlists", shared.ErrInvalidRange)
		}
		max = opts.MaxPlaylists
	}

	ignoredName, err := compileMatch(opts.IgnoredNameRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid --ignored-name-regex: %w", err)
	}
	ignoredDescription, err := compileMatch(opts.IgnoredDescriptionRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid --ignored-description-regex: %w", err)
	}

	if e.store.NeverCollected() {
		e.logger.Info("will run `collect` command before running counter")
		if err := e.Collect(ctx); err != nil {
			return nil, err
		}
	} else if err := e.catalog.CollectAll(ctx, true); err != nil {
		return nil, err
	}

	result := &QueryResult{
		Tracks:      make(map[string]models.Track),
		Description: "Generated with spotman by counting playlists number for each saved track",
	}

	saved, err := e.catalog.SavedTracks(ctx, false)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, entry := range saved {
		track := entry.Track
		e.logger.Debugf("processing track: %q", track.Display())

		matched := false
		membership := e.catalog.Membership(track.ID)
		if len(membership) == 0 {
			// Zero-playlist tracks always match, regardless of range.
			matched = true
		} else {
			count := len(membership)
			if ignoredName != nil || ignoredDescription != nil {
				count = e.countKept(track, membership, ignoredName, ignoredDescription)
			}
			matched = opts.MinPlaylists <= count && count <= max
		}

		if !matched {
			continue
		}
		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}
		result.TrackIDs = append(result.TrackIDs, track.ID)
		result.Tracks[track.ID] = track
	}

	return result, nil
}

// countKept counts membership entries surviving the ignore filters.
func (e *Engine) countKept(track models.Track, membership map[string]struct{}, ignoredName, ignoredDescription *regexp.Regexp) int {
	kept := 0
	for playlistID := range membership {
		playlist, ok := e.catalog.ByID(playlistID)
		if !ok {
			continue
		}
		if ignoredName != nil && ignoredName.MatchString(playlist.Name) {
			e.logger.Infof("ignored playlist %q for track %q because of name", playlist.Name, track.Display())
			continue
		}
		if ignoredDescription != nil && ignoredDescription.MatchString(playlist.Description) {
			e.logger.Infof("ignored playlist %q for track %q because of description", playlist.Name, track.Display())
			continue
		}
		kept++
	}
	return kept
}

// NotIn matches tracks of the source (a named playlist, or the saved
// list) that are absent from every checked playlist. Checked playlists
// are processed into the membership index here, so no prior full
// collection is required.
func (e *Engine) NotIn(ctx context.Context, opts NotInOptions) (*QueryResult, error) {
	if len(opts.CheckedTokens) == 0 && opts.CheckedNameRegex == "" {
		return nil, fmt.Errorf("%w: either checked playlists or --checked-playlists-name-regex is required", shared.ErrMissingArgument)
	}

	all, err := e.catalog.Playlists(ctx, false)
	if err != nil {
		return nil, err
	}

	var checked []models.Playlist
	checkedIDs := make(map[string]struct{})
	addChecked := func(playlist models.Playlist) error {
		if _, dup := checkedIDs[playlist.ID]; dup {
			return nil
		}
		if err := e.catalog.RecordMembership(ctx, playlist); err != nil {
			return err
		}
		checked = append(checked, playlist)
		checkedIDs[playlist.ID] = struct{}{}
		return nil
	}

	for _, token := range opts.CheckedTokens {
		playlist, err := e.resolver.Resolve(ctx, token)
		if err != nil {
			return nil, err
		}
		if err := addChecked(playlist); err != nil {
			return nil, err
		}
	}

	if opts.CheckedNameRegex != "" {
		nameRegex, err := compileMatch(opts.CheckedNameRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid --checked-playlists-name-regex: %w", err)
		}
		for _, playlist := range all {
			if !nameRegex.MatchString(playlist.Name) {
				continue
			}
			if err := addChecked(playlist); err != nil {
				return nil, err
			}
		}
	}

	names := make([]string, 0, len(checked))
	labels := make([]string, 0, len(checked))
	for _, playlist := range checked {
		names = append(names, playlist.Name)
		labels = append(labels, fmt.Sprintf("%q (id=%s)", playlist.Name, playlist.ID))
	}
	e.logger.Infof("going to find tracks not present in next playlists: %s", strings.Join(labels, ", "))

	var source []models.TrackEntry
	if opts.SourceToken != "" {
		playlist, err := e.resolver.Resolve(ctx, opts.SourceToken)
		if err != nil {
			return nil, err
		}
		e.logger.Debugf("going over tracks from %q", opts.SourceToken)
		if source, err = e.catalog.PlaylistTracks(ctx, playlist.ID, false); err != nil {
			return nil, err
		}
	} else {
		e.logger.Debug("going over tracks from Liked/Saved list")
		if source, err = e.catalog.SavedTracks(ctx, false); err != nil {
			return nil, err
		}
	}

	result := &QueryResult{
		Tracks:      make(map[string]models.Track),
		Description: fmt.Sprintf("Generated with spotman from tracks not present in playlists: %s", strings.Join(names, ", ")),
	}

	e.logger.Debugf("processing %d track(s)...", len(source))
	seen := make(map[string]struct{})
	for _, entry := range source {
		track := entry.Track
		membership := e.catalog.Membership(track.ID)
		matched := len(membership) == 0 || disjoint(membership, checkedIDs)

		action := "skipped"
		if matched {
			action = "to be added"
		}
		e.logger.Debugf(" * %s: %s", track.Display(), action)

		if !matched {
			continue
		}
		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}
		result.TrackIDs = append(result.TrackIDs, track.ID)
		result.Tracks[track.ID] = track
	}

	return result, nil
}

// compileMatch compiles pattern with start-anchored match semantics: the
// pattern must match at the beginning of the string, not anywhere in it.
func compileMatch(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + pattern + `)`)
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var distinct []string
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		distinct = append(distinct, token)
	}
	return distinct
}

func coversAll(set, required map[string]struct{}) bool {
	for id := range required {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func disjoint(a, b map[string]struct{}) bool {
	for id := range a {
		if _, ok := b[id]; ok {
			return false
		}
	}
	return true
}
