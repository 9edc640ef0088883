package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/charmbracelet/log"
)

// AmbiguousError reports a name shared by several playlists. Candidates
// carry enough data for the caller to retry with an id.
type AmbiguousError struct {
	Token      string
	Candidates []models.Playlist
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("playlist name %q matches %d playlists, use an id instead", e.Token, len(e.Candidates))
}

func (e *AmbiguousError) Is(target error) bool { return target == shared.ErrAmbiguousPlaylist }

// NotFoundError reports a token matching neither an id nor any name.
type NotFoundError struct {
	Token string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("playlist %q not found", e.Token)
}

func (e *NotFoundError) Is(target error) bool { return target == shared.ErrPlaylistNotFound }

// TargetExistsError reports an existing target playlist with no
// replace/append flag supplied.
type TargetExistsError struct {
	Token string
}

func (e *TargetExistsError) Error() string {
	return fmt.Sprintf("playlist %q already exists: either choose a different name or use --allow-replace/--allow-append", e.Token)
}

func (e *TargetExistsError) Is(target error) bool { return target == shared.ErrTargetExists }

// ResolveReport aggregates every resolution problem found in one batch
// of tokens, so the user sees all of them at once rather than just the
// first.
type ResolveReport struct {
	Missing   []string
	Ambiguous []*AmbiguousError
}

// Empty reports whether the batch resolved cleanly.
func (r *ResolveReport) Empty() bool {
	return len(r.Missing) == 0 && len(r.Ambiguous) == 0
}

func (r *ResolveReport) Error() string {
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("playlists not found: %s", strings.Join(r.Missing, ", ")))
	}
	for _, amb := range r.Ambiguous {
		parts = append(parts, amb.Error())
	}
	return strings.Join(parts, "; ")
}

func (r *ResolveReport) Is(target error) bool {
	if len(r.Missing) > 0 && target == shared.ErrPlaylistNotFound {
		return true
	}
	return len(r.Ambiguous) > 0 && target == shared.ErrAmbiguousPlaylist
}

// Resolver resolves user-supplied name-or-id tokens against the catalog
// indices. An exact id match always wins over a name match.
type Resolver struct {
	catalog *Catalog
	logger  *log.Logger
}

// NewResolver creates a Resolver over the given catalog.
func NewResolver(c *Catalog, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{catalog: c, logger: logger}
}

// Lookup returns every playlist the token could mean: one element for an
// id match, the name index entry otherwise (possibly empty). Callers
// branch on cardinality instead of catching errors.
func (r *Resolver) Lookup(ctx context.Context, token string, force bool) ([]models.Playlist, error) {
	if err := r.catalog.MaybeRefreshPlaylists(ctx, force); err != nil {
		return nil, err
	}
	if _, err := r.catalog.Playlists(ctx, false); err != nil {
		return nil, err
	}

	if playlist, ok := r.catalog.ByID(token); ok {
		return []models.Playlist{playlist}, nil
	}
	return r.catalog.ByName(token), nil
}

// Resolve resolves the token to exactly one playlist, or fails with
// *NotFoundError / *AmbiguousError.
func (r *Resolver) Resolve(ctx context.Context, token string) (models.Playlist, error) {
	candidates, err := r.Lookup(ctx, token, false)
	if err != nil {
		return models.Playlist{}, err
	}

	switch len(candidates) {
	case 0:
		return models.Playlist{}, &NotFoundError{Token: token}
	case 1:
		return candidates[0], nil
	default:
		return models.Playlist{}, &AmbiguousError{Token: token, Candidates: candidates}
	}
}

// ResolveTarget implements resolve-or-create for the target playlist.
// An existing unique match requires a replace or append flag; an
// ambiguous name fails regardless of flags; no match yields a
// placeholder (generated id, requested name) with created=true; the
// actual remote creation is deferred to the writer's commit.
func (r *Resolver) ResolveTarget(ctx context.Context, token string, allowReplace, allowAppend bool) (models.Playlist, bool, error) {
	candidates, err := r.Lookup(ctx, token, false)
	if err != nil {
		return models.Playlist{}, false, err
	}

	switch {
	case len(candidates) > 1:
		return models.Playlist{}, false, &AmbiguousError{Token: token, Candidates: candidates}
	case len(candidates) == 1:
		if !allowReplace && !allowAppend {
			return models.Playlist{}, false, &TargetExistsError{Token: token}
		}
		return candidates[0], false, nil
	default:
		placeholder := models.Playlist{
			ID:   "pending-" + shared.GenerateID(),
			Name: token,
		}
		return placeholder, true, nil
	}
}
