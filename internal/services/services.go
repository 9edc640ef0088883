package services

import (
	"context"

	"github.com/avolkov/spotman/internal/models"
)

// Service defines the interface for the remote music service. Every
// blocking call takes a context; pagination and caching policy live with
// the callers, not here.
type Service interface {
	// Authenticate performs OAuth or token-based authentication with the
	// service. Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*models.User, error)

	// FetchPage retrieves one page of raw items for the given operation.
	// subKey narrows the operation (e.g. a playlist id for
	// [models.OpPlaylistTracks]) and is empty otherwise. An empty page
	// signals exhaustion.
	FetchPage(ctx context.Context, op models.Operation, subKey string, limit, offset int) (models.Page, error)

	// CreatePlaylist creates a new empty playlist owned by ownerID.
	CreatePlaylist(ctx context.Context, ownerID, name, description string) (*models.Playlist, error)

	// ReplaceTracks atomically sets the playlist contents to trackIDs.
	ReplaceTracks(ctx context.Context, ownerID, playlistID string, trackIDs []string) error

	// AddTracks appends trackIDs to the playlist.
	AddTracks(ctx context.Context, ownerID, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}
