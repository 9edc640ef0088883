package shared

import "fmt"

var (
	// Configuration and store errors; both are fatal at startup.
	ErrMisconfigured = fmt.Errorf("missing credentials")
	ErrCorruptStore  = fmt.Errorf("collection snapshot is corrupt")

	// Resolution errors
	ErrAmbiguousPlaylist = fmt.Errorf("playlist name is ambiguous")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")
	ErrTargetExists      = fmt.Errorf("target playlist already exists")

	// Query argument errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidRange    = fmt.Errorf("invalid playlist count range")

	// API and service errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAPIRequest       = fmt.Errorf("API request failed")
)
