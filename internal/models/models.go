package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Operation names a paged fetch against the remote service. Operations
// double as snapshot cache keys, so their values must stay stable across
// releases.
type Operation string

const (
	// OpPlaylists pages through the current user's playlists.
	OpPlaylists Operation = "current_user_playlists"
	// OpPlaylistTracks pages through one playlist's tracks; the playlist
	// id is the sub-key.
	OpPlaylistTracks Operation = "playlist_tracks"
	// OpSavedTracks pages through the user's liked/saved tracks.
	OpSavedTracks Operation = "current_user_saved_tracks"
)

// Key identifies one cache entry in the snapshot: the fetch operation
// plus an optional sub-key (e.g. a playlist id).
type Key struct {
	Op     Operation
	SubKey string
}

func (k Key) String() string {
	if k.SubKey == "" {
		return string(k.Op)
	}
	return fmt.Sprintf("%s/%s", k.Op, k.SubKey)
}

// Page is one page of raw items as returned by the remote fetch
// capability. Items stay undecoded until an index needs them, so a page
// round-trips through the snapshot without loss.
type Page []json.RawMessage

// User represents the authenticated Spotify user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Artist represents a single credited artist on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track represents a single addressable recording. Immutable once
// fetched.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
}

// Display renders a track as "Artist - Name" for log and console output.
func (t Track) Display() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Artists[0].Name, t.Name)
}

// ArtistNames returns the credited artist names joined with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// TrackEntry is a track in the context of a playlist or the saved-tracks
// list. One entry exists per track-in-playlist occurrence.
type TrackEntry struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// Playlist represents a playlist owned by some user. Playlist names are
// NOT unique; only the id is. Immutable once fetched.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       User   `json:"owner"`
	TrackTotal  total  `json:"tracks"`
}

type total struct {
	Total int `json:"total"`
}

// TrackCount returns the server-reported number of tracks in the
// playlist.
func (p Playlist) TrackCount() int { return p.TrackTotal.Total }
