package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/avolkov/spotman/internal/store"
	"github.com/charmbracelet/log"
)

// Catalog derives the in-memory indices from cached pages: playlists by
// id, playlists by name (one-to-many, names are not unique), ordered
// track lists per playlist, the saved-tracks list, every track record
// seen, and the track → playlist-id membership sets.
//
// Membership is exhaustive over exactly the playlists that were
// processed through RecordMembership; only a full CollectAll makes it
// exhaustive over the whole catalog.
type Catalog struct {
	cache  *Cache
	store  *store.Store
	logger *log.Logger

	playlists       []models.Playlist
	playlistsByID   map[string]models.Playlist
	playlistsByName map[string][]models.Playlist

	playlistTracks map[string][]models.TrackEntry
	savedTracks    []models.TrackEntry
	savedLoaded    bool

	tracks     map[string]models.Track
	membership map[string]map[string]struct{}
}

// New creates a Catalog reading through the given remote source and
// snapshot store.
func New(svc PageSource, st *store.Store, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Catalog{
		cache:           NewCache(svc, st, logger),
		store:           st,
		logger:          logger,
		playlistsByID:   make(map[string]models.Playlist),
		playlistsByName: make(map[string][]models.Playlist),
		playlistTracks:  make(map[string][]models.TrackEntry),
		tracks:          make(map[string]models.Track),
		membership:      make(map[string]map[string]struct{}),
	}
}

// Playlists returns all of the user's playlists, building the id and
// name indices on first access or when force is set.
func (c *Catalog) Playlists(ctx context.Context, force bool) ([]models.Playlist, error) {
	if !force && len(c.playlistsByID) > 0 {
		return c.playlists, nil
	}

	c.playlists = nil
	c.playlistsByID = make(map[string]models.Playlist)
	c.playlistsByName = make(map[string][]models.Playlist)

	stream := c.cache.FetchAll(ctx, models.OpPlaylists, "", force)
	for stream.Next() {
		for _, item := range stream.Page() {
			var playlist models.Playlist
			if err := json.Unmarshal(item, &playlist); err != nil {
				return nil, fmt.Errorf("failed to decode playlist: %w", err)
			}
			c.playlists = append(c.playlists, playlist)
			c.playlistsByID[playlist.ID] = playlist
			c.playlistsByName[playlist.Name] = append(c.playlistsByName[playlist.Name], playlist)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	return c.playlists, nil
}

// PlaylistTracks returns the ordered track entries of one playlist, one
// entry per track-in-playlist occurrence.
func (c *Catalog) PlaylistTracks(ctx context.Context, playlistID string, force bool) ([]models.TrackEntry, error) {
	if entries, ok := c.playlistTracks[playlistID]; ok && !force {
		return entries, nil
	}

	entries, err := c.decodeEntries(c.cache.FetchAll(ctx, models.OpPlaylistTracks, playlistID, force))
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks of playlist %s: %w", playlistID, err)
	}

	c.playlistTracks[playlistID] = entries
	return entries, nil
}

// SavedTracks returns the user's liked/saved tracks.
func (c *Catalog) SavedTracks(ctx context.Context, force bool) ([]models.TrackEntry, error) {
	if c.savedLoaded && !force {
		return c.savedTracks, nil
	}

	entries, err := c.decodeEntries(c.cache.FetchAll(ctx, models.OpSavedTracks, "", force))
	if err != nil {
		return nil, fmt.Errorf("failed to load saved tracks: %w", err)
	}

	c.savedTracks = entries
	c.savedLoaded = true
	return entries, nil
}

func (c *Catalog) decodeEntries(stream *PageStream) ([]models.TrackEntry, error) {
	var entries []models.TrackEntry
	for stream.Next() {
		for _, item := range stream.Page() {
			var entry models.TrackEntry
			if err := json.Unmarshal(item, &entry); err != nil {
				return nil, fmt.Errorf("failed to decode track entry: %w", err)
			}
			entries = append(entries, entry)
			c.tracks[entry.Track.ID] = entry.Track
		}
	}
	return entries, stream.Err()
}

// RecordMembership scans one playlist's tracks and adds the playlist id
// to each track's membership set. Replaying the same playlist is
// idempotent.
func (c *Catalog) RecordMembership(ctx context.Context, playlist models.Playlist) error {
	entries, err := c.PlaylistTracks(ctx, playlist.ID, false)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		set, ok := c.membership[entry.Track.ID]
		if !ok {
			set = make(map[string]struct{})
			c.membership[entry.Track.ID] = set
		}
		set[playlist.ID] = struct{}{}
	}
	return nil
}

// Membership returns the set of playlist ids known to contain trackID,
// or nil if none was recorded. Callers must not mutate the returned set.
func (c *Catalog) Membership(trackID string) map[string]struct{} {
	return c.membership[trackID]
}

// Track returns the record for a previously seen track id.
func (c *Catalog) Track(trackID string) (models.Track, bool) {
	track, ok := c.tracks[trackID]
	return track, ok
}

// ByID returns the playlist with the given id from the index.
func (c *Catalog) ByID(id string) (models.Playlist, bool) {
	playlist, ok := c.playlistsByID[id]
	return playlist, ok
}

// ByName returns all playlists sharing the given display name.
func (c *Catalog) ByName(name string) []models.Playlist {
	return c.playlistsByName[name]
}

// CollectAll walks every playlist (recording membership) and the saved
// tracks, populating the full membership index. With quiet set the
// per-playlist progress drops to debug level, for cache-satisfied
// re-walks.
func (c *Catalog) CollectAll(ctx context.Context, quiet bool) error {
	progress := c.logger.Infof
	if quiet {
		progress = c.logger.Debugf
	}

	playlists, err := c.Playlists(ctx, false)
	if err != nil {
		return err
	}
	for _, playlist := range playlists {
		if err := c.RecordMembership(ctx, playlist); err != nil {
			return err
		}
		progress("collected or processed playlist %q (id=%s)", playlist.Name, playlist.ID)
	}

	if _, err := c.SavedTracks(ctx, false); err != nil {
		return err
	}
	progress("collected or processed saved tracks")
	return nil
}

// MaybeRefreshPlaylists re-fetches the playlist index, but only when a
// prior collection timestamp exists: an uncollected state doesn't
// refresh, it performs the first collection.
func (c *Catalog) MaybeRefreshPlaylists(ctx context.Context, force bool) error {
	if force && c.store.CollectedAt() != nil {
		_, err := c.Playlists(ctx, true)
		return err
	}
	return nil
}
