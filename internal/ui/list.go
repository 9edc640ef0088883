package ui

import (
	"fmt"

	"github.com/avolkov/spotman/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount())
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.TrackEntry] to implement [list.Item].
type trackItem struct {
	entry models.TrackEntry
}

func (i trackItem) FilterValue() string { return i.entry.Track.Name }
func (i trackItem) Title() string       { return i.entry.Track.Name }
func (i trackItem) Description() string { return i.entry.Track.ArtistNames() }
