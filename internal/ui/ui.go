package ui

import (
	"context"
	"fmt"

	"github.com/avolkov/spotman/internal/catalog"
	"github.com/avolkov/spotman/internal/models"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the browser.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
)

type playlistsLoadedMsg struct {
	playlists []models.Playlist
	err       error
}

type tracksLoadedMsg struct {
	playlist models.Playlist
	entries  []models.TrackEntry
	err      error
}

// Model represents the browser state.
type Model struct {
	ctx     context.Context
	view    ViewState
	catalog *catalog.Catalog

	width  int
	height int

	playlistList list.Model
	trackList    list.Model
	selected     models.Playlist

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a browser over the given catalog.
func NewModel(ctx context.Context, c *catalog.Catalog) *Model {
	return &Model{
		ctx:     ctx,
		view:    PlaylistListView,
		catalog: c,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the playlist index.
func (m *Model) Init() tea.Cmd {
	return m.loadPlaylists()
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.catalog.Playlists(m.ctx, false)
		return playlistsLoadedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) loadTracks(playlist models.Playlist) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.catalog.PlaylistTracks(m.ctx, playlist.ID, false)
		return tracksLoadedMsg{playlist: playlist, entries: entries, err: err}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-6)
		m.trackList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			if m.view == TrackListView {
				m.view = PlaylistListView
				return m, nil
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if m.view == PlaylistListView {
				if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
					return m, m.loadTracks(item.playlist)
				}
			}
		}

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.playlists))
		for i, playlist := range msg.playlists {
			items[i] = playlistItem{playlist: playlist}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Playlists"
		m.playlistList.SetSize(m.width-4, m.height-6)
		return m, nil

	case tracksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.playlist
		items := make([]list.Item, len(msg.entries))
		for i, entry := range msg.entries {
			items[i] = trackItem{entry: entry}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in %q", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-6)
		m.view = TrackListView
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case PlaylistListView:
		body = m.playlistList.View()
	case TrackListView:
		body = m.trackList.View()
	}

	return fmt.Sprintf("%s\n%s", body, styles.help.Render(m.help.View(m.keys)))
}

// Err returns the error the browser exited with, if any.
func (m *Model) Err() error { return m.err }
