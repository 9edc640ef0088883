// Package ui implements the interactive catalog browser using
// bubbletea's Elm architecture.
//
// Two views: [PlaylistListView] browses the user's playlists,
// [TrackListView] previews the selected playlist's tracks. Both read
// through the catalog, so a collected snapshot browses without any
// remote calls.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help via charmbracelet/bubbles/help.
package ui
