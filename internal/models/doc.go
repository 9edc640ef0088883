// Package models defines the domain entities for the playlist manager.
//
// The types mirror the Spotify wire shapes (JSON tags match the Web API
// field names) so that cached pages decode directly into them:
//   - [Playlist] : playlist metadata with owner and optional description
//   - [Track] : song metadata with its ordered artist list
//   - [TrackEntry] : a track as it appears inside a playlist or the
//     saved-tracks list
//   - [User] : the authenticated user
//
// [Operation] enumerates the paged fetch operations a snapshot can hold,
// and [Key] identifies one cache entry (operation plus optional sub-key).
package models
