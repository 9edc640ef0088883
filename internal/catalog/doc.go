// Package catalog is the local cache-and-index model over the remote
// catalog.
//
// [Cache] memoizes paginated fetches against the snapshot store and
// hands pages out through the pull-based [PageStream]. [Catalog] derives
// the in-memory indices (playlists by id, playlists by name, per-playlist
// track lists, the track membership sets) from those pages; the indices
// are rebuilt from the snapshot on first access and never persisted
// themselves. [Resolver] turns user-supplied name-or-id tokens into
// playlist records, surfacing ambiguity as data rather than control
// flow.
package catalog
