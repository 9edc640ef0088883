// Package services defines the remote capability boundary of the
// playlist manager.
//
// [Service] is the narrow surface the rest of the program consumes: an
// opaque paged-fetch capability plus the three write primitives (create,
// replace, add) and the current-user lookup. [SpotifyService] is the
// only implementation; authentication and token refresh are entirely its
// concern.
package services
