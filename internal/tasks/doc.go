// Package tasks implements the playlist-membership query operations and
// the batched write-back of their results.
//
// [Engine] runs the three set-algebra queries (intersect, counter,
// not-in-playlists) over the catalog indices and owns the full
// collection pass. [Writer] materializes a query result into the target
// playlist in fixed-size batches.
package tasks
