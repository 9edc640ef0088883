package tasks

import (
	"context"
	"fmt"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/services"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/charmbracelet/log"
)

// BatchSize is the fixed number of tracks per remote write call.
const BatchSize = 100

// CommitMode selects how the target playlist receives the result set.
type CommitMode int

const (
	// ModeCreate creates the playlist, then adds every batch.
	ModeCreate CommitMode = iota
	// ModeReplace sets the playlist contents to the first batch, then
	// adds the rest.
	ModeReplace
	// ModeAppend adds every batch to the existing contents.
	ModeAppend
)

func (m CommitMode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeReplace:
		return "replace"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("CommitMode(%d)", int(m))
	}
}

// Mode derives the commit mode from the target resolution outcome. The
// resolver guarantees one of the three cases holds.
func Mode(created, allowReplace bool) CommitMode {
	switch {
	case created:
		return ModeCreate
	case allowReplace:
		return ModeReplace
	default:
		return ModeAppend
	}
}

// Writer materializes query results into the target playlist in
// sequential, ordered batches. A failed batch halts the remaining ones:
// the playlist stays partially written, which is accepted rather than
// hidden.
type Writer struct {
	svc       services.Service
	logger    *log.Logger
	batchSize int
}

// NewWriter creates a Writer over the remote write capability.
func NewWriter(svc services.Service, logger *log.Logger) *Writer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Writer{svc: svc, logger: logger, batchSize: BatchSize}
}

// Commit writes trackIDs into the target playlist. In ModeCreate the
// remote playlist is created first (the target carries the requested
// name and generated description) and the returned playlist replaces the
// placeholder. With dryRun set, no remote call is made at all.
func (w *Writer) Commit(ctx context.Context, user models.User, target models.Playlist, trackIDs []string, mode CommitMode, dryRun bool) (models.Playlist, error) {
	w.logger.Infof("going to add %d tracks to playlist %q (mode=%s)", len(trackIDs), target.Name, mode)

	if dryRun {
		if mode == ModeCreate {
			w.logger.Info("skipped creating playlist because of dry run")
		}
		w.logger.Info("not adding anything because dry run was requested")
		return target, nil
	}

	if mode == ModeCreate {
		created, err := w.svc.CreatePlaylist(ctx, user.ID, target.Name, target.Description)
		if err != nil {
			return target, fmt.Errorf("failed to create playlist %q: %w", target.Name, err)
		}
		w.logger.Infof("created playlist %q (id=%s)", created.Name, created.ID)
		target = *created
	}

	for i, batch := range chunked(trackIDs, w.batchSize) {
		var err error
		if i == 0 && mode == ModeReplace {
			err = w.svc.ReplaceTracks(ctx, user.ID, target.ID, batch)
		} else {
			err = w.svc.AddTracks(ctx, user.ID, target.ID, batch)
		}
		if err != nil {
			return target, fmt.Errorf("batch %d of %q failed, playlist is partially written: %w", i, target.Name, err)
		}
	}

	return target, nil
}

// chunked splits ids into consecutive batches of at most size elements.
func chunked(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
