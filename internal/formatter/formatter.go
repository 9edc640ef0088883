// package formatter renders playlists, tracks, and query results as plain text and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/avolkov/spotman/internal/models"
)

// PlaylistLine renders one playlist for console listings.
func PlaylistLine(p models.Playlist) string {
	line := fmt.Sprintf("%s  %s (%d tracks, owner=%s)", p.ID, p.Name, p.TrackCount(), p.Owner.ID)
	if p.Description != "" {
		line = fmt.Sprintf("%s: %s", line, p.Description)
	}
	return line
}

// TrackLine renders one track as "Artist - Name".
func TrackLine(t models.Track) string {
	return t.Display()
}

// AmbiguityReport renders the full candidate data for playlists whose
// name is not unique, so the user can pick an id.
func AmbiguityReport(token string, candidates []models.Playlist) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Candidates for %q playlist:\n", token)
	for _, candidate := range candidates {
		fmt.Fprintf(&buf, "  %s\n", PlaylistLine(candidate))
	}
	if len(candidates) > 0 {
		fmt.Fprintf(&buf, "If you identified the correct playlist then please use its id instead of the name, e.g. %s\n", candidates[len(candidates)-1].ID)
	}
	return buf.String()
}

// ResultToCSV converts a result track set to CSV with columns ID, Name,
// Artists. Rows follow the given id order.
func ResultToCSV(trackIDs []string, tracks map[string]models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Artists"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, id := range trackIDs {
		track, ok := tracks[id]
		if !ok {
			track = models.Track{ID: id}
		}
		record := []string{track.ID, track.Name, track.ArtistNames()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
