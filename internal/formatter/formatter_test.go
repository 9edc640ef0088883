package formatter

import (
	"strings"
	"testing"

	"github.com/avolkov/spotman/internal/models"
)

func TestPlaylistLine(t *testing.T) {
	t.Run("WithoutDescription", func(t *testing.T) {
		line := PlaylistLine(models.Playlist{ID: "p1", Name: "Rock", Owner: models.User{ID: "user1"}})
		if !strings.Contains(line, "p1") || !strings.Contains(line, "Rock") {
			t.Errorf("line should name the id and the playlist: %s", line)
		}
		if !strings.Contains(line, "owner=user1") {
			t.Errorf("line should name the owner: %s", line)
		}
	})

	t.Run("WithDescription", func(t *testing.T) {
		line := PlaylistLine(models.Playlist{ID: "p1", Name: "Rock", Description: "loud stuff"})
		if !strings.Contains(line, "loud stuff") {
			t.Errorf("line should carry the description: %s", line)
		}
	})
}

func TestTrackLine(t *testing.T) {
	track := models.Track{ID: "t1", Name: "Song", Artists: []models.Artist{{Name: "Artist"}}}
	if got := TrackLine(track); got != "Artist - Song" {
		t.Errorf("expected Artist - Song, got %s", got)
	}

	if got := TrackLine(models.Track{ID: "t2", Name: "Orphan"}); got != "Orphan" {
		t.Errorf("artistless track should render as bare name, got %s", got)
	}
}

func TestAmbiguityReport(t *testing.T) {
	candidates := []models.Playlist{
		{ID: "p2", Name: "Jazz"},
		{ID: "p3", Name: "Jazz", Description: "the other one"},
	}

	report := AmbiguityReport("Jazz", candidates)
	for _, want := range []string{"p2", "p3", "the other one"} {
		if !strings.Contains(report, want) {
			t.Errorf("report should contain %q:\n%s", want, report)
		}
	}
	if !strings.Contains(report, "use its id instead") {
		t.Errorf("report should suggest retrying with an id:\n%s", report)
	}
	if !strings.Contains(report, "e.g. p3") {
		t.Errorf("report should give a concrete id example:\n%s", report)
	}
}

func TestResultToCSV(t *testing.T) {
	tracks := map[string]models.Track{
		"t1": {ID: "t1", Name: "One", Artists: []models.Artist{{Name: "X"}, {Name: "Y"}}},
		"t2": {ID: "t2", Name: "Two", Artists: []models.Artist{{Name: "Z"}}},
	}

	data, err := ResultToCSV([]string{"t2", "t1", "t9"}, tracks)
	if err != nil {
		t.Fatalf("CSV export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "ID,Name,Artists" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "t2,") {
		t.Errorf("rows should follow the given id order, got %s first", lines[1])
	}
	if !strings.Contains(lines[2], `"X, Y"`) {
		t.Errorf("multiple artists should be joined in one quoted field, got %s", lines[2])
	}
	if !strings.HasPrefix(lines[3], "t9,") {
		t.Errorf("unknown ids should still produce a row, got %s", lines[3])
	}
}
