// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/avolkov/spotman/internal/models"
)

// MockService is an in-memory test double for [services.Service]. Pages
// are pre-sliced by the configured page size; every remote call is
// counted so tests can assert on cache replay.
type MockService struct {
	User       models.User
	Playlists  []models.Playlist
	Tracks     map[string][]models.TrackEntry // playlist id -> entries
	Saved      []models.TrackEntry
	FetchCalls int

	CreateCalls  []CreateCall
	ReplaceCalls []WriteCall
	AddCalls     []WriteCall

	FetchErr   error
	CreateErr  error
	ReplaceErr error
	AddErr     error
}

// CreateCall records one CreatePlaylist invocation.
type CreateCall struct {
	OwnerID     string
	Name        string
	Description string
}

// WriteCall records one ReplaceTracks or AddTracks invocation.
type WriteCall struct {
	OwnerID    string
	PlaylistID string
	TrackIDs   []string
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	user := m.User
	return &user, nil
}

func (m *MockService) FetchPage(ctx context.Context, op models.Operation, subKey string, limit, offset int) (models.Page, error) {
	m.FetchCalls++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}

	switch op {
	case models.OpPlaylists:
		return slicePage(m.Playlists, limit, offset)
	case models.OpPlaylistTracks:
		entries, ok := m.Tracks[subKey]
		if !ok {
			return nil, fmt.Errorf("unknown playlist %q", subKey)
		}
		return slicePage(entries, limit, offset)
	case models.OpSavedTracks:
		return slicePage(m.Saved, limit, offset)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func (m *MockService) CreatePlaylist(ctx context.Context, ownerID, name, description string) (*models.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.CreateCalls = append(m.CreateCalls, CreateCall{OwnerID: ownerID, Name: name, Description: description})
	return &models.Playlist{
		ID:          fmt.Sprintf("created-%d", len(m.CreateCalls)),
		Name:        name,
		Description: description,
		Owner:       m.User,
	}, nil
}

func (m *MockService) ReplaceTracks(ctx context.Context, ownerID, playlistID string, trackIDs []string) error {
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.ReplaceCalls = append(m.ReplaceCalls, WriteCall{OwnerID: ownerID, PlaylistID: playlistID, TrackIDs: trackIDs})
	return nil
}

func (m *MockService) AddTracks(ctx context.Context, ownerID, playlistID string, trackIDs []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddCalls = append(m.AddCalls, WriteCall{OwnerID: ownerID, PlaylistID: playlistID, TrackIDs: trackIDs})
	return nil
}

func slicePage[T any](items []T, limit, offset int) (models.Page, error) {
	if offset >= len(items) {
		return models.Page{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	page := make(models.Page, 0, end-offset)
	for _, item := range items[offset:end] {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		page = append(page, raw)
	}
	return page, nil
}

// Entry builds a TrackEntry for a track with a single artist.
func Entry(trackID, name, artist string) models.TrackEntry {
	return models.TrackEntry{
		Track: models.Track{
			ID:      trackID,
			Name:    name,
			Artists: []models.Artist{{Name: artist}},
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

var _ io.Writer = (*FWriter)(nil)
