package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/avolkov/spotman/internal/models"
	tu "github.com/avolkov/spotman/internal/testing"
)

func manyPlaylists(n int) []models.Playlist {
	playlists := make([]models.Playlist, 0, n)
	for i := range n {
		playlists = append(playlists, models.Playlist{
			ID:   fmt.Sprintf("p%03d", i),
			Name: fmt.Sprintf("Playlist %03d", i),
		})
	}
	return playlists
}

func drain(t *testing.T, stream *PageStream) []models.Page {
	t.Helper()
	var pages []models.Page
	for stream.Next() {
		pages = append(pages, stream.Page())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	return pages
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchPaginatesUntilEmptyPage", func(t *testing.T) {
		svc := &tu.MockService{Playlists: manyPlaylists(120)}
		cache := NewCache(svc, newTestStore(t), nil)

		pages := drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		if len(pages) != 3 {
			t.Fatalf("expected 3 pages of 50/50/20, got %d", len(pages))
		}
		if len(pages[0]) != 50 || len(pages[1]) != 50 || len(pages[2]) != 20 {
			t.Errorf("unexpected page sizes: %d, %d, %d", len(pages[0]), len(pages[1]), len(pages[2]))
		}
		// Two full pages, the partial third, plus the empty terminator.
		if svc.FetchCalls != 4 {
			t.Errorf("expected 4 fetch calls, got %d", svc.FetchCalls)
		}
	})

	t.Run("ExactPageBoundary", func(t *testing.T) {
		svc := &tu.MockService{Playlists: manyPlaylists(50)}
		cache := NewCache(svc, newTestStore(t), nil)

		pages := drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		if len(pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(pages))
		}
		if svc.FetchCalls != 2 {
			t.Errorf("expected 2 fetch calls, got %d", svc.FetchCalls)
		}
	})

	t.Run("CachedPagesReplayWithoutFetching", func(t *testing.T) {
		svc := &tu.MockService{Playlists: manyPlaylists(60)}
		st := newTestStore(t)
		cache := NewCache(svc, st, nil)

		first := drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		calls := svc.FetchCalls

		second := drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		if svc.FetchCalls != calls {
			t.Errorf("replay should not fetch, calls went %d -> %d", calls, svc.FetchCalls)
		}
		if len(second) != len(first) {
			t.Fatalf("replay returned %d pages, fetch returned %d", len(second), len(first))
		}
		for i := range first {
			if len(second[i]) != len(first[i]) {
				t.Errorf("page %d size mismatch: %d vs %d", i, len(second[i]), len(first[i]))
			}
		}
	})

	t.Run("ForceRefetches", func(t *testing.T) {
		svc := &tu.MockService{Playlists: manyPlaylists(10)}
		cache := NewCache(svc, newTestStore(t), nil)

		drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		calls := svc.FetchCalls

		drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", true))
		if svc.FetchCalls == calls {
			t.Error("force should bypass the cached pages")
		}
	})

	t.Run("CollectingBypassesReplay", func(t *testing.T) {
		svc := &tu.MockService{Playlists: manyPlaylists(10)}
		st := newTestStore(t)
		cache := NewCache(svc, st, nil)

		drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		calls := svc.FetchCalls

		st.MarkCollecting()
		drain(t, cache.FetchAll(ctx, models.OpPlaylists, "", false))
		if svc.FetchCalls == calls {
			t.Error("a collection pass should pull fresh data")
		}
	})

	t.Run("FetchErrorSurfacesThroughErr", func(t *testing.T) {
		fetchErr := errors.New("remote down")
		svc := &tu.MockService{Playlists: manyPlaylists(10), FetchErr: fetchErr}
		cache := NewCache(svc, newTestStore(t), nil)

		stream := cache.FetchAll(ctx, models.OpPlaylists, "", false)
		if stream.Next() {
			t.Error("Next should return false on a fetch error")
		}
		if !errors.Is(stream.Err(), fetchErr) {
			t.Errorf("expected fetch error, got %v", stream.Err())
		}
	})

	t.Run("FetchedPagesLandInStore", func(t *testing.T) {
		svc := &tu.MockService{Playlists: manyPlaylists(60)}
		st := newTestStore(t)
		cache := NewCache(svc, st, nil)

		stream := cache.FetchAll(ctx, models.OpPlaylists, "", false)
		drainPages := drain(t, stream)

		stored, ok := st.Pages(models.Key{Op: models.OpPlaylists})
		if !ok {
			t.Fatal("fetched pages should be appended to the snapshot")
		}
		if len(stored) != len(drainPages) {
			t.Errorf("store holds %d pages, stream yielded %d", len(stored), len(drainPages))
		}
		if got := stream.Pages(); len(got) != len(drainPages) {
			t.Errorf("Pages() reports %d pages, stream yielded %d", len(got), len(drainPages))
		}
	})
}
