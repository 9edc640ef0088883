package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avolkov/spotman/internal/shared"
)

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("NameAndIDResolveToTheSamePlaylist", func(t *testing.T) {
		r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

		byName, err := r.Resolve(ctx, "Rock")
		if err != nil {
			t.Fatalf("failed to resolve by name: %v", err)
		}
		byID, err := r.Resolve(ctx, "p1")
		if err != nil {
			t.Fatalf("failed to resolve by id: %v", err)
		}
		if byName.ID != byID.ID {
			t.Errorf("name and id resolved to different playlists: %s vs %s", byName.ID, byID.ID)
		}
	})

	t.Run("IDMatchWinsOverName", func(t *testing.T) {
		r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

		candidates, err := r.Lookup(ctx, "p2", false)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if len(candidates) != 1 {
			t.Fatalf("id lookup should yield exactly 1 candidate, got %d", len(candidates))
		}
		if candidates[0].Name != "Jazz" {
			t.Errorf("expected playlist Jazz, got %s", candidates[0].Name)
		}
	})

	t.Run("AmbiguousNameListsAllCandidates", func(t *testing.T) {
		r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

		_, err := r.Resolve(ctx, "Jazz")
		if err == nil {
			t.Fatal("resolving a duplicated name should fail")
		}

		var ambiguous *AmbiguousError
		if !errors.As(err, &ambiguous) {
			t.Fatalf("expected *AmbiguousError, got %T: %v", err, err)
		}
		if !errors.Is(err, shared.ErrAmbiguousPlaylist) {
			t.Error("ambiguous error should match shared.ErrAmbiguousPlaylist")
		}
		if len(ambiguous.Candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(ambiguous.Candidates))
		}

		ids := map[string]bool{}
		for _, candidate := range ambiguous.Candidates {
			ids[candidate.ID] = true
		}
		if !ids["p2"] || !ids["p3"] {
			t.Errorf("candidates should be p2 and p3, got %v", ids)
		}
	})

	t.Run("UnknownTokenIsNotFound", func(t *testing.T) {
		r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

		_, err := r.Resolve(ctx, "Polka")
		if err == nil {
			t.Fatal("resolving an unknown token should fail")
		}
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected shared.ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("ResolveTarget", func(t *testing.T) {
		t.Run("ExistingWithoutFlagsFails", func(t *testing.T) {
			r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

			_, _, err := r.ResolveTarget(ctx, "Rock", false, false)
			if !errors.Is(err, shared.ErrTargetExists) {
				t.Errorf("expected shared.ErrTargetExists, got %v", err)
			}
		})

		t.Run("ExistingWithReplaceFlag", func(t *testing.T) {
			r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

			target, created, err := r.ResolveTarget(ctx, "Rock", true, false)
			if err != nil {
				t.Fatalf("resolving with --allow-replace failed: %v", err)
			}
			if created {
				t.Error("an existing target should not be reported as created")
			}
			if target.ID != "p1" {
				t.Errorf("expected target p1, got %s", target.ID)
			}
		})

		t.Run("ExistingWithAppendFlag", func(t *testing.T) {
			r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

			target, created, err := r.ResolveTarget(ctx, "p1", false, true)
			if err != nil {
				t.Fatalf("resolving with --allow-append failed: %v", err)
			}
			if created || target.ID != "p1" {
				t.Errorf("expected existing p1, got created=%v id=%s", created, target.ID)
			}
		})

		t.Run("AmbiguousFailsRegardlessOfFlags", func(t *testing.T) {
			r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

			_, _, err := r.ResolveTarget(ctx, "Jazz", true, false)
			if !errors.Is(err, shared.ErrAmbiguousPlaylist) {
				t.Errorf("expected shared.ErrAmbiguousPlaylist, got %v", err)
			}
		})

		t.Run("MissingYieldsPlaceholder", func(t *testing.T) {
			r := NewResolver(New(newTestService(), newTestStore(t), nil), nil)

			target, created, err := r.ResolveTarget(ctx, "Brand New Mix", false, false)
			if err != nil {
				t.Fatalf("resolving a new target failed: %v", err)
			}
			if !created {
				t.Error("a new target should be reported as created")
			}
			if target.Name != "Brand New Mix" {
				t.Errorf("placeholder should carry the requested name, got %s", target.Name)
			}
			if !strings.HasPrefix(target.ID, "pending-") {
				t.Errorf("placeholder id should be pending-*, got %s", target.ID)
			}
		})
	})
}
