package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := sampleManifest("m1", "default", time.Now())
	if err := store.SaveManifest(ctx, input); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	input.Units[1].BranchSizes[0] = 99

	output, ok, err := store.GetManifest(ctx, "m1")
	if err != nil {
		t.Fatalf("get manifest: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted manifest")
	}
	if output.Units[1].BranchSizes[0] != 3 {
		t.Fatalf("store aliased caller memory: %+v", output.Units[1])
	}

	if err := store.DeleteManifest(ctx, "m1"); err != nil {
		t.Fatalf("delete manifest: %v", err)
	}
	if _, ok, err := store.GetManifest(ctx, "m1"); err != nil || ok {
		t.Fatalf("expected deleted manifest, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListManifests(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, m := range []struct {
		id, env string
		offset  time.Duration
	}{
		{"late", "default", 2 * time.Minute},
		{"early", "default", 0},
		{"other", "gridworld", time.Minute},
	} {
		if err := store.SaveManifest(ctx, sampleManifest(m.id, m.env, base.Add(m.offset))); err != nil {
			t.Fatalf("save %s: %v", m.id, err)
		}
	}

	all, err := store.ListManifests(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "early" || all[1].ID != "other" || all[2].ID != "late" {
		t.Fatalf("unexpected order: %v", manifestIDs(all))
	}

	filtered, err := store.ListManifests(ctx, "default")
	if err != nil {
		t.Fatalf("list default: %v", err)
	}
	if len(filtered) != 2 || filtered[0].ID != "early" || filtered[1].ID != "late" {
		t.Fatalf("unexpected filtered manifests: %v", manifestIDs(filtered))
	}
}

func TestMemoryStoreRejectsInvalidManifest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	stale := sampleManifest("m1", "default", time.Now())
	stale.CodecVersion = 0
	if err := store.SaveManifest(ctx, stale); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}

	broken := sampleManifest("m2", "default", time.Now())
	broken.NumContinuousActions = 7
	if err := store.SaveManifest(ctx, broken); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got: %v", err)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveManifest(context.Background(), sampleManifest("m1", "default", time.Now())); err == nil {
		t.Fatal("expected error before init")
	}
}
