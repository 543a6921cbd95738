//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "actuation.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := store.SaveManifest(ctx, sampleManifest("m2", "gridworld", base.Add(time.Minute))); err != nil {
		t.Fatalf("save m2: %v", err)
	}
	if err := store.SaveManifest(ctx, sampleManifest("m1", "default", base)); err != nil {
		t.Fatalf("save m1: %v", err)
	}

	loaded, ok, err := store.GetManifest(ctx, "m1")
	if err != nil {
		t.Fatalf("get manifest: %v", err)
	}
	if !ok {
		t.Fatal("expected manifest m1")
	}
	if len(loaded.Units) != 2 || loaded.Units[1].BranchSizes[1] != 2 || !loaded.CreatedAtUTC.Equal(base) {
		t.Fatalf("unexpected manifest loaded: %+v", loaded)
	}

	all, err := store.ListManifests(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "m1" || all[1].ID != "m2" {
		t.Fatalf("unexpected manifests: %v", manifestIDs(all))
	}
	filtered, err := store.ListManifests(ctx, "gridworld")
	if err != nil {
		t.Fatalf("list gridworld: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "m2" {
		t.Fatalf("unexpected filtered manifests: %v", manifestIDs(filtered))
	}

	if err := store.DeleteManifest(ctx, "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.GetManifest(ctx, "m1"); err != nil || ok {
		t.Fatalf("expected deleted manifest, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "actuation.db"))
	if _, _, err := store.GetManifest(context.Background(), "m1"); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "actuation.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
