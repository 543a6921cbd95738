package storage

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestDecodeManifestFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("minimal_manifest_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	manifest, err := DecodeManifest(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if manifest.ID != "manifest-minimal-1" || manifest.Environment != "default" {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	b, ok := manifest.Unit("b")
	if !ok {
		t.Fatal("expected unit b")
	}
	if b.ContinuousOffset != 2 || b.DiscreteOffset != 0 || len(b.BranchSizes) != 2 || b.BranchSizes[0] != 3 {
		t.Fatalf("unexpected unit b: %+v", b)
	}
}

func TestEncodeDecodeManifest(t *testing.T) {
	in := sampleManifest("m1", "default", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	data, err := EncodeManifest(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeManifest(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || !out.CreatedAtUTC.Equal(in.CreatedAtUTC) || len(out.Units) != 2 {
		t.Fatalf("unexpected manifest: %+v", out)
	}
}

func TestDecodeManifestVersionMismatch(t *testing.T) {
	data := []byte(`{"schema_version":2,"codec_version":1,"id":"m1"}`)
	if _, err := DecodeManifest(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestEncodeManifestRejectsBrokenLayout(t *testing.T) {
	now := time.Now()

	missingID := sampleManifest("", "default", now)
	if _, err := EncodeManifest(missingID); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest for missing id, got: %v", err)
	}

	gap := sampleManifest("m1", "default", now)
	gap.Units[1].ContinuousOffset = 3
	if _, err := EncodeManifest(gap); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest for offset gap, got: %v", err)
	}

	totals := sampleManifest("m1", "default", now)
	totals.SumOfDiscreteBranchSizes = 4
	if _, err := EncodeManifest(totals); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest for totals, got: %v", err)
	}

	branches := sampleManifest("m1", "default", now)
	branches.Units[1].BranchSizes = []int{5}
	if _, err := EncodeManifest(branches); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest for branch count, got: %v", err)
	}
}
