//go:build sqlite

package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestLayoutSaveAndListSQLite(t *testing.T) {
	out := captureOutput(t)
	dbPath := filepath.Join(t.TempDir(), "actuation.db")
	base := []string{"-store", "sqlite", "-db-path", dbPath}

	layout := append([]string{"layout", "-save"}, base...)
	layout = append(layout, "-unit", "a=continuous:2", "-unit", "b=hybrid:1/3,2")
	if err := run(context.Background(), layout); err != nil {
		t.Fatalf("layout: %v", err)
	}
	header := strings.SplitN(out.String(), "\n", 2)[0]
	if !strings.Contains(header, "saved=true") {
		t.Fatalf("expected saved manifest: %s", header)
	}
	id := strings.TrimPrefix(strings.Fields(header)[0], "manifest=")

	out.Reset()
	if err := run(context.Background(), append([]string{"manifests"}, base...)); err != nil {
		t.Fatalf("manifests: %v", err)
	}
	if !strings.Contains(out.String(), "manifest="+id) || !strings.Contains(out.String(), "units=2 total=5") {
		t.Fatalf("unexpected manifests output:\n%s", out.String())
	}

	out.Reset()
	if err := run(context.Background(), append([]string{"manifests", "-delete", id}, base...)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out.Reset()
	if err := run(context.Background(), append([]string{"manifests"}, base...)); err != nil {
		t.Fatalf("manifests: %v", err)
	}
	if strings.TrimSpace(out.String()) != "no manifests found" {
		t.Fatalf("expected empty store after delete:\n%s", out.String())
	}
}
