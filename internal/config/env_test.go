package config

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreKind != "memory" {
		t.Fatalf("expected memory store default, got %q", cfg.StoreKind)
	}
	if cfg.DBPath != "actuation.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.SkipValidation {
		t.Fatal("expected validation enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ACTUATION_STORE", "sqlite")
	t.Setenv("ACTUATION_SKIP_VALIDATION", "true")
	t.Setenv("ACTUATION_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreKind != "sqlite" || !cfg.SkipValidation || cfg.LogFormat != "json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg Config
	t.Setenv("ACTUATION_SKIP_VALIDATION", "not-a-bool")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestExitf(t *testing.T) {
	if os.Getenv("ACTUATION_TEST_EXITF") == "1" {
		Exitf("layout failed: %d units", 3)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitf$")
	cmd.Env = append(os.Environ(), "ACTUATION_TEST_EXITF=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got: %v", err)
	}
	if !strings.Contains(stderr.String(), "layout failed: 3 units") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}
}
