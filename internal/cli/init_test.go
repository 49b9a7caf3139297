package cli

import (
	"context"
	"path/filepath"
	"testing"

	"baedal/internal/backend"
)

func TestBootstrapAndOpenBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_FILE", filepath.Join(dir, "entries.json"))
	t.Setenv("LOG_LEVEL", "error")

	cfg, logger, err := Bootstrap("test")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if logger.Component() != "test" {
		t.Errorf("Component() = %s", logger.Component())
	}

	res, err := OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	defer res.Cleanup()
	if res.Type != backend.FileBackend {
		t.Errorf("Type = %s", res.Type)
	}
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "carrier-pigeon")
	if _, _, err := Bootstrap("test"); err == nil {
		t.Error("Bootstrap() accepted an unknown backend")
	}
}
