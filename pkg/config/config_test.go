package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("grid_width: 200\nmin_region_size: 10\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GridWidth != 200 {
		t.Fatalf("expected GridWidth 200, got %d", cfg.GridWidth)
	}
	if cfg.MinRegionSize != 10 {
		t.Fatalf("expected MinRegionSize 10, got %d", cfg.MinRegionSize)
	}
	if cfg.GridHeight != DefaultConfig().GridHeight {
		t.Fatalf("expected untouched GridHeight to stay at default, got %d", cfg.GridHeight)
	}
}
