// Package config loads the pipeline's tunable knobs from an optional YAML
// file, layered underneath command-line flag overrides on top of
// DefaultConfig().
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every environment knob the §6 contract exposes as optional
// request fields or server-wide defaults.
type Config struct {
	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`

	MinSpacing     float64 `yaml:"min_spacing"`
	PaddedBoundary int     `yaml:"padded_boundary"`

	MinRegionSize      int     `yaml:"min_region_size"`
	DominanceThreshold float64 `yaml:"dominance_threshold"`

	// TreeExclusionRadius is the fixed distance a placed tree forbids
	// further trees within, independent of any species' canopy radius.
	TreeExclusionRadius float64 `yaml:"tree_exclusion_radius"`
	// AllocationBudget is the maximum number of Stage A candidates
	// processed per composition.
	AllocationBudget   int     `yaml:"allocation_budget"`
	TargetShrubDensity float64 `yaml:"target_shrub_density"`
	TargetNoneDensity  float64 `yaml:"target_none_density"`
}

// DefaultConfig returns the pipeline's built-in defaults.
func DefaultConfig() Config {
	return Config{
		GridWidth:           100,
		GridHeight:          100,
		MinSpacing:          10.0,
		PaddedBoundary:      5,
		MinRegionSize:       50,
		DominanceThreshold:  0.1,
		TreeExclusionRadius: 50,
		AllocationBudget:    250,
		TargetShrubDensity:  0.65,
		TargetNoneDensity:   0.35,
	}
}

// Load reads a YAML config file, starting from DefaultConfig and overriding
// only the fields present in the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
