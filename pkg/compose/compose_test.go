package compose

import (
	"fmt"
	"testing"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
)

func samplePalette() []palette.Record {
	return []palette.Record{
		{SpeciesID: "tree-1", PlantType: "Tree", CanopyRadiusRaw: 4.0},
		{SpeciesID: "palm-1", PlantType: "Palm", CanopyRadiusRaw: 3.0},
		{SpeciesID: "shrub-shade", PlantType: "Shrub", LightPreference: "Full Shade", Hazard: "Thorns"},
		{SpeciesID: "shrub-border", PlantType: "Shrub", LightPreference: "Full Sun", Hazard: "-"},
		{SpeciesID: "shrub-neutral", PlantType: "Shrub", LightPreference: "Full Sun", Hazard: "Thorns"},
	}
}

func TestRunBatchReturnsThreeCompositions(t *testing.T) {
	req := Request{Seed: 123, GridWidth: 50, GridHeight: 50, Palette: samplePalette()}
	resp, err := RunBatch(req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(resp.Data) != 3 {
		t.Fatalf("expected 3 compositions, got %d", len(resp.Data))
	}
	for i, c := range resp.Data {
		if c.DataValue != i {
			t.Fatalf("composition %d has DataValue %d", i, c.DataValue)
		}
		if len(c.Grid) != req.GridHeight {
			t.Fatalf("composition %d grid has %d rows, expected %d", i, len(c.Grid), req.GridHeight)
		}
	}
}

func TestRunBatchDeterministic(t *testing.T) {
	req := Request{Seed: 7, GridWidth: 40, GridHeight: 40, Palette: samplePalette()}
	r1, err := RunBatch(req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	r2, err := RunBatch(req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	for i := range r1.Data {
		a, b := r1.Data[i], r2.Data[i]
		if len(a.Coordinates) != len(b.Coordinates) {
			t.Fatalf("composition %d: coordinate count differs between identical-seed runs", i)
		}
		for k, v := range a.Coordinates {
			if b.Coordinates[k] != v {
				t.Fatalf("composition %d: coordinate %s differs: %s vs %s", i, k, v, b.Coordinates[k])
			}
		}
	}
}

func TestRunBatchRejectsSmallPalette(t *testing.T) {
	req := Request{Seed: 1, GridWidth: 40, GridHeight: 40, Palette: samplePalette()[:2]}
	if _, err := RunBatch(req); err == nil {
		t.Fatalf("expected an error for a palette with fewer than %d usable entries", minUsablePaletteEntries)
	}
}

func TestRunBatchRejectsUnknownStyle(t *testing.T) {
	req := Request{Seed: 1, GridWidth: 40, GridHeight: 40, Style: "Wildly Overgrown", Palette: samplePalette()}
	if _, err := RunBatch(req); err == nil {
		t.Fatalf("expected an error for an unrecognised style")
	}
}

func TestRequestWithDefaults(t *testing.T) {
	req := Request{}.WithDefaults()
	if req.GridWidth != 100 || req.GridHeight != 100 {
		t.Fatalf("expected default 100x100 grid, got %dx%d", req.GridWidth, req.GridHeight)
	}
	if req.Style != StyleDefault {
		t.Fatalf("expected default style %v, got %v", StyleDefault, req.Style)
	}
	if req.Surrounding != SurroundingDefault {
		t.Fatalf("expected default surrounding %v, got %v", SurroundingDefault, req.Surrounding)
	}
}

func TestCompositionCoordinateKeysUseYXFormat(t *testing.T) {
	req := Request{Seed: 42, GridWidth: 40, GridHeight: 40, Palette: samplePalette()}
	resp, err := RunBatch(req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	comp := resp.Data[0]
	for key := range comp.Coordinates {
		if len(key) < 2 || key[0] != '(' || key[len(key)-1] != ')' {
			t.Fatalf("coordinate key %q is not in \"(y, x)\" format", key)
		}
		var y, x int
		if _, err := fmt.Sscanf(key, "(%d, %d)", &y, &x); err != nil {
			t.Fatalf("coordinate key %q is not in \"(y, x)\" format: %v", key, err)
		}
		if code := comp.Grid[y][x]; code != 2 && code != 3 {
			t.Fatalf("coordinate key %q points at grid[y][x] = %d, expected a tree (2) or shrub (3) cell", key, code)
		}
	}
}
