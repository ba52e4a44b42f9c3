package hatch

import (
	"testing"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/geom"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
)

func sampleFilled(width, height, pad int) [][]bool {
	out := make([][]bool, height)
	for row := 0; row < height; row++ {
		out[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			out[row][col] = row >= pad && row < height-pad && col >= pad && col < width-pad
		}
	}
	return out
}

func sampleShrubSpecies() []palette.Record {
	return []palette.Record{
		{SpeciesID: "shrub-a", PlantType: "Shrub", LightPreference: "Full Sun", Hazard: "Thorns"},
		{SpeciesID: "shrub-b", PlantType: "Shrub", LightPreference: "Full Shade", Hazard: "-"},
		{SpeciesID: "shrub-c", PlantType: "Shrub", LightPreference: "Full Sun", Hazard: "-"},
	}
}

func sampleShrubCoords(width, height, pad int) []grid.Coord {
	var out []grid.Coord
	for row := pad; row < height-pad; row += 3 {
		for col := pad; col < width-pad; col += 3 {
			out = append(out, grid.Coord{Row: row, Col: col})
		}
	}
	return out
}

func TestGenerateDeterministic(t *testing.T) {
	filled := sampleFilled(50, 50, 3)
	coords := sampleShrubCoords(50, 50, 3)
	species := sampleShrubSpecies()
	p := DefaultParams()

	r1, err := Generate(filled, coords, species, nil, p, detseed.New(11))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r2, err := Generate(filled, coords, species, nil, p, detseed.New(11))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(r1.Seeds) != len(r2.Seeds) {
		t.Fatalf("seed count differs between identical-seed runs: %d vs %d", len(r1.Seeds), len(r2.Seeds))
	}
	for i := range r1.Seeds {
		if r1.Seeds[i] != r2.Seeds[i] {
			t.Fatalf("seed %d differs: %v vs %v", i, r1.Seeds[i], r2.Seeds[i])
		}
	}
	for row := 0; row < 50; row++ {
		for col := 0; col < 50; col++ {
			if r1.Labels.At(row, col) != r2.Labels.At(row, col) {
				t.Fatalf("label at (%d,%d) differs between identical-seed runs", row, col)
			}
		}
	}
}

func TestGenerateSeedsComeFromShrubCoords(t *testing.T) {
	filled := sampleFilled(50, 50, 3)
	coords := sampleShrubCoords(50, 50, 3)
	species := sampleShrubSpecies()

	r, err := Generate(filled, coords, species, nil, DefaultParams(), detseed.New(5))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	coordSet := make(map[grid.Coord]bool, len(coords))
	for _, c := range coords {
		coordSet[c] = true
	}
	for _, s := range r.Seeds {
		if !coordSet[s.Coord] {
			t.Fatalf("seed %v is not one of Stage A's shrub coordinates", s.Coord)
		}
	}
}

func TestGenerateNoUndersizedRegions(t *testing.T) {
	filled := sampleFilled(70, 70, 3)
	coords := sampleShrubCoords(70, 70, 3)
	species := sampleShrubSpecies()
	p := DefaultParams()
	p.MinRegionSize = 8

	r, err := Generate(filled, coords, species, nil, p, detseed.New(5))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, label := range r.Labels.DistinctLabels() {
		n := len(r.Labels.Cells(label))
		if n < p.MinRegionSize {
			t.Fatalf("region %d has only %d cells, below MinRegionSize %d", label, n, p.MinRegionSize)
		}
	}
}

func TestGenerateEveryLabelHasASurvivingSeed(t *testing.T) {
	filled := sampleFilled(50, 50, 3)
	coords := sampleShrubCoords(50, 50, 3)
	species := sampleShrubSpecies()

	r, err := Generate(filled, coords, species, nil, DefaultParams(), detseed.New(9))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	seedLabels := map[int]bool{}
	for _, s := range r.Seeds {
		seedLabels[s.Label] = true
	}
	for _, label := range r.Labels.DistinctLabels() {
		if !seedLabels[label] {
			t.Fatalf("label %d present on the grid has no surviving seed", label)
		}
	}
}

func TestGenerateNoShrubSpeciesErrors(t *testing.T) {
	filled := sampleFilled(50, 50, 3)
	coords := sampleShrubCoords(50, 50, 3)
	_, err := Generate(filled, coords, nil, nil, DefaultParams(), detseed.New(1))
	if err != ErrNoShrubSpecies {
		t.Fatalf("expected ErrNoShrubSpecies, got %v", err)
	}
}

func TestLabelForSpeciesEncodesAttributes(t *testing.T) {
	shadeBorder := palette.Record{LightPreference: "Full Shade", Hazard: "-"}
	sunHazard := palette.Record{LightPreference: "Full Sun", Hazard: "Thorns"}

	for i, sp := range []palette.Record{shadeBorder, sunHazard} {
		label := labelForSpecies(sp, i)
		if label < firstRegionLabel {
			t.Fatalf("label %d below firstRegionLabel %d", label, firstRegionLabel)
		}
		seed := Seed{Label: label}
		if seed.ShadeLoving() != sp.ShadeLoving() {
			t.Fatalf("label %d shade-loving encoding mismatch: got %v want %v", label, seed.ShadeLoving(), sp.ShadeLoving())
		}
		if seed.BorderLoving() != sp.BorderLoving() {
			t.Fatalf("label %d border-loving encoding mismatch: got %v want %v", label, seed.BorderLoving(), sp.BorderLoving())
		}
	}
}

func TestMirrorPicksLowerOrEqualScoreAxis(t *testing.T) {
	filled := sampleFilled(40, 40, 3)
	coords := sampleShrubCoords(40, 40, 3)
	species := sampleShrubSpecies()
	r, err := Generate(filled, coords, species, nil, DefaultParams(), detseed.New(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	result := Mirror(r.Labels, filled, r.Seeds, nil)
	if result.Labels == nil {
		t.Fatalf("expected non-nil mirrored labels")
	}
	if len(result.Seeds) < len(r.Seeds) {
		t.Fatalf("expected mirroring to retain all original seeds, got %d want at least %d", len(result.Seeds), len(r.Seeds))
	}
	if result.Axis == AxisNone {
		t.Fatalf("expected one of the candidate axes to be applied")
	}

	edges := geom.SobelEdges(40, 40, filled, 0.3)
	chosen := symmetryScore(r.Labels, filled, edges, applyAxis(r.Labels, result.Axis), applyAxisBool(filled, result.Axis))
	for _, axis := range []Axis{AxisHorizontal, AxisVertical, AxisDiagonalMain, AxisDiagonalAnti} {
		score := symmetryScore(r.Labels, filled, edges, applyAxis(r.Labels, axis), applyAxisBool(filled, axis))
		if chosen > score {
			t.Fatalf("chosen axis %v scores %v, worse than axis %v at %v", result.Axis, chosen, axis, score)
		}
	}
}
