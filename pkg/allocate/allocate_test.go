package allocate

import (
	"testing"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
)

func sampleCoords() []grid.Coord {
	var out []grid.Coord
	for row := 0; row < 80; row += 2 {
		for col := 0; col < 80; col += 2 {
			out = append(out, grid.Coord{Row: row, Col: col})
		}
	}
	return out
}

func filledMask(width, height int) [][]bool {
	out := make([][]bool, height)
	for row := range out {
		out[row] = make([]bool, width)
		for col := range out[row] {
			out[row][col] = true
		}
	}
	return out
}

func sampleTrees() []palette.Record {
	return []palette.Record{
		{SpeciesID: "t1", PlantType: "Tree", CanopyRadiusRaw: 4.0},
		{SpeciesID: "t2", PlantType: "Palm", CanopyRadiusRaw: 3.0},
	}
}

func TestRunRespectsExclusionRadius(t *testing.T) {
	opts := DefaultOptions()
	opts.TreeExclusionRadius = 50
	res, err := Run(sampleCoords(), filledMask(80, 80), sampleTrees(), opts, detseed.New(1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < len(res.Trees); i++ {
		for j := i + 1; j < len(res.Trees); j++ {
			d := NearestPlacedDistance(res.Trees[j].Coord, res.Trees[i:i+1])
			if d < opts.TreeExclusionRadius {
				t.Fatalf("trees %v and %v violate the %.0f-cell exclusion radius (dist %.2f)",
					res.Trees[i].Coord, res.Trees[j].Coord, opts.TreeExclusionRadius, d)
			}
		}
	}
}

func TestRunEmptyCandidatesErrors(t *testing.T) {
	_, err := Run(nil, filledMask(10, 10), sampleTrees(), DefaultOptions(), detseed.New(1))
	if err != ErrEmptyCandidateSet {
		t.Fatalf("expected ErrEmptyCandidateSet, got %v", err)
	}
}

func TestRunNoTreeSpeciesErrors(t *testing.T) {
	_, err := Run(sampleCoords(), filledMask(80, 80), nil, DefaultOptions(), detseed.New(1))
	if err != ErrNoTreeSpecies {
		t.Fatalf("expected ErrNoTreeSpecies, got %v", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	run := func() Result {
		res, err := Run(sampleCoords(), filledMask(80, 80), sampleTrees(), DefaultOptions(), detseed.New(99))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if len(a.Trees) != len(b.Trees) || len(a.ShrubCoords) != len(b.ShrubCoords) {
		t.Fatalf("non-deterministic classification counts: trees %d/%d shrubs %d/%d",
			len(a.Trees), len(b.Trees), len(a.ShrubCoords), len(b.ShrubCoords))
	}
	for i := range a.Trees {
		if a.Trees[i] != b.Trees[i] {
			t.Fatalf("tree placement %d differs between runs: %v vs %v", i, a.Trees[i], b.Trees[i])
		}
	}
	for i := range a.ShrubCoords {
		if a.ShrubCoords[i] != b.ShrubCoords[i] {
			t.Fatalf("shrub coord %d differs between runs: %v vs %v", i, a.ShrubCoords[i], b.ShrubCoords[i])
		}
	}
}

func TestRunRespectsBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.Budget = 5
	res, err := Run(sampleCoords(), filledMask(80, 80), sampleTrees(), opts, detseed.New(5))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Embeddings) > 5 {
		t.Fatalf("expected at most 5 candidates processed, got %d", len(res.Embeddings))
	}
}

func TestRunProducesShrubAndNoneClassifications(t *testing.T) {
	res, err := Run(sampleCoords(), filledMask(80, 80), sampleTrees(), DefaultOptions(), detseed.New(7))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.ShrubCoords) == 0 {
		t.Fatalf("expected at least one shrub classification over a full plantable mask")
	}
	if none := len(res.Embeddings) - len(res.Trees) - len(res.ShrubCoords); none == 0 {
		t.Fatalf("expected at least one None classification over a full plantable mask")
	}
}
