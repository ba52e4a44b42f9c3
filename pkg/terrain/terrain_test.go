package terrain

import (
	"testing"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
)

func TestGenerateDeterministic(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 40, 40

	r1, err := Generate(p, detseed.New(42))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r2, err := Generate(p, detseed.New(42))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(r1.Coords) != len(r2.Coords) {
		t.Fatalf("same seed produced different coordinate counts: %d vs %d", len(r1.Coords), len(r2.Coords))
	}
	for i := range r1.Coords {
		if r1.Coords[i] != r2.Coords[i] {
			t.Fatalf("coordinate %d differs between identical-seed runs: %v vs %v", i, r1.Coords[i], r2.Coords[i])
		}
	}
}

func TestGeneratePaddedBoundaryUnplantable(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 30, 30
	p.PaddedBoundary = 3

	r, err := Generate(p, detseed.New(7))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for row := 0; row < p.PaddedBoundary; row++ {
		for col := 0; col < p.Width; col++ {
			if r.Planting[row][col] {
				t.Fatalf("padded row %d col %d should not be plantable", row, col)
			}
		}
	}
}

func TestMinimumSpacingRespected(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 60, 60
	p.MinSpacing = 5

	r, err := Generate(p, detseed.New(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for i := 0; i < len(r.Coords); i++ {
		for j := i + 1; j < len(r.Coords); j++ {
			dr := float64(r.Coords[i].Row - r.Coords[j].Row)
			dc := float64(r.Coords[i].Col - r.Coords[j].Col)
			d := dr*dr + dc*dc
			if d < p.MinSpacing*p.MinSpacing {
				t.Fatalf("coords %v and %v are closer than MinSpacing=%v", r.Coords[i], r.Coords[j], p.MinSpacing)
			}
		}
	}
}

func TestGenerateRejectsBadDimensions(t *testing.T) {
	p := DefaultParams()
	p.Width = 0
	if _, err := Generate(p, detseed.New(1)); err == nil {
		t.Fatalf("expected error for zero width")
	}
}
