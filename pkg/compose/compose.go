package compose

import (
	"fmt"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/allocate"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/hatch"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/terrain"
)

// compositionsPerRequest is the fixed number of independently seeded
// compositions returned per request.
const compositionsPerRequest = 3

// Generate runs the full T -> A -> H -> S -> O pipeline once for the given
// master seed and returns a single Composition.
func Generate(req Request, masterSeed int64, dataValue int) (Composition, error) {
	req = req.WithDefaults()
	pal := palette.New(req.Palette)
	seeds := detseed.New(masterSeed)

	tp := terrain.DefaultParams()
	tp.Width, tp.Height = req.GridWidth, req.GridHeight
	terrainResult, err := terrain.Generate(tp, seeds)
	if err != nil {
		return Composition{}, fmt.Errorf("compose: terrain stage: %w", err)
	}

	theme := allocate.ThemeWalkway
	if req.Surrounding == SurroundingRoad {
		theme = allocate.ThemeRoad
	}

	allocOpts := allocate.DefaultOptions()
	allocOpts.Theme = theme

	allocResult, err := allocate.Run(terrainResult.Coords, terrainResult.Filled, pal.Trees(), allocOpts, seeds)
	if err != nil && err != allocate.ErrEmptyCandidateSet {
		return Composition{}, fmt.Errorf("compose: allocate stage: %w", err)
	}

	residual := residualMask(terrainResult.Filled, allocResult.Trees)
	hatchResult, err := hatch.Generate(residual, allocResult.ShrubCoords, pal.Shrubs(), allocResult.Trees, hatch.DefaultParams(), seeds)
	if err != nil && err != hatch.ErrNoShrubSpecies {
		return Composition{}, fmt.Errorf("compose: hatch stage: %w", err)
	}

	labels := hatchResult.Labels
	finalSeeds := hatchResult.Seeds
	finalTrees := allocResult.Trees
	if req.Style == StyleManicured && labels != nil {
		mirrored := hatch.Mirror(labels, residual, finalSeeds, finalTrees)
		labels, finalSeeds, finalTrees = mirrored.Labels, mirrored.Seeds, mirrored.Trees
	}

	finalGrid, coordinates := encode(terrainResult, finalTrees, finalSeeds, hatchResult.LabelSpecies)

	return Composition{
		DataValue:          dataValue,
		Grid:               finalGrid,
		Coordinates:        coordinates,
		SurroundingContext: req.Surrounding,
	}, nil
}

// RunBatch validates req and, if valid, produces compositionsPerRequest
// independently seeded compositions, deriving each composition's master
// seed from the request seed so the whole batch stays reproducible.
func RunBatch(req Request) (Response, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	var resp Response
	for i := 0; i < compositionsPerRequest; i++ {
		sub := detseed.New(req.Seed).SubInt("compose.batch", i)
		comp, err := Generate(req, sub, i)
		if err != nil {
			return Response{}, fmt.Errorf("compose: composition %d: %w", i, err)
		}
		resp.Data = append(resp.Data, comp)
	}
	return resp, nil
}

// residualMask is the filled plantable area with every placed tree's canopy
// carved out, the area Stage H hatches into shrub regions.
func residualMask(filled [][]bool, trees []allocate.Placement) [][]bool {
	height := len(filled)
	width := 0
	if height > 0 {
		width = len(filled[0])
	}
	out := make([][]bool, height)
	for row := range out {
		out[row] = append([]bool(nil), filled[row]...)
	}
	for _, t := range trees {
		r := int(t.Species.CanopyRadius())
		for dr := -r; dr <= r; dr++ {
			for dc := -r; dc <= r; dc++ {
				nr, nc := t.Coord.Row+dr, t.Coord.Col+dc
				if nr < 0 || nr >= height || nc < 0 || nc >= width {
					continue
				}
				if dr*dr+dc*dc <= r*r {
					out[nr][nc] = false
				}
			}
		}
	}
	return out
}

// encode collapses the terrain grid, placed trees, and post-cleanup shrub
// seeds into the final 0/1/2/3-coded grid and the external coordinate ->
// species map the JSON contract exposes: every tree cell is marked
// grid.CodeTree, every shrub seed cell grid.CodeShrub, and the coordinates
// map gets exactly one entry per tree and one per shrub seed.
func encode(t terrain.Result, trees []allocate.Placement, seeds []hatch.Seed, labelSpecies map[int]palette.Record) ([][]int, map[string]string) {
	height := len(t.Filled)
	width := 0
	if height > 0 {
		width = len(t.Filled[0])
	}

	finalGrid := make([][]int, height)
	for row := range finalGrid {
		finalGrid[row] = make([]int, width)
		for col := 0; col < width; col++ {
			if t.Filled[row][col] {
				finalGrid[row][col] = grid.CodePlantable
			} else {
				finalGrid[row][col] = grid.CodeUnplantable
			}
		}
	}

	coordinates := map[string]string{}
	for _, tree := range trees {
		finalGrid[tree.Coord.Row][tree.Coord.Col] = grid.CodeTree
		coordinates[coordKey(tree.Coord.Row, tree.Coord.Col)] = tree.Species.ID()
	}

	for _, s := range seeds {
		species, ok := labelSpecies[s.Label]
		if !ok {
			continue
		}
		finalGrid[s.Coord.Row][s.Coord.Col] = grid.CodeShrub
		coordinates[coordKey(s.Coord.Row, s.Coord.Col)] = species.ID()
	}

	return finalGrid, coordinates
}
