package hatch

import (
	"math"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/allocate"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/geom"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
)

// Axis identifies one of the four candidate mirror axes evaluated during
// symmetrisation.
type Axis int

const (
	AxisNone Axis = iota
	AxisHorizontal
	AxisVertical
	AxisDiagonalMain
	AxisDiagonalAnti
)

// MirrorResult reports which axis (if any) was applied, the resulting
// label grid, and the seed/tree lists after reflection: every seed or tree
// on the axis's kept half is duplicated onto its mirrored counterpart, with
// all originals retained.
type MirrorResult struct {
	Axis   Axis
	Labels *grid.LabelGrid
	Seeds  []Seed
	Trees  []allocate.Placement
}

// Mirror evaluates the four axis candidates (skipping the two diagonals on
// non-square grids) and applies whichever axis changes the fewest plantable
// and edge cells relative to the original, using a weighted symmetry score
// (0.7 plantable Hamming diff + 0.3 edge Hamming diff, lower is better).
// Callers gate this to the Manicured style; Mirror itself always runs.
func Mirror(labels *grid.LabelGrid, filled [][]bool, seeds []Seed, trees []allocate.Placement) MirrorResult {
	width, height := labels.Width, labels.Height
	edges := geom.SobelEdges(width, height, filled, 0.3)

	candidates := []Axis{AxisHorizontal, AxisVertical}
	if width == height {
		candidates = append(candidates, AxisDiagonalMain, AxisDiagonalAnti)
	}

	bestAxis := AxisNone
	bestLabels := labels
	bestScore := math.Inf(1)

	for _, axis := range candidates {
		mirrored := applyAxis(labels, axis)
		mirroredFilled := applyAxisBool(filled, axis)
		score := symmetryScore(labels, filled, edges, mirrored, mirroredFilled)
		if score < bestScore {
			bestScore = score
			bestAxis = axis
			bestLabels = mirrored
		}
	}

	if bestAxis == AxisNone {
		return MirrorResult{Axis: AxisNone, Labels: labels, Seeds: seeds, Trees: trees}
	}

	return MirrorResult{
		Axis:   bestAxis,
		Labels: bestLabels,
		Seeds:  reflectSeeds(seeds, width, height, bestAxis),
		Trees:  reflectTrees(trees, width, height, bestAxis),
	}
}

// reflectSeeds duplicates every seed on the axis's kept half onto its
// mirrored counterpart, retaining every original seed unchanged.
func reflectSeeds(seeds []Seed, width, height int, axis Axis) []Seed {
	out := append([]Seed(nil), seeds...)
	present := make(map[grid.Coord]bool, len(seeds))
	for _, s := range seeds {
		present[s.Coord] = true
	}
	for _, s := range seeds {
		if !onKeptHalf(s.Coord.Row, s.Coord.Col, width, height, axis) {
			continue
		}
		rr, cc := reflect(s.Coord.Row, s.Coord.Col, width, height, axis)
		refl := grid.Coord{Row: rr, Col: cc}
		if refl == s.Coord || present[refl] {
			continue
		}
		if rr < 0 || rr >= height || cc < 0 || cc >= width {
			continue
		}
		out = append(out, Seed{Coord: refl, Label: s.Label})
		present[refl] = true
	}
	return out
}

// reflectTrees mirrors reflectSeeds' duplication rule over tree placements.
func reflectTrees(trees []allocate.Placement, width, height int, axis Axis) []allocate.Placement {
	out := append([]allocate.Placement(nil), trees...)
	present := make(map[grid.Coord]bool, len(trees))
	for _, t := range trees {
		present[t.Coord] = true
	}
	for _, t := range trees {
		if !onKeptHalf(t.Coord.Row, t.Coord.Col, width, height, axis) {
			continue
		}
		rr, cc := reflect(t.Coord.Row, t.Coord.Col, width, height, axis)
		refl := grid.Coord{Row: rr, Col: cc}
		if refl == t.Coord || present[refl] {
			continue
		}
		if rr < 0 || rr >= height || cc < 0 || cc >= width {
			continue
		}
		out = append(out, allocate.Placement{Coord: refl, Species: t.Species})
		present[refl] = true
	}
	return out
}

// onKeptHalf reports whether (row, col) lies on the half of the grid that
// applyAxis treats as the unmodified source for axis.
func onKeptHalf(row, col, width, height int, axis Axis) bool {
	sr, sc := sourceCell(row, col, width, height, axis)
	return sr == row && sc == col
}

// reflect maps (row, col) to its mirror counterpart across axis; applying it
// twice returns the original coordinate.
func reflect(row, col, width, height int, axis Axis) (int, int) {
	switch axis {
	case AxisHorizontal:
		return height - 1 - row, col
	case AxisVertical:
		return row, width - 1 - col
	case AxisDiagonalMain:
		return col, row
	case AxisDiagonalAnti:
		n := width - 1
		return n - col, n - row
	default:
		return row, col
	}
}

// symmetryScore computes the weighted Hamming-distance score between the
// original (labels/filled/edges) and a candidate mirrored grid.
func symmetryScore(orig *grid.LabelGrid, origFilled [][]bool, origEdges [][]bool, cand *grid.LabelGrid, candFilled [][]bool) float64 {
	width, height := orig.Width, orig.Height
	candEdges := geom.SobelEdges(width, height, candFilled, 0.3)

	plantableDiff, edgeDiff := 0, 0
	total := width * height
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if origFilled[row][col] != candFilled[row][col] {
				plantableDiff++
			}
			if origEdges[row][col] != candEdges[row][col] {
				edgeDiff++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return 0.7*float64(plantableDiff)/float64(total) + 0.3*float64(edgeDiff)/float64(total)
}

// applyAxis reflects one half of labels onto the other across axis,
// producing a fully symmetric label grid: the source half keeps its labels,
// the mirrored half is overwritten with the reflection.
func applyAxis(labels *grid.LabelGrid, axis Axis) *grid.LabelGrid {
	width, height := labels.Width, labels.Height
	out := grid.NewLabelGrid(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			sr, sc := sourceCell(row, col, width, height, axis)
			out.Set(row, col, labels.At(sr, sc))
		}
	}
	return out
}

func applyAxisBool(mask [][]bool, axis Axis) [][]bool {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}
	out := make([][]bool, height)
	for row := 0; row < height; row++ {
		out[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			sr, sc := sourceCell(row, col, width, height, axis)
			out[row][col] = mask[sr][sc]
		}
	}
	return out
}

// sourceCell maps (row, col) to the cell it should copy from on the "kept"
// half of the grid for the given axis. Cells already on the kept half map to
// themselves.
func sourceCell(row, col, width, height int, axis Axis) (int, int) {
	switch axis {
	case AxisHorizontal:
		// Keep the top half, reflect it onto the bottom half.
		if row < height/2 {
			return row, col
		}
		return height - 1 - row, col
	case AxisVertical:
		// Keep the left half, reflect it onto the right half.
		if col < width/2 {
			return row, col
		}
		return row, width - 1 - col
	case AxisDiagonalMain:
		// Keep the lower triangle (row >= col), reflect across the main
		// diagonal.
		if row >= col {
			return row, col
		}
		return col, row
	case AxisDiagonalAnti:
		// Keep the triangle below the anti-diagonal, reflect across it.
		n := width - 1
		if row+col <= n {
			return row, col
		}
		return n - col, n - row
	default:
		return row, col
	}
}
