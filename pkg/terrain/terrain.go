// Package terrain implements Stage T (Terrain Generator): a Perlin noise
// field dithered into a plantable mask, boundary extraction around the
// plantable blob, and a minimum-spacing filter over the dithered planting
// coordinates.
package terrain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/geom"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
)

// Params configures terrain generation.
type Params struct {
	Width, Height int

	// Octaves is the fBm octave count. Fractional roughness is expressed
	// via Lacunarity/Persistence below rather than a fractional octave
	// count, since the octave loop needs a whole number of passes.
	Octaves int

	// PaddedBoundary is the number of cells around every edge forced
	// unplantable.
	PaddedBoundary int

	// MinSpacing is the minimum Euclidean distance, in cells, required
	// between any two accepted planting coordinates.
	MinSpacing float64

	Lacunarity  float64
	Persistence float64
}

// DefaultParams returns sane defaults for a 100x100 plot.
func DefaultParams() Params {
	return Params{
		Width:          100,
		Height:         100,
		Octaves:        2,
		PaddedBoundary: 5,
		MinSpacing:     10.0,
		Lacunarity:     2.0,
		Persistence:    0.5,
	}
}

// Result is everything Stage T produces for the downstream Type Allocator.
type Result struct {
	// Boundary is the 1-cell outline of the plantable blob.
	Boundary [][]bool
	// Filled is the whole interior of the plantable blob (boundary + inside).
	Filled [][]bool
	// Planting marks the exact cells selected as planting candidates after
	// spacing filtering.
	Planting [][]bool
	// Coords is the same information as Planting, enumerated.
	Coords []grid.Coord
}

// Generate runs the full Stage T pipeline for the given sub-seed source.
func Generate(p Params, seeds detseed.Source) (Result, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return Result{}, fmt.Errorf("terrain: invalid grid size %dx%d", p.Width, p.Height)
	}
	if p.PaddedBoundary*2 >= p.Width || p.PaddedBoundary*2 >= p.Height {
		return Result{}, fmt.Errorf("terrain: padded boundary %d too large for grid %dx%d", p.PaddedBoundary, p.Width, p.Height)
	}

	noise := NewPerlin(seeds.Sub("terrain.perlin"))
	octaves := p.Octaves
	if octaves < 1 {
		octaves = 1
	}

	raw := make([][]float64, p.Height)
	for row := 0; row < p.Height; row++ {
		raw[row] = make([]float64, p.Width)
		for col := 0; col < p.Width; col++ {
			nx := float64(col) / float64(p.Width)
			ny := float64(row) / float64(p.Height)
			v := noise.OctaveNoise2D(nx, ny, octaves, p.Lacunarity, p.Persistence)
			// Remap roughly [-1,1] -> [0,1] to match a normalised field.
			raw[row][col] = (v + 1) / 2
		}
	}
	forcePaddedBoundary(raw, p.PaddedBoundary)

	dithered := geom.Dither(p.Width, p.Height, func(row, col int) float64 { return raw[row][col] })
	zeroPaddedBoundary(dithered, p.PaddedBoundary, p.Width, p.Height)

	boundary, filled := extractBoundary(raw, p.Width, p.Height)
	planting, coords := filterPlantingCoords(dithered, p.Width, p.Height, p.MinSpacing)

	return Result{Boundary: boundary, Filled: filled, Planting: planting, Coords: coords}, nil
}

func forcePaddedBoundary(field [][]float64, pad int) {
	height := len(field)
	if height == 0 {
		return
	}
	width := len(field[0])
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if row < pad || row >= height-pad || col < pad || col >= width-pad {
				field[row][col] = 1
			}
		}
	}
}

func zeroPaddedBoundary(mask [][]bool, pad, width, height int) {
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if row <= pad || row >= height-pad || col <= pad || col >= width-pad {
				mask[row][col] = false
			}
		}
	}
}

// extractBoundary thresholds the raw noise field at 0.5, takes the
// complement (the plantable blob is where noise <= 0.5, inverted because the
// source's cv2.bitwise_not flips white/black), grows it slightly to close
// small gaps (the dilate step), and returns both the 1-cell outline
// (boundary) and the filled interior (filled).
func extractBoundary(raw [][]float64, width, height int) (boundary, filled [][]bool) {
	thresh := make([][]bool, height)
	for row := 0; row < height; row++ {
		thresh[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			thresh[row][col] = raw[row][col] <= 0.5
		}
	}

	grown := dilate(thresh, width, height, 2)

	filled = grown
	boundary = make([][]bool, height)
	for row := 0; row < height; row++ {
		boundary[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			if !grown[row][col] {
				continue
			}
			if isEdgeOfBlob(grown, row, col, width, height) {
				boundary[row][col] = true
			}
		}
	}
	return boundary, filled
}

func isEdgeOfBlob(mask [][]bool, row, col, width, height int) bool {
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		nr, nc := row+d[0], col+d[1]
		if nr < 0 || nr >= height || nc < 0 || nc >= width {
			return true
		}
		if !mask[nr][nc] {
			return true
		}
	}
	return false
}

// dilate grows a boolean mask with a 3x3 structuring element for the given
// number of iterations, the Go equivalent of cv2.dilate(kernel, iterations).
func dilate(mask [][]bool, width, height, iterations int) [][]bool {
	cur := mask
	for it := 0; it < iterations; it++ {
		next := make([][]bool, height)
		for row := 0; row < height; row++ {
			next[row] = make([]bool, width)
			for col := 0; col < width; col++ {
				hit := false
				for kr := -1; kr <= 1 && !hit; kr++ {
					for kc := -1; kc <= 1; kc++ {
						nr, nc := row+kr, col+kc
						if nr < 0 || nr >= height || nc < 0 || nc >= width {
							continue
						}
						if cur[nr][nc] {
							hit = true
							break
						}
					}
				}
				next[row][col] = hit
			}
		}
		cur = next
	}
	return cur
}

// filterPlantingCoords removes dithered planting cells that are closer than
// minSpacing to an already-accepted cell, scanning in row-major order as a
// greedy "keep the first, drop the second" pass. Each cell is checked with a
// nearest-neighbour query on a k-d tree rebuilt over the cells accepted so
// far, instead of an O(n^2) distance matrix.
func filterPlantingCoords(dithered [][]bool, width, height int, minSpacing float64) ([][]bool, []grid.Coord) {
	out := make([][]bool, height)
	for row := range out {
		out[row] = make([]bool, width)
	}

	var accepted coordSet
	var coords []grid.Coord

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if !dithered[row][col] {
				continue
			}
			cand := coordPoint{row: float64(row), col: float64(col)}
			if len(accepted) > 0 {
				tree := kdtree.New(accepted, false)
				nearest, dist := tree.Nearest(cand)
				_ = nearest
				if math.Sqrt(dist) < minSpacing {
					continue
				}
			}
			accepted = append(accepted, cand)
			out[row][col] = true
			coords = append(coords, grid.Coord{Row: row, Col: col})
		}
	}
	return out, coords
}

// coordPoint is a 2D point satisfying kdtree.Comparable.
type coordPoint struct {
	row, col float64
}

func (p coordPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(coordPoint)
	switch d {
	case 0:
		return p.row - q.row
	default:
		return p.col - q.col
	}
}

func (p coordPoint) Dims() int { return 2 }

func (p coordPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(coordPoint)
	dr := p.row - q.row
	dc := p.col - q.col
	return dr*dr + dc*dc
}

// coordSet implements kdtree.Interface over a slice of coordPoint.
type coordSet []coordPoint

func (s coordSet) Index(i int) kdtree.Comparable { return s[i] }
func (s coordSet) Len() int                       { return len(s) }
func (s coordSet) Pivot(d kdtree.Dim) int          { return kdtree.Partition(s, d) }
func (s coordSet) Slice(start, end int) kdtree.Interface { return s[start:end] }

func (s coordSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s coordSet) Less(i, j int, d kdtree.Dim) bool {
	switch d {
	case 0:
		return s[i].row < s[j].row
	default:
		return s[i].col < s[j].col
	}
}
