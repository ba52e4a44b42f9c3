// Package allocate implements Stage A (Type Allocator): it walks the terrain
// candidates in order, up to a step budget, and classifies each one Tree,
// Shrub, or None using a
// per-candidate embedding, a greedy scoring policy, a fixed tree-exclusion
// radius, and density shaping that steers the shrub:none ratio toward its
// targets as placement proceeds.
package allocate

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/geom"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
)

// ErrEmptyCandidateSet is returned when Stage A is asked to allocate over a
// terrain with no surviving planting candidates.
var ErrEmptyCandidateSet = errors.New("allocate: empty candidate set")

// ErrNoTreeSpecies is returned when the allocator classifies at least one
// candidate Tree but the palette carries no tree-like species to draw from.
var ErrNoTreeSpecies = errors.New("allocate: tree placements exist but palette has no tree species")

// Class is the 3-way classification a candidate receives.
type Class int

const (
	ClassNone Class = iota
	ClassTree
	ClassShrub
)

// Theme selects the reference field the embedding measures candidates
// against.
type Theme int

const (
	ThemeWalkway Theme = iota
	ThemeRoad
)

// Placement is a classified tree with its drawn species.
type Placement struct {
	Coord   grid.Coord
	Species palette.Record
}

// Embedding is the 9-scalar per-candidate feature vector: x, y,
// distance-from-reference, border-distance, remaining-plantable-tree-count,
// original-tree-score, current-tree-score, shrub-score, none-score.
type Embedding struct {
	X, Y                        float64
	DistanceFromReference       float64
	BorderDistance              float64
	RemainingPlantableTreeCount float64
	OriginalTreeScore           float64
	CurrentTreeScore            float64
	ShrubScore                  float64
	NoneScore                   float64
}

type candidate struct {
	coord grid.Coord

	referenceDistance   float64
	borderDistance      float64
	contourBucket       int
	borderContourBucket int
	nearCurve           bool

	originalTreeScore float64
	currentTreeScore  float64
	shrubScore        float64
	noneScore         float64

	treeForbidden bool
	placed        bool
	class         Class
}

// Options configures a Stage A run.
type Options struct {
	Theme Theme

	// TreeExclusionRadius is the fixed distance, independent of any species'
	// canopy radius, within which a placed tree forbids further trees.
	TreeExclusionRadius float64

	// Budget caps the number of candidates processed.
	Budget int

	TargetShrubDensity float64
	TargetNoneDensity  float64
}

// DefaultOptions returns the spec's default Stage A tuning.
func DefaultOptions() Options {
	return Options{
		Theme:               ThemeWalkway,
		TreeExclusionRadius: 50,
		Budget:              250,
		TargetShrubDensity:  0.65,
		TargetNoneDensity:   0.35,
	}
}

// Result is Stage A's output.
type Result struct {
	Trees       []Placement
	ShrubCoords []grid.Coord
	Embeddings  []Embedding
}

// Run classifies candidate coordinates, in order, as Tree, Shrub, or None.
// Only the first opts.Budget candidates are processed (all of them when
// Budget is zero or negative); the rest are left unclassified.
func Run(coords []grid.Coord, filled [][]bool, trees []palette.Record, opts Options, seeds detseed.Source) (Result, error) {
	if len(coords) == 0 {
		return Result{}, ErrEmptyCandidateSet
	}

	height := len(filled)
	width := 0
	if height > 0 {
		width = len(filled[0])
	}

	border := borderDistanceField(filled, width, height)
	reference := referenceDistanceField(coords, width, height, opts.Theme, border)

	cands := make([]*candidate, len(coords))
	minRef, maxRef := math.Inf(1), math.Inf(-1)
	for i, c := range coords {
		d := reference.At(c.Row, c.Col)
		if d < minRef {
			minRef = d
		}
		if d > maxRef {
			maxRef = d
		}
		cands[i] = &candidate{
			coord:             c,
			referenceDistance: d,
			borderDistance:    border.At(c.Row, c.Col),
		}
	}
	if math.IsInf(minRef, 1) {
		minRef, maxRef = 0, 0
	}
	threshold := 0.3*(maxRef-minRef) + minRef

	seen := map[[2]int][]int{}
	for i, c := range cands {
		c.contourBucket = contourBucket(c.referenceDistance)
		c.borderContourBucket = contourBucket(c.borderDistance)
		key := [2]int{c.contourBucket, int(math.Round(c.referenceDistance * 10))}
		seen[key] = append(seen[key], i)
	}
	for _, idxs := range seen {
		if len(idxs) == 1 {
			cands[idxs[0]].nearCurve = true
		}
	}

	for _, c := range cands {
		treeScore := -1.0
		if c.referenceDistance >= threshold {
			treeScore = 2
		}
		if c.nearCurve {
			treeScore = 3
		}

		shrubScore, noneScore := 2.0, 1.0
		switch opts.Theme {
		case ThemeRoad:
			if c.borderContourBucket <= 1 {
				shrubScore, noneScore = 0, 3
			} else if c.referenceDistance <= threshold {
				shrubScore = 3
			}
		case ThemeWalkway:
			if c.borderContourBucket <= 2 {
				shrubScore, noneScore = 3, 0
			}
		}

		c.originalTreeScore = treeScore
		c.currentTreeScore = treeScore
		c.shrubScore = shrubScore
		c.noneScore = noneScore
		c.treeForbidden = treeScore < 0
	}

	rnd := detseed.NewRand64(seeds.Sub("allocate.greedy"))

	budget := opts.Budget
	if budget <= 0 || budget > len(cands) {
		budget = len(cands)
	}

	treeCount, shrubCount, noneCount := 0, 0, 0
	remainingTreeEligible := func() int {
		n := 0
		for _, c := range cands {
			if !c.placed && !c.treeForbidden {
				n++
			}
		}
		return n
	}

	applyDensityShaping := func() {
		total := treeCount + shrubCount + noneCount
		if total == 0 {
			return
		}
		shrubDensity := float64(shrubCount) / float64(total)
		noneDensity := float64(noneCount) / float64(total)
		shrubMul := math.Pow(math.Exp(-(shrubDensity / opts.TargetShrubDensity)), 3)
		noneMul := math.Pow(math.Exp(-(noneDensity / opts.TargetNoneDensity)), 3)
		for _, c := range cands {
			if c.placed {
				continue
			}
			c.shrubScore *= shrubMul
			c.noneScore *= noneMul
		}
	}

	forbidTreesWithinRadius := func(center grid.Coord) {
		for _, c := range cands {
			if c.placed || c.treeForbidden {
				continue
			}
			dr := float64(c.coord.Row - center.Row)
			dc := float64(c.coord.Col - center.Col)
			if math.Hypot(dr, dc) <= opts.TreeExclusionRadius {
				c.treeForbidden = true
			}
		}
		remaining := float64(remainingTreeEligible())
		for _, c := range cands {
			if c.placed || c.treeForbidden {
				continue
			}
			c.currentTreeScore = c.originalTreeScore + math.Log1p(remaining)
		}
	}

	var result Result
	result.Embeddings = make([]Embedding, 0, len(cands))

	treeIdx := 0
	for step := 0; step < budget && step < len(cands); step++ {
		c := cands[step]

		best := ClassNone
		bestScore := c.noneScore
		if !c.treeForbidden && c.currentTreeScore > bestScore {
			best, bestScore = ClassTree, c.currentTreeScore
		}
		if c.shrubScore > bestScore {
			best = ClassShrub
		}
		// rnd reserved for future tie-breaking between equally-scored
		// classes; current scores are continuous enough that ties are rare.
		_ = rnd

		c.placed = true
		c.class = best

		switch best {
		case ClassTree:
			if len(trees) == 0 {
				return Result{}, ErrNoTreeSpecies
			}
			species := trees[treeIdx%len(trees)]
			treeIdx++
			result.Trees = append(result.Trees, Placement{Coord: c.coord, Species: species})
			treeCount++
			forbidTreesWithinRadius(c.coord)
		case ClassShrub:
			result.ShrubCoords = append(result.ShrubCoords, c.coord)
			shrubCount++
		case ClassNone:
			noneCount++
		}
		applyDensityShaping()

		result.Embeddings = append(result.Embeddings, Embedding{
			X: float64(c.coord.Col), Y: float64(c.coord.Row),
			DistanceFromReference:       c.referenceDistance,
			BorderDistance:              c.borderDistance,
			RemainingPlantableTreeCount: float64(remainingTreeEligible()),
			OriginalTreeScore:           c.originalTreeScore,
			CurrentTreeScore:            c.currentTreeScore,
			ShrubScore:                  c.shrubScore,
			NoneScore:                   c.noneScore,
		})
	}

	return result, nil
}

// NearestPlacedDistance is a small helper exposed for testing the
// tree-exclusion invariant: the distance from coord to the nearest placed
// tree, or +Inf if trees is empty.
func NearestPlacedDistance(coord grid.Coord, trees []Placement) float64 {
	if len(trees) == 0 {
		return math.Inf(1)
	}
	set := make(placedPoints, len(trees))
	for i, t := range trees {
		set[i] = placedPoint{row: float64(t.Coord.Row), col: float64(t.Coord.Col)}
	}
	tree := kdtree.New(set, false)
	_, distSq := tree.Nearest(placedPoint{row: float64(coord.Row), col: float64(coord.Col)})
	return math.Sqrt(distSq)
}

// contourBucket buckets a reference distance per spec §4.2: floor(d/5), with
// an extra +1 when the remainder past that bucket exceeds half a cell's
// worth of slack (d mod 5 > 2.5).
func contourBucket(d float64) int {
	bucket := math.Floor(d / 5)
	rem := math.Mod(d, 5)
	if rem > 2.5 {
		bucket++
	}
	return int(bucket)
}

// borderDistanceField is the Euclidean distance transform from the
// complement of filled, in raw cell units (not normalised), so contour
// bucketing operates on the same scale the spec's constants assume.
func borderDistanceField(filled [][]bool, width, height int) *geom.FieldF64 {
	outside := make([][]bool, height)
	for row := 0; row < height; row++ {
		outside[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			outside[row][col] = !filled[row][col]
		}
	}
	dist := geom.EuclideanDistanceTransform(width, height, outside)
	out := geom.NewFieldF64(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			out.Set(row, col, dist[row][col])
		}
	}
	return out
}

// referenceDistanceField picks the theme-dependent reference: Road measures
// distance from the candidate centroid, Walkway reuses the boundary distance
// transform.
func referenceDistanceField(coords []grid.Coord, width, height int, theme Theme, border *geom.FieldF64) *geom.FieldF64 {
	if theme == ThemeWalkway {
		return border
	}

	var sumRow, sumCol float64
	for _, c := range coords {
		sumRow += float64(c.Row)
		sumCol += float64(c.Col)
	}
	n := float64(len(coords))
	centreRow, centreCol := sumRow/n, sumCol/n

	out := geom.NewFieldF64(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			dr := float64(row) - centreRow
			dc := float64(col) - centreCol
			out.Set(row, col, math.Hypot(dr, dc))
		}
	}
	return out
}

// placedPoint is a 2D point satisfying kdtree.Comparable.
type placedPoint struct {
	row, col float64
}

func (p placedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(placedPoint)
	switch d {
	case 0:
		return p.row - q.row
	default:
		return p.col - q.col
	}
}

func (p placedPoint) Dims() int { return 2 }

func (p placedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(placedPoint)
	dr := p.row - q.row
	dc := p.col - q.col
	return dr*dr + dc*dc
}

// placedPoints implements kdtree.Interface over a slice of placedPoint.
type placedPoints []placedPoint

func (s placedPoints) Index(i int) kdtree.Comparable        { return s[i] }
func (s placedPoints) Len() int                              { return len(s) }
func (s placedPoints) Pivot(d kdtree.Dim) int                 { return kdtree.Partition(s, d) }
func (s placedPoints) Slice(start, end int) kdtree.Interface { return s[start:end] }
func (s placedPoints) Swap(i, j int)                          { s[i], s[j] = s[j], s[i] }
func (s placedPoints) Less(i, j int, d kdtree.Dim) bool {
	switch d {
	case 0:
		return s[i].row < s[j].row
	default:
		return s[i].col < s[j].col
	}
}
