// Package hatch implements Stage H (Region Hatcher) and the region half of
// Stage S (Shrub Assigner & Mirror): seeding the residual plantable area
// from Stage A's shrub placements, segmenting it into contiguous regions by
// per-species influence dominance (Worley noise + shade + border fields),
// cleaning up undersized/empty regions, and mirror-symmetrising the result.
package hatch

import (
	"errors"
	"math"

	"github.com/jaywhisker/hdb-spatial-placement/internal/detseed"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/allocate"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/geom"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
)

// firstRegionLabel is the first label value handed to a species; labels
// below this are reserved for terrain/placement codes.
const firstRegionLabel = 4

// worleyPointCount is the fixed number of feature points in the shared noise
// heatmap every species' influence field radiates from.
const worleyPointCount = 20

// ErrNoShrubSpecies is returned when Stage A produced shrub coordinates but
// the palette carries no shrub species to label them with.
var ErrNoShrubSpecies = errors.New("hatch: no shrub species available to seed regions")

// Seed is a labelled hatching point, one per seeded shrub coordinate. Every
// seed sharing a label was cycled onto the same species.
type Seed struct {
	Coord grid.Coord
	Label int
}

// BorderLoving reports whether this seed's region prefers boundary-adjacent
// shrub species.
func (s Seed) BorderLoving() bool { return s.Label%3 == 0 }

// ShadeLoving reports whether this seed's region prefers shade-tolerant
// shrub species.
func (s Seed) ShadeLoving() bool { return s.Label%2 == 0 }

// Params configures region hatching.
type Params struct {
	// MinRegionSize is the minimum cell count a region may have after
	// cleanup; smaller regions are merged into their most common neighbour.
	MinRegionSize int
	// DominanceThreshold is the minimum influence-score gap between the
	// best and second-best species for a cell to be assigned outright; a
	// narrower gap is resolved by a uniform random draw between the two.
	DominanceThreshold float64
	// ShadeWeight/BorderWeight scale the shade/border field contributions
	// relative to the Worley noise term.
	ShadeWeight, BorderWeight float64
}

// DefaultParams returns sane region-hatching defaults.
func DefaultParams() Params {
	return Params{
		MinRegionSize:      50,
		DominanceThreshold: 0.1,
		ShadeWeight:        0.35,
		BorderWeight:       0.35,
	}
}

// Result is Stage H's output: the region label grid, the surviving seed
// list (empty regions are dropped from both), and the label -> species
// bijection used to assign shrub species.
type Result struct {
	Labels       *grid.LabelGrid
	Seeds        []Seed
	LabelSpecies map[int]palette.Record
	// Depth is the normalised distance-from-boundary field computed during
	// hatching, returned for callers that want to inspect it.
	Depth *geom.FieldF64
}

// Generate seeds the residual plantable mask from Stage A's shrub
// coordinates (the first ceil(0.8*N) of them, in placement order, cycling
// through the palette's shrub species), segments the mask by per-species
// influence dominance, and cleans up the resulting regions.
func Generate(filled [][]bool, shrubCoords []grid.Coord, shrubSpecies []palette.Record, trees []allocate.Placement, p Params, seeds detseed.Source) (Result, error) {
	if len(shrubSpecies) == 0 {
		return Result{}, ErrNoShrubSpecies
	}

	height := len(filled)
	width := 0
	if height > 0 {
		width = len(filled[0])
	}

	depth := boundaryDepthField(filled, width, height)
	rawBorder := rawBorderDistanceField(filled, width, height)
	maxBorder := maxFieldValue(rawBorder, width, height)

	labelSpecies := make(map[int]palette.Record, len(shrubSpecies))
	for i, sp := range shrubSpecies {
		labelSpecies[labelForSpecies(sp, i)] = sp
	}

	numSeeds := int(math.Ceil(0.8 * float64(len(shrubCoords))))
	if numSeeds > len(shrubCoords) {
		numSeeds = len(shrubCoords)
	}
	seedList := make([]Seed, numSeeds)
	for i := 0; i < numSeeds; i++ {
		sp := shrubSpecies[i%len(shrubSpecies)]
		seedList[i] = Seed{Coord: shrubCoords[i], Label: labelForSpecies(sp, i%len(shrubSpecies))}
	}

	noise := worleyNoiseField(width, height, seeds)
	canopy := canopyMask(filled, width, height, trees)

	labels := segment(width, height, filled, seedList, labelSpecies, noise, canopy, rawBorder, maxBorder, p, seeds)
	labels, seedList = cleanup(labels, seedList, p.MinRegionSize)

	return Result{Labels: labels, Seeds: seedList, LabelSpecies: labelSpecies, Depth: depth}, nil
}

// labelForSpecies derives a unique label >= firstRegionLabel for the
// index'th shrub species such that label%2==0 iff the species is
// shade-loving and label%3==0 iff the species is border-loving.
func labelForSpecies(species palette.Record, index int) int {
	r2 := 1
	if species.ShadeLoving() {
		r2 = 0
	}
	r3 := 1
	if species.BorderLoving() {
		r3 = 0
	}
	x := 0
	for x = 0; x < 6; x++ {
		if (firstRegionLabel+x)%2 == r2 && (firstRegionLabel+x)%3 == r3 {
			break
		}
	}
	return firstRegionLabel + 6*index + x
}

// boundaryDepthField normalises the Euclidean distance transform from the
// complement of filled (non-plantable cells) into [0, 1], where 1 is the
// point farthest from any boundary and 0 sits right against it.
func boundaryDepthField(filled [][]bool, width, height int) *geom.FieldF64 {
	dist := rawBorderDistanceField(filled, width, height)
	maxD := maxFieldValue(dist, width, height)
	if maxD == 0 {
		maxD = 1
	}
	out := geom.NewFieldF64(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			out.Set(row, col, dist.At(row, col)/maxD)
		}
	}
	return out
}

// rawBorderDistanceField is the un-normalised Euclidean distance transform
// from the complement of filled.
func rawBorderDistanceField(filled [][]bool, width, height int) *geom.FieldF64 {
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

func maxFieldValue(f *geom.FieldF64, width, height int) float64 {
	max := 0.0
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if v := f.At(row, col); v > max {
				max = v
			}
		}
	}
	return max
}

// worleyNoiseField builds the single shared Worley heatmap every species'
// influence field radiates from: 20 randomly placed feature points, with
// cell values remapped from the field's normalised [0,1] nearest-point
// distance into [40, 50] (closer to a feature point scores higher).
func worleyNoiseField(width, height int, seeds detseed.Source) *geom.FieldF64 {
	rnd := detseed.NewRand64(seeds.Sub("hatch.worley"))
	points := make([]geom.WorleyPoint, worleyPointCount)
	for i := range points {
		points[i] = geom.WorleyPoint{Row: rnd.Float64() * float64(height), Col: rnd.Float64() * float64(width)}
	}
	diag := math.Hypot(float64(width), float64(height))
	dist := geom.WorleyField(width, height, points, diag)

	out := geom.NewFieldF64(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			out.Set(row, col, 50-10*dist.At(row, col))
		}
	}
	return out
}

// canopyMask reports, for every cell, whether it falls within any placed
// tree's canopy radius.
func canopyMask(filled [][]bool, width, height int, trees []allocate.Placement) [][]bool {
	out := make([][]bool, height)
	for row := range out {
		out[row] = make([]bool, width)
	}
	for _, t := range trees {
		r := t.Species.CanopyRadius()
		if r <= 0 {
			continue
		}
		rowMin, rowMax := t.Coord.Row-int(r), t.Coord.Row+int(r)+1
		colMin, colMax := t.Coord.Col-int(r), t.Coord.Col+int(r)+1
		for row := rowMin; row < rowMax; row++ {
			if row < 0 || row >= height {
				continue
			}
			for col := colMin; col < colMax; col++ {
				if col < 0 || col >= width {
					continue
				}
				dr := float64(row - t.Coord.Row)
				dc := float64(col - t.Coord.Col)
				if math.Hypot(dr, dc) <= r {
					out[row][col] = true
				}
			}
		}
	}
	return out
}

// segment assigns every filled cell to the species with the highest
// combined influence score: the Worley-radiated noise term plus a
// shade-field term and a border-field term, each weighted by Params. Near
// ties (within DominanceThreshold) are resolved by a uniform random draw
// between the top two species, seeded from the shared seed source so
// assignment stays reproducible.
func segment(width, height int, filled [][]bool, seeds []Seed, labelSpecies map[int]palette.Record, noise *geom.FieldF64, canopy [][]bool, rawBorder *geom.FieldF64, maxBorder float64, p Params, seedSrc detseed.Source) *grid.LabelGrid {
	out := grid.NewLabelGrid(width, height)
	if len(seeds) == 0 {
		return out
	}

	seedsByLabel := map[int][]grid.Coord{}
	for _, s := range seeds {
		seedsByLabel[s.Label] = append(seedsByLabel[s.Label], s.Coord)
	}
	labels := make([]int, 0, len(seedsByLabel))
	for label := range seedsByLabel {
		labels = append(labels, label)
	}

	constantZone := 0.6 * maxBorder
	maxArea := 0.4 * maxBorder

	rnd := detseed.NewRand64(seedSrc.Sub("hatch.dominance"))

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if !filled[row][col] {
				continue
			}
			bestLabel, secondLabel := 0, 0
			bestScore, secondScore := math.Inf(-1), math.Inf(-1)

			for _, label := range labels {
				species := labelSpecies[label]
				score := influenceScore(row, col, seedsByLabel[label], noise)
				score += p.ShadeWeight * shadeScore(species, row, col, canopy)
				score += p.BorderWeight * borderScore(species, rawBorder.At(row, col), constantZone, maxArea)

				if score > bestScore {
					secondScore, secondLabel = bestScore, bestLabel
					bestScore, bestLabel = score, label
				} else if score > secondScore {
					secondScore, secondLabel = score, label
				}
			}

			chosen := bestLabel
			if secondLabel != 0 && bestScore-secondScore <= p.DominanceThreshold {
				if rnd.Float64() < 0.5 {
					chosen = secondLabel
				}
			}
			out.Set(row, col, chosen)
		}
	}
	return out
}

// influenceScore is max_s(noise[s]*exp(-0.1*dist(cell,s))) over a species'
// own seed coordinates.
func influenceScore(row, col int, seedCoords []grid.Coord, noise *geom.FieldF64) float64 {
	best := math.Inf(-1)
	for _, s := range seedCoords {
		dr := float64(row - s.Row)
		dc := float64(col - s.Col)
		dist := math.Hypot(dr, dc)
		score := noise.At(s.Row, s.Col) * math.Exp(-0.1*dist)
		if score > best {
			best = score
		}
	}
	return best
}

// shadeScore scores 100 when a shade-loving species' cell sits under a
// tree's canopy, or when a non-shade-loving species' cell sits outside
// every canopy; 0 otherwise.
func shadeScore(species palette.Record, row, col int, canopy [][]bool) float64 {
	under := canopy[row][col]
	if species.ShadeLoving() == under {
		return 100
	}
	return 0
}

// borderScore peaks near the boundary (within constantZone) for
// border-loving species, and within the interior maxArea band for
// non-border-loving species.
func borderScore(species palette.Record, borderDist, constantZone, maxArea float64) float64 {
	if species.BorderLoving() {
		if constantZone <= 0 {
			return 0
		}
		return 100 * clamp01(1-borderDist/constantZone)
	}
	if maxArea <= 0 {
		return 0
	}
	return 100 * clamp01(1-math.Abs(borderDist-maxArea)/maxArea)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// cleanup merges every connected component (found with
// grid.LabelGrid.ConnectedComponents rather than a hand-rolled flood fill)
// smaller than minSize, or whose label no seed carries, into its most common
// 4-connected neighbour label until stable, then drops every seed whose
// label no longer appears on the grid. The seed check is per label: a
// component of at least minSize cells is kept even when none of the seed
// coordinates lies inside it.
func cleanup(labels *grid.LabelGrid, seeds []Seed, minSize int) (*grid.LabelGrid, []Seed) {
	seedLabels := func() map[int]bool {
		m := make(map[int]bool, len(seeds))
		for _, s := range seeds {
			m[s.Label] = true
		}
		return m
	}

	changed := true
	for changed {
		changed = false
		haveSeed := seedLabels()
		for _, label := range labels.DistinctLabels() {
			comps := labels.ConnectedComponents(label)
			for _, comp := range comps {
				if len(comp) >= minSize && haveSeed[label] {
					continue
				}
				replacement := mostCommonNeighbourLabel(labels, comp)
				if replacement == 0 {
					continue
				}
				for _, c := range comp {
					labels.Set(c.Row, c.Col, replacement)
				}
				changed = true
			}
		}
	}

	survivors := labels.DistinctLabels()
	survivorSet := make(map[int]bool, len(survivors))
	for _, l := range survivors {
		survivorSet[l] = true
	}
	kept := make([]Seed, 0, len(seeds))
	for _, s := range seeds {
		if survivorSet[s.Label] {
			kept = append(kept, s)
		}
	}
	return labels, kept
}

func mostCommonNeighbourLabel(labels *grid.LabelGrid, comp []grid.Coord) int {
	inComp := make(map[grid.Coord]bool, len(comp))
	for _, c := range comp {
		inComp[c] = true
	}
	counts := map[int]int{}
	offsets := [4]grid.Coord{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}
	for _, c := range comp {
		for _, d := range offsets {
			n := grid.Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}
			if inComp[n] {
				continue
			}
			if !labels.InBoundsCoord(n) {
				continue
			}
			lbl := labels.At(n.Row, n.Col)
			if lbl == 0 {
				continue
			}
			counts[lbl]++
		}
	}
	best, bestCount := 0, 0
	for lbl, n := range counts {
		if n > bestCount {
			best, bestCount = lbl, n
		}
	}
	return best
}
