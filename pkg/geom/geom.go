// Package geom implements the 2D image-processing primitives the pipeline
// needs: ordered (Bayer) dithering, Worley/cellular noise, an exact
// Euclidean distance transform, and a lightweight Canny-style edge mask.
// Each is a small, well-understood algorithm implemented directly against
// the standard library; see DESIGN.md for why no third-party library
// covers these.
package geom

import "math"

// bayer4 is the normalised 4x4 ordered-dithering threshold matrix.
var bayer4 = [4][4]float64{
	{0 / 16.0, 8 / 16.0, 2 / 16.0, 10 / 16.0},
	{12 / 16.0, 4 / 16.0, 14 / 16.0, 6 / 16.0},
	{3 / 16.0, 11 / 16.0, 1 / 16.0, 9 / 16.0},
	{15 / 16.0, 7 / 16.0, 13 / 16.0, 5 / 16.0},
}

// Dither applies 4x4 ordered (Bayer) dithering to a normalised [0,1] field,
// returning true for cells whose value exceeds the tiled threshold.
func Dither(width, height int, at func(row, col int) float64) [][]bool {
	out := make([][]bool, height)
	for row := 0; row < height; row++ {
		out[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			threshold := bayer4[row%4][col%4]
			out[row][col] = at(row, col) > threshold
		}
	}
	return out
}

// EuclideanDistanceTransform computes, for every cell, the Euclidean distance
// to the nearest cell where mask is true (mask values act as "feature"
// cells). Implemented as a two-pass approach: exact brute force is O(n^2)
// over feature cells, so instead we run the standard two-pass
// squared-distance relaxation (Felzenszwalt-style per-row then per-column
// 1D transform) to stay near O(n) per dimension.
func EuclideanDistanceTransform(width, height int, mask [][]bool) [][]float64 {
	const inf = 1e18
	g := make([][]float64, height)
	for row := 0; row < height; row++ {
		g[row] = make([]float64, width)
		for col := 0; col < width; col++ {
			if mask[row][col] {
				g[row][col] = 0
			} else {
				g[row][col] = inf
			}
		}
	}

	// Pass 1: column-wise 1D transform.
	for col := 0; col < width; col++ {
		column := make([]float64, height)
		for row := 0; row < height; row++ {
			column[row] = g[row][col]
		}
		column = distTransform1D(column)
		for row := 0; row < height; row++ {
			g[row][col] = column[row]
		}
	}

	// Pass 2: row-wise 1D transform over the column-transformed squared
	// distances.
	for row := 0; row < height; row++ {
		g[row] = distTransform1D(g[row])
	}

	out := make([][]float64, height)
	for row := 0; row < height; row++ {
		out[row] = make([]float64, width)
		for col := 0; col < width; col++ {
			out[row][col] = math.Sqrt(g[row][col])
		}
	}
	return out
}

// distTransform1D is Felzenszwalt & Huttenlocher's exact 1D squared-distance
// transform, the standard building block for a 2D EDT via two 1D passes.
func distTransform1D(f []float64) []float64 {
	n := len(f)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)
	k := 0
	v[0] = 0
	z[0] = -1e20
	z[1] = 1e20

	sq := func(i int) float64 { return f[i] + float64(i*i) }

	for q := 1; q < n; q++ {
		for {
			s := ((sq(q)) - (sq(v[k]))) / float64(2*(q-v[k]))
			if s <= z[k] {
				k--
				if k < 0 {
					break
				}
				continue
			}
			break
		}
		k++
		v[k] = q
		s := ((sq(q)) - (sq(v[k-1]))) / float64(2*(q-v[k-1]))
		z[k] = s
		z[k+1] = 1e20
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		d[q] = float64((q-v[k])*(q-v[k])) + f[v[k]]
	}
	return d
}

// WorleyPoint is a single feature point used by Worley (cellular) noise.
type WorleyPoint struct {
	Row, Col float64
}

// WorleyField computes, for every grid cell, the Euclidean distance to the
// nearest feature point, normalised to [0, 1] by maxDist. Used to build the
// per-species heatmaps the region hatcher radiates outward from seed cells.
func WorleyField(width, height int, points []WorleyPoint, maxDist float64) *FieldF64 {
	out := NewFieldF64(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			best := math.MaxFloat64
			for _, p := range points {
				dr := float64(row) - p.Row
				dc := float64(col) - p.Col
				d := math.Hypot(dr, dc)
				if d < best {
					best = d
				}
			}
			v := best / maxDist
			if v > 1 {
				v = 1
			}
			out.Set(row, col, v)
		}
	}
	return out
}

// FieldF64 is a minimal width/height float64 grid, kept local to pkg/geom so
// this package has no dependency on pkg/grid (geom is lower-level and used
// by both terrain and hatch).
type FieldF64 struct {
	Width, Height int
	Values        []float64
}

// NewFieldF64 allocates a zeroed field.
func NewFieldF64(width, height int) *FieldF64 {
	return &FieldF64{Width: width, Height: height, Values: make([]float64, width*height)}
}

func (f *FieldF64) index(row, col int) int { return row*f.Width + col }

// At returns the value at (row, col).
func (f *FieldF64) At(row, col int) float64 { return f.Values[f.index(row, col)] }

// Set stores v at (row, col).
func (f *FieldF64) Set(row, col int, v float64) { f.Values[f.index(row, col)] = v }

// SobelEdges computes a lightweight Canny-style edge mask: Sobel gradient
// magnitude thresholded against a fraction of the observed maximum, standing
// in for cv2.Canny on a binary plantable/boundary mask.
func SobelEdges(width, height int, mask [][]bool, thresholdFrac float64) [][]bool {
	val := func(row, col int) float64 {
		if row < 0 || row >= height || col < 0 || col >= width {
			return 0
		}
		if mask[row][col] {
			return 1
		}
		return 0
	}

	gx := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	mag := make([][]float64, height)
	maxMag := 0.0
	for row := 0; row < height; row++ {
		mag[row] = make([]float64, width)
		for col := 0; col < width; col++ {
			var sx, sy float64
			for kr := -1; kr <= 1; kr++ {
				for kc := -1; kc <= 1; kc++ {
					v := val(row+kr, col+kc)
					sx += v * gx[kr+1][kc+1]
					sy += v * gy[kr+1][kc+1]
				}
			}
			m := math.Hypot(sx, sy)
			mag[row][col] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}

	out := make([][]bool, height)
	threshold := thresholdFrac * maxMag
	for row := 0; row < height; row++ {
		out[row] = make([]bool, width)
		for col := 0; col < width; col++ {
			out[row][col] = mag[row][col] >= threshold && maxMag > 0
		}
	}
	return out
}
