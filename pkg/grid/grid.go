// Package grid holds the 2D data model shared across pipeline stages: the
// terrain/placement code grid, the region label grid, and scalar fields used
// by the hatching stage. Kept as a distinct package (rather than folded into
// terrain or hatch) because every stage reads and writes it.
package grid

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Cell codes for Grid.
const (
	CodeUnplantable = 0
	CodePlantable   = 1
	CodeTree        = 2
	CodeShrub       = 3
)

// Coord is a (row, col) grid coordinate. Row is the internal y-axis, Col the
// internal x-axis; ToExternal/FromExternal convert to the (x, y) pairs the
// JSON contract exposes.
type Coord struct {
	Row, Col int
}

// ToExternal converts an internal (row, col) coordinate to the external
// (x, y) pair used by the JSON contract.
func (c Coord) ToExternal() (x, y int) {
	return c.Col, c.Row
}

// FromExternal builds an internal Coord from an external (x, y) pair.
func FromExternal(x, y int) Coord {
	return Coord{Row: y, Col: x}
}

// Grid is a Height x Width grid of small integer codes (0-3, see Code*
// constants above). Region labels (>=4 in the hatching stage) live in a
// separate LabelGrid so the two concerns never collide in one array.
type Grid struct {
	Width, Height int
	Cells         []int
}

// New allocates a Width x Height grid, all cells zeroed (unplantable).
func New(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Cells: make([]int, width*height)}
}

func (g *Grid) index(row, col int) int {
	return row*g.Width + col
}

// InBounds reports whether (row, col) is within the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

// At returns the code at (row, col).
func (g *Grid) At(row, col int) int {
	return g.Cells[g.index(row, col)]
}

// Set stores code at (row, col).
func (g *Grid) Set(row, col, code int) {
	g.Cells[g.index(row, col)] = code
}

// Clone returns an independent deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, Cells: make([]int, len(g.Cells))}
	copy(out.Cells, g.Cells)
	return out
}

// CountEqual counts cells equal to code.
func (g *Grid) CountEqual(code int) int {
	n := 0
	for _, v := range g.Cells {
		if v == code {
			n++
		}
	}
	return n
}

// Field is a Width x Height grid of float64 scalars (noise/influence/distance
// fields computed by pkg/geom and consumed by pkg/hatch).
type Field struct {
	Width, Height int
	Values        []float64
}

// NewField allocates a zeroed Width x Height field.
func NewField(width, height int) *Field {
	return &Field{Width: width, Height: height, Values: make([]float64, width*height)}
}

func (f *Field) index(row, col int) int { return row*f.Width + col }

// At returns the value at (row, col).
func (f *Field) At(row, col int) float64 { return f.Values[f.index(row, col)] }

// Set stores v at (row, col).
func (f *Field) Set(row, col int, v float64) { f.Values[f.index(row, col)] = v }

// LabelGrid assigns an integer label (0 = unlabelled) to every cell,
// produced by the region hatcher. Labels >= firstRegionLabel denote distinct
// hatched regions; the output encoder is the only place that folds these
// back into Grid codes.
type LabelGrid struct {
	Width, Height int
	Labels        []int
}

// NewLabelGrid allocates a zeroed Width x Height label grid.
func NewLabelGrid(width, height int) *LabelGrid {
	return &LabelGrid{Width: width, Height: height, Labels: make([]int, width*height)}
}

func (l *LabelGrid) index(row, col int) int { return row*l.Width + col }

// At returns the label at (row, col).
func (l *LabelGrid) At(row, col int) int { return l.Labels[l.index(row, col)] }

// InBounds reports whether (row, col) is within the label grid.
func (l *LabelGrid) InBounds(row, col int) bool {
	return row >= 0 && row < l.Height && col >= 0 && col < l.Width
}

// InBoundsCoord reports whether c is within the label grid.
func (l *LabelGrid) InBoundsCoord(c Coord) bool {
	return l.InBounds(c.Row, c.Col)
}

// Set stores a label at (row, col).
func (l *LabelGrid) Set(row, col, label int) { l.Labels[l.index(row, col)] = label }

// DistinctLabels returns the set of non-zero labels present, sorted by first
// appearance (row-major scan order).
func (l *LabelGrid) DistinctLabels() []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range l.Labels {
		if v == 0 || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Cells returns every coordinate carrying the given label.
func (l *LabelGrid) Cells(label int) []Coord {
	var out []Coord
	for row := 0; row < l.Height; row++ {
		for col := 0; col < l.Width; col++ {
			if l.At(row, col) == label {
				out = append(out, Coord{Row: row, Col: col})
			}
		}
	}
	return out
}

// ConnectedComponents groups the cells carrying a single shared label into
// their 4-connected spatial components, using gonum/graph/topo rather than a
// hand-rolled flood fill. Returns one []Coord per component, in component
// discovery order.
func (l *LabelGrid) ConnectedComponents(label int) [][]Coord {
	cells := l.Cells(label)
	if len(cells) == 0 {
		return nil
	}

	idOf := make(map[Coord]int64, len(cells))
	for i, c := range cells {
		idOf[c] = int64(i)
	}

	g := simple.NewUndirectedGraph()
	for _, id := range idOf {
		g.AddNode(simple.Node(id))
	}
	offsets := [4]Coord{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}
	for _, c := range cells {
		for _, d := range offsets {
			n := Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}
			if nid, ok := idOf[n]; ok {
				u, v := idOf[c], nid
				if u == v {
					continue
				}
				if g.HasEdgeBetween(simple.Node(u), simple.Node(v)) {
					continue
				}
				g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
			}
		}
	}

	comps := topo.ConnectedComponents(g)
	out := make([][]Coord, 0, len(comps))
	for _, comp := range comps {
		group := make([]Coord, 0, len(comp))
		for _, n := range comp {
			group = append(group, cells[n.ID()])
		}
		out = append(out, group)
	}
	return out
}

// Validate checks internal consistency invariants shared by Grid/LabelGrid
// construction (dimension agreement with the backing slice).
func Validate(width, height, n int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("grid: invalid dimensions %dx%d", width, height)
	}
	if n != width*height {
		return fmt.Errorf("grid: backing slice length %d does not match %dx%d", n, width, height)
	}
	return nil
}
