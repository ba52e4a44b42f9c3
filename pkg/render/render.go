// Package render emits an SVG visualisation of a composition: one filled
// rect per grid cell colour-coded by terrain code, with a small circle
// overlaid on every planted coordinate.
package render

import (
	"io"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/compose"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/grid"
)

// CellSize is the pixel size of one grid cell in the rendered SVG.
const CellSize = 6

var codeFill = map[int]string{
	grid.CodeUnplantable: "fill:#e8e4d8",
	grid.CodePlantable:   "fill:#cfead0",
	grid.CodeTree:        "fill:#2f5d34",
	grid.CodeShrub:       "fill:#6b8f5a",
}

// Composition writes an SVG rendering of c to w: one rect per grid cell
// colour-coded by its final code, with a small circle overlaid on every
// planted coordinate.
func Composition(w io.Writer, c compose.Composition) {
	height := len(c.Grid)
	width := 0
	if height > 0 {
		width = len(c.Grid[0])
	}

	canvas := svg.New(w)
	canvas.Start(width*CellSize, height*CellSize)
	defer canvas.End()

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			code := c.Grid[row][col]
			style, ok := codeFill[code]
			if !ok {
				style = codeFill[grid.CodeUnplantable]
			}
			canvas.Rect(col*CellSize, row*CellSize, CellSize, CellSize, style+";stroke:none")
		}
	}

	for key := range c.Coordinates {
		y, x, ok := parseKey(key)
		if !ok {
			continue
		}
		cx := x*CellSize + CellSize/2
		cy := y*CellSize + CellSize/2
		canvas.Circle(cx, cy, CellSize/3, "fill:#1a1a1a;fill-opacity:0.6")
	}
}

// parseKey parses the "(y, x)" coordinate key format the JSON contract uses.
func parseKey(key string) (y, x int, ok bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(key, "("), ")")
	ys, xs, found := strings.Cut(trimmed, ", ")
	if !found {
		return 0, 0, false
	}
	yi, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, false
	}
	xi, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, false
	}
	return yi, xi, true
}
