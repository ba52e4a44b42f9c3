// Package compose implements Stage S (Shrub Assigner & Mirror) and Stage O
// (Output Encoder), and orchestrates the full T -> A -> H -> S -> O pipeline
// behind the JSON request/response contract: three compositions per
// request, each keying its coordinates as "(y, x)", i.e. internal
// (row, col) order.
package compose

import (
	"fmt"
	"strings"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
)

// Style selects the landscape composition style. Manicured is the only
// style that triggers mirror symmetrisation (Stage S); the other styles are
// validated but do not change the generated composition.
type Style string

const (
	StyleNaturalistic Style = "Naturalistic"
	StyleManicured    Style = "Manicured"
	StyleMeadow       Style = "Meadow"
	StyleOrnamental   Style = "Ornamental"
	StyleMinimalist   Style = "Minimalist"
	StyleFormal       Style = "Formal"
	StylePicturesque  Style = "Picturesque"
	StyleRustic       Style = "Rustic"
	StylePlantation   Style = "Plantation"

	StyleDefault = StyleNaturalistic
)

var validStyles = map[Style]bool{
	StyleNaturalistic: true, StyleManicured: true, StyleMeadow: true,
	StyleOrnamental: true, StyleMinimalist: true, StyleFormal: true,
	StylePicturesque: true, StyleRustic: true, StylePlantation: true,
}

// Valid reports whether s is one of the styles the contract enumerates.
func (s Style) Valid() bool { return validStyles[s] }

// Surrounding describes the plot's frontage, driving the Type Allocator's
// reference-field choice (Road: distance from centroid; Walkway: distance
// from boundary).
type Surrounding string

const (
	SurroundingRoad    Surrounding = "Road"
	SurroundingWalkway Surrounding = "Walkway"

	SurroundingDefault = SurroundingWalkway
)

// Valid reports whether c is one of the two surroundings the contract
// enumerates.
func (c Surrounding) Valid() bool {
	return c == SurroundingRoad || c == SurroundingWalkway
}

// minUsablePaletteEntries is the §7 threshold below which a request is
// rejected outright rather than attempting a partial composition.
const minUsablePaletteEntries = 3

// Request is the JSON request body for generating compositions.
type Request struct {
	Seed        int64             `json:"seed"`
	GridWidth   int               `json:"grid_width"`
	GridHeight  int               `json:"grid_height"`
	Style       Style             `json:"style"`
	Surrounding Surrounding       `json:"surrounding"`
	Palette     []palette.Record  `json:"plant_palette"`
}

// WithDefaults fills in zero-valued optional fields with their documented
// defaults.
func (r Request) WithDefaults() Request {
	if r.GridWidth == 0 {
		r.GridWidth = 100
	}
	if r.GridHeight == 0 {
		r.GridHeight = 100
	}
	if r.Style == "" {
		r.Style = StyleDefault
	}
	if r.Surrounding == "" {
		r.Surrounding = SurroundingDefault
	}
	return r
}

// Validate rejects a request that cannot produce a composition at all:
// an unrecognised style/surrounding, or a palette with fewer than three
// usable (tree/palm/shrub) entries.
func (r Request) Validate() error {
	if !r.Style.Valid() {
		return fmt.Errorf("compose: unrecognised style %q", r.Style)
	}
	if !r.Surrounding.Valid() {
		return fmt.Errorf("compose: unrecognised surrounding %q", r.Surrounding)
	}
	if palette.New(r.Palette).UsableCount() < minUsablePaletteEntries {
		return fmt.Errorf("compose: plant_palette has fewer than %d usable entries", minUsablePaletteEntries)
	}
	return nil
}

// Composition is a single generated planting layout.
type Composition struct {
	// DataValue numbers this composition among the batch (0, 1, 2 — exactly
	// three are always returned per request).
	DataValue int `json:"data_value"`

	// Grid is the row-major final 0/1/2/3-coded grid (see pkg/grid's Code*
	// constants); JSON-encoded as a flat array of rows for transport.
	Grid [][]int `json:"grid"`

	// Coordinates maps a "(y, x)" key (row first, matching the contract's
	// internal addressing) to the species ID planted there. Only placed
	// trees and post-cleanup shrub seeds appear.
	Coordinates map[string]string `json:"coordinates"`

	SurroundingContext Surrounding `json:"surrounding_context"`
}

// Response is the JSON response body: a fixed-size batch of independently
// seeded compositions for the caller to choose between.
type Response struct {
	Data []Composition `json:"data"`
}

// coordKey formats an internal (row, col) coordinate as the "(y, x)" key
// the JSON contract uses.
func coordKey(row, col int) string {
	var b strings.Builder
	b.WriteByte('(')
	fmt.Fprintf(&b, "%d, %d", row, col)
	b.WriteByte(')')
	return b.String()
}
