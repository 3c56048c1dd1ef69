// Package mapdata loads the grid maps a planning session runs on.
//
// A map carries its dimensions, the permanent obstacle cells ("walls"), the
// preferred-route cells ("tracks") and a list of marker cells (RFID tag
// positions) that are passed through to clients untouched. Maps are read from
// JSON or TOML files, or from a MongoDB collection:
//
//	{"width": 10, "height": 8, "walls": [[3,1],[3,2]], "tracks": [], "rfids": [[0,0]]}
//
// Missing width or height default to [DefaultDimension].
package mapdata

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matzehuels/trackplan/pkg/cache"
	"github.com/matzehuels/trackplan/pkg/grid"
)

// DefaultDimension is used when a map omits width or height.
const DefaultDimension = 20

// MaxDimension bounds width and height so a bad file cannot request an
// unbounded dense allocation.
const MaxDimension = 4096

var (
	// ErrInvalidMap is returned when map contents fail validation.
	ErrInvalidMap = errors.New("invalid map")

	// ErrNotFound is returned when a named map does not exist.
	ErrNotFound = errors.New("map not found")

	// ErrUnsupportedFormat is returned for file extensions other than
	// .json and .toml.
	ErrUnsupportedFormat = errors.New("unsupported map format")
)

// Map is a validated map definition.
type Map struct {
	Name    string      `json:"name,omitempty"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Walls   []grid.Cell `json:"walls"`
	Tracks  []grid.Cell `json:"tracks"`
	Markers []grid.Cell `json:"rfids"`
}

// document is the on-disk and in-database shape. Pointers distinguish a
// missing dimension from an explicit zero.
type document struct {
	Name    string  `json:"name" toml:"name" bson:"name"`
	Width   *int    `json:"width" toml:"width" bson:"width"`
	Height  *int    `json:"height" toml:"height" bson:"height"`
	Walls   [][]int `json:"walls" toml:"walls" bson:"walls"`
	Tracks  [][]int `json:"tracks" toml:"tracks" bson:"tracks"`
	Markers [][]int `json:"rfids" toml:"rfids" bson:"rfids"`
}

func (d document) toMap() (*Map, error) {
	m := &Map{Name: d.Name, Width: DefaultDimension, Height: DefaultDimension}
	if d.Width != nil {
		m.Width = *d.Width
	}
	if d.Height != nil {
		m.Height = *d.Height
	}
	var err error
	if m.Walls, err = toCells("walls", d.Walls); err != nil {
		return nil, err
	}
	if m.Tracks, err = toCells("tracks", d.Tracks); err != nil {
		return nil, err
	}
	if m.Markers, err = toCells("rfids", d.Markers); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func toCells(field string, pairs [][]int) ([]grid.Cell, error) {
	cells := make([]grid.Cell, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: %s[%d] has %d values, want 2", ErrInvalidMap, field, i, len(p))
		}
		cells = append(cells, grid.C(p[0], p[1]))
	}
	return cells, nil
}

// Validate checks dimensions and that every wall and track lies inside the
// grid. Markers are not checked.
func (m *Map) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidMap, m.Width, m.Height)
	}
	if m.Width > MaxDimension || m.Height > MaxDimension {
		return fmt.Errorf("%w: dimensions %dx%d exceed %d", ErrInvalidMap, m.Width, m.Height, MaxDimension)
	}
	for _, c := range m.Walls {
		if !m.InBounds(c) {
			return fmt.Errorf("%w: wall %v outside %dx%d grid", ErrInvalidMap, c, m.Width, m.Height)
		}
	}
	for _, c := range m.Tracks {
		if !m.InBounds(c) {
			return fmt.Errorf("%w: track %v outside %dx%d grid", ErrInvalidMap, c, m.Width, m.Height)
		}
	}
	return nil
}

// InBounds reports whether c lies inside the map.
func (m *Map) InBounds(c grid.Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < m.Width && c.Y < m.Height
}

// Grid builds the adjacency index for the map's dimensions.
func (m *Map) Grid() *grid.Grid { return grid.New(m.Width, m.Height) }

// WallSet returns a fresh set of the permanent obstacles.
func (m *Map) WallSet() grid.CellSet { return grid.NewCellSet(m.Walls...) }

// TrackSet returns a fresh set of the preferred-route cells.
func (m *Map) TrackSet() grid.CellSet { return grid.NewCellSet(m.Tracks...) }

// Fingerprint hashes the map's canonical JSON form. Cell order in the source
// does not affect it.
func (m *Map) Fingerprint() string {
	canonical := struct {
		Width   int          `json:"width"`
		Height  int          `json:"height"`
		Walls   grid.CellSet `json:"walls"`
		Tracks  grid.CellSet `json:"tracks"`
		Markers []grid.Cell  `json:"rfids"`
	}{m.Width, m.Height, m.WallSet(), m.TrackSet(), m.Markers}
	data, _ := json.Marshal(canonical)
	return cache.Hash(data)
}

func pairs(cells []grid.Cell) [][]int {
	out := make([][]int, len(cells))
	for i, c := range cells {
		out[i] = []int{c.X, c.Y}
	}
	return out
}
