package render

import (
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/session"
)

// Kind classifies a cell for drawing.
type Kind int

// Kinds in drawing precedence: when a cell belongs to several sets, the
// lowest Kind wins.
const (
	KindStart Kind = iota
	KindGoal
	KindPending
	KindWall
	KindAgent
	KindPath
	KindVisited
	KindMarker
	KindTrack
	KindEmpty
)

var kindNames = [...]string{"start", "goal", "temporary wall", "wall", "other agent", "path", "visited", "marker", "track", "empty"}

// String returns a lower-case legend label.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds lists every kind in precedence order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindStart; k <= KindEmpty; k++ {
		out = append(out, k)
	}
	return out
}

// Scene is a drawable grid.
type Scene struct {
	Title  string
	Width  int
	Height int

	Walls   grid.CellSet
	Pending grid.CellSet
	Agents  grid.CellSet
	Tracks  grid.CellSet
	Markers grid.CellSet
	Path    grid.CellSet
	Visited grid.CellSet

	Start, Goal *grid.Cell
}

// FromMap builds a scene of a map with no route.
func FromMap(m *mapdata.Map) Scene {
	return Scene{
		Title:   m.Name,
		Width:   m.Width,
		Height:  m.Height,
		Walls:   m.WallSet(),
		Tracks:  m.TrackSet(),
		Markers: grid.NewCellSet(m.Markers...),
	}
}

// FromSnapshot builds a scene of a session with its current route.
func FromSnapshot(s *session.Snapshot) Scene {
	start, goal := s.Start, s.Goal
	return Scene{
		Title:   s.MapName,
		Width:   s.Width,
		Height:  s.Height,
		Walls:   s.Walls,
		Pending: grid.NewCellSet(s.Pending...),
		Agents:  s.Masked,
		Tracks:  s.Tracks,
		Markers: grid.NewCellSet(s.Markers...),
		Path:    grid.NewCellSet(s.Path...),
		Visited: grid.NewCellSet(s.Visited...),
		Start:   &start,
		Goal:    &goal,
	}
}

// KindOf classifies c.
func (s Scene) KindOf(c grid.Cell) Kind {
	switch {
	case s.Start != nil && *s.Start == c:
		return KindStart
	case s.Goal != nil && *s.Goal == c:
		return KindGoal
	case s.Pending.Has(c):
		return KindPending
	case s.Walls.Has(c):
		return KindWall
	case s.Agents.Has(c):
		return KindAgent
	case s.Path.Has(c):
		return KindPath
	case s.Visited.Has(c):
		return KindVisited
	case s.Markers.Has(c):
		return KindMarker
	case s.Tracks.Has(c):
		return KindTrack
	default:
		return KindEmpty
	}
}
