package grid

import (
	"encoding/json"
	"slices"
)

// CellSet is an unordered set of cells. The zero value is not usable; create
// sets with [NewCellSet].
//
// CellSet is not safe for concurrent use. Sessions guard their sets with the
// same lock that serializes planner mutations.
type CellSet map[Cell]struct{}

// NewCellSet returns a set containing cells.
func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Add inserts c and reports whether it was newly added.
func (s CellSet) Add(c Cell) bool {
	if _, ok := s[c]; ok {
		return false
	}
	s[c] = struct{}{}
	return true
}

// Remove deletes c and reports whether it was present.
func (s CellSet) Remove(c Cell) bool {
	if _, ok := s[c]; !ok {
		return false
	}
	delete(s, c)
	return true
}

// Toggle flips membership of c and reports whether c is a member afterwards.
func (s CellSet) Toggle(c Cell) bool {
	if s.Remove(c) {
		return false
	}
	s[c] = struct{}{}
	return true
}

// Len returns the number of cells.
func (s CellSet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s CellSet) Clone() CellSet {
	out := make(CellSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Union returns a new set with the members of s and every other set.
func (s CellSet) Union(others ...CellSet) CellSet {
	out := s.Clone()
	for _, o := range others {
		for c := range o {
			out[c] = struct{}{}
		}
	}
	return out
}

// SymmetricDifference returns the cells present in exactly one of s and o,
// sorted by [Cell.Less].
func (s CellSet) SymmetricDifference(o CellSet) []Cell {
	var diff []Cell
	for c := range s {
		if !o.Has(c) {
			diff = append(diff, c)
		}
	}
	for c := range o {
		if !s.Has(c) {
			diff = append(diff, c)
		}
	}
	slices.SortFunc(diff, compareCells)
	return diff
}

// Sorted returns the members ordered by [Cell.Less].
func (s CellSet) Sorted() []Cell {
	out := make([]Cell, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCells)
	return out
}

// MarshalJSON encodes the set as a sorted list of [x, y] pairs.
func (s CellSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of [x, y] pairs.
func (s *CellSet) UnmarshalJSON(data []byte) error {
	var cells []Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	*s = NewCellSet(cells...)
	return nil
}

func compareCells(a, b Cell) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
