package frontier

import (
	"container/heap"
	"slices"

	"github.com/matzehuels/trackplan/pkg/grid"
)

// Key is a two-part priority. Smaller keys are popped first.
type Key struct {
	Primary   float64
	Secondary float64
}

// Less compares keys lexicographically.
func (k Key) Less(o Key) bool {
	if k.Primary != o.Primary {
		return k.Primary < o.Primary
	}
	return k.Secondary < o.Secondary
}

// Entry is a (key, cell) pair held by the frontier.
type Entry struct {
	Cell grid.Cell
	Key  Key
}

func (e Entry) less(o Entry) bool {
	if e.Key.Less(o.Key) {
		return true
	}
	if o.Key.Less(e.Key) {
		return false
	}
	return e.Cell.Less(o.Cell)
}

// Frontier is an indexed min-heap of entries, at most one per cell.
// The zero value is not usable; create frontiers with [New].
// Frontier is not safe for concurrent use.
type Frontier struct {
	h entryHeap
}

// New returns an empty frontier.
func New() *Frontier {
	return &Frontier{h: entryHeap{slot: make(map[grid.Cell]int)}}
}

// Len returns the number of queued cells.
func (f *Frontier) Len() int { return len(f.h.entries) }

// Contains reports whether c has an entry.
func (f *Frontier) Contains(c grid.Cell) bool {
	_, ok := f.h.slot[c]
	return ok
}

// KeyOf returns the key currently stored for c.
func (f *Frontier) KeyOf(c grid.Cell) (Key, bool) {
	i, ok := f.h.slot[c]
	if !ok {
		return Key{}, false
	}
	return f.h.entries[i].Key, true
}

// Push inserts c with key k. Any existing entry for c is replaced.
func (f *Frontier) Push(c grid.Cell, k Key) {
	if i, ok := f.h.slot[c]; ok {
		f.h.entries[i].Key = k
		heap.Fix(&f.h, i)
		return
	}
	heap.Push(&f.h, Entry{Cell: c, Key: k})
}

// Remove discards the entry for c, whatever its key, and reports whether one existed.
func (f *Frontier) Remove(c grid.Cell) bool {
	i, ok := f.h.slot[c]
	if !ok {
		return false
	}
	heap.Remove(&f.h, i)
	return true
}

// Peek returns the minimum entry without removing it.
func (f *Frontier) Peek() (Entry, bool) {
	if len(f.h.entries) == 0 {
		return Entry{}, false
	}
	return f.h.entries[0], true
}

// TopKey returns the minimum key, or ok=false when empty.
func (f *Frontier) TopKey() (Key, bool) {
	e, ok := f.Peek()
	return e.Key, ok
}

// Pop removes and returns the minimum entry.
func (f *Frontier) Pop() (Entry, bool) {
	if len(f.h.entries) == 0 {
		return Entry{}, false
	}
	return heap.Pop(&f.h).(Entry), true
}

// Entries returns a copy of all entries in pop order.
func (f *Frontier) Entries() []Entry {
	out := slices.Clone(f.h.entries)
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Clone returns an independent copy of the frontier.
func (f *Frontier) Clone() *Frontier {
	c := &Frontier{h: entryHeap{
		entries: slices.Clone(f.h.entries),
		slot:    make(map[grid.Cell]int, len(f.h.slot)),
	}}
	for k, v := range f.h.slot {
		c.h.slot[k] = v
	}
	return c
}

// entryHeap implements heap.Interface and keeps slot in sync with positions.
type entryHeap struct {
	entries []Entry
	slot    map[grid.Cell]int
}

func (h entryHeap) Len() int           { return len(h.entries) }
func (h entryHeap) Less(i, j int) bool { return h.entries[i].less(h.entries[j]) }
func (h entryHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.slot[h.entries[i].Cell] = i
	h.slot[h.entries[j].Cell] = j
}

func (h *entryHeap) Push(x any) {
	e := x.(Entry)
	h.slot[e.Cell] = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *entryHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	h.entries = old[:n-1]
	delete(h.slot, e.Cell)
	return e
}
