// Package frontier implements the priority queue of locally inconsistent
// cells used by the D* Lite planner.
//
// # Ordering
//
// Entries are ordered by a two-part [Key] compared lexicographically: the
// primary term first, the secondary term as tie-break. Entries with equal
// keys are ordered by cell (x, then y) so that pops are deterministic.
//
// # Indexed heap
//
// A binary heap is paired with a map from cell to heap slot, so a cell has at
// most one entry and [Frontier.Remove] and [Frontier.Push] on an existing
// cell run in O(log n) instead of filtering and rebuilding the whole queue.
//
// The frontier never recomputes keys itself. Keys go stale when the planner's
// cost fields or key modifier change; the planner detects staleness on pop and
// pushes the cell back with its fresh key.
package frontier
