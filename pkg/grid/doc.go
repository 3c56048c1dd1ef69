// Package grid models the bounded 8-connected grid that trackplan searches.
//
// # Overview
//
// A grid is a width×height rectangle of [Cell] values addressed by integer
// (x, y) pairs, 0-indexed. Every cell is adjacent to up to eight others; the
// adjacency relation is computed once by [New] and never changes for the
// lifetime of a planner.
//
// Mutable per-session state (which cells are blocked, which cells belong to
// the preferred route) lives in [CellSet] values owned by the caller, not by
// the [Grid]. The [CostModel] combines a grid step with those sets into a
// directed traversal cost.
//
// # Costs
//
// Axis-aligned steps cost 1, diagonal steps cost √2. When a track set is
// present, stepping onto a cell outside it is multiplied by
// [OffTrackPenalty]. Stepping onto an obstacle costs +Inf.
//
// # Heuristic
//
// [Manhattan] is the search heuristic. It overestimates diagonal movement and
// is therefore not admissible under this cost model; planners built on it
// trade strict optimality for the original service's settling order.
package grid
