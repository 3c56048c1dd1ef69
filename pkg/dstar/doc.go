// Package dstar implements the D* Lite incremental shortest-path planner on
// an 8-connected grid.
//
// # Overview
//
// A [Planner] searches backwards from the goal. It keeps two estimates per
// cell: g, the settled cost-to-goal, and rhs, a one-step lookahead derived
// from the neighbours' g values:
//
//	rhs(u) = min over non-obstacle neighbours s of g(s) + cost(u, s)
//	rhs(goal) = 0
//
// A cell is locally consistent when g == rhs. Inconsistent cells wait in a
// [frontier.Frontier] keyed by
//
//	(min(g, rhs) + h(origin, s) + km, min(g, rhs))
//
// where h is the Manhattan distance and km is the key modifier.
// [Planner.ComputeShortestPath] relaxes cells in key order until the origin
// is consistent and nothing left in the frontier could still improve it.
//
// # Incremental repair
//
// After the first search the planner is reused:
//
//   - When obstacles change, [Planner.UpdateObstacles] runs
//     [Planner.UpdateVertex] on every changed cell and all of its neighbours.
//   - When the agent advances, [Planner.MoveTo] first adds h(old, new) to km
//     so keys computed before the move stay comparable with keys computed
//     after it.
//
// In both cases the caller then runs [Planner.ComputeShortestPath] again, which
// repairs only the affected region. Frontier keys that went stale are fixed
// lazily: a popped entry whose fresh key is larger is pushed back instead of
// being expanded.
//
// # Paths
//
// [Planner.Path] walks greedily from the origin, always stepping to the
// neighbour minimising g + cost. It stops early when no neighbour is
// reachable or when it would revisit a cell, so the returned slice may end
// short of the goal; use [Planner.Reached] to tell the two apart.
//
// # Heuristic
//
// Manhattan distance overestimates diagonal moves (√2 < 2). The planner
// keeps it anyway, so on open ground the settled order and the extracted path
// can be slightly suboptimal.
//
// # Concurrency
//
// Planner is not safe for concurrent use. Callers serialize every method call
// with the lock that also guards the session's obstacle set.
package dstar
