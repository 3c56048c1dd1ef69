// Package obstacle places temporary obstacles and removes them again after a
// fixed delay.
//
// A [Manager] mutates an obstacle [Set] owned by someone else (normally a map
// session) and shares that owner's lock. Insert, Cancel, Pending and Stop
// expect the caller to hold the lock already; expiry callbacks run on the
// scheduler's goroutine and acquire it themselves. Expiry only changes set
// membership. It never triggers replanning: the next map update or path
// request observes the new state.
//
// Timers are created through a [Scheduler] so tests can drive expiry with a
// [ManualScheduler] instead of waiting on the wall clock.
package obstacle
