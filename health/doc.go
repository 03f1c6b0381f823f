// Package health provides the background monitor that reclaims stuck
// loading state and bounds cache memory.
//
// A single loop ticks at a fixed interval (default 30s) and performs two
// independent sweeps per tick:
//
//  1. Stale-loading sweep: any component still loading whose state has not
//     been updated within the staleness threshold (default 5 minutes) is
//     force-failed with errors.ErrStale and stage "timeout". This is the
//     only mechanism that reclaims components whose fetch logic hung
//     without going through the executor's own timeout — for example a
//     caller that drove StartLoading manually and never completed.
//  2. Cache sweep: expired entries are removed eagerly. Correctness never
//     depends on this (reads check expiry themselves); the sweep only
//     bounds memory.
//
// Sweeps work on a point-in-time snapshot of the state map rather than
// holding a long-lived lock, so scanning never blocks loads in flight.
// The loop is stoppable as a unit for process shutdown.
package health
