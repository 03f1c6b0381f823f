// Package resolver blocks a load until each of its declared dependencies
// has reached a terminal non-loading state.
//
// All dependencies are awaited concurrently; the wait returns as soon as
// every dependency is terminal or the first hard failure or timeout occurs,
// whichever is first (fail-fast). "Ready" means the dependency's current
// LoadingState has IsLoading == false — a dependency that has never been
// started (idle, never loaded) is considered immediately ready. The
// resolver deliberately does not distinguish "never run" from "finished
// successfully"; see DESIGN.md for why this known gap is preserved.
//
// Waiting is subscription-based rather than polled: the resolver subscribes
// to each dependency's state stream and reacts to transitions. Two timeouts
// apply: a per-dependency bound supplied by the caller and the resolver's
// own fixed overall timeout (default 30s).
package resolver
