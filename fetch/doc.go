// Package fetch runs a single data-source fetch with a hard per-attempt
// timeout, bounded exponential-backoff retries, and an optional fallback
// producer invoked once the retry budget is exhausted.
//
// # Algorithm
//
// The primary fetch is attempted MaxRetries+1 times. Each attempt runs
// under a child context bounded by the component's configured timeout; an
// attempt that does not complete in time is abandoned and counted as
// failed. Between attempts the executor sleeps RetryDelay * 2^attempt
// (attempt is zero-indexed), cancellable via the caller's context. Errors
// classified as invalid (see the errors package) stop the retry loop early
// since retrying cannot help.
//
// After exhaustion, if the source declares a fallback it is invoked exactly
// once, un-timed and un-retried. A successful fallback is always reported
// as success — even when it returns an empty or zero value — so callers can
// distinguish "ran out of time" from "no data available". The result's
// UsedFallback flag is the secondary signal for observability layers that
// need to tell healthy loads from degraded-via-fallback ones. If the
// fallback itself fails, the original primary error is surfaced, never the
// fallback's.
//
// The executor never touches the cache; checking and populating cached
// results is the orchestrator's responsibility, which keeps this package
// independently testable.
package fetch
