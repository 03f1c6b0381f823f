// Package cache provides a generic, thread-safe key/value store with
// per-entry TTL expiry for fetched data-source results.
//
// # Expiry Model
//
// An entry is logically absent once now - storedAt > ttl, enforced in two
// independent ways that agree on the same rule:
//
//   - Lazy: Get checks expiry on read and removes the entry if expired, so
//     correctness never depends on sweep timing.
//   - Eager: SweepExpired removes all expired entries in one pass; the
//     health monitor calls it on its tick to bound memory.
//
// # Observability
//
// Statistics (hits, misses, sets, evictions, size) are always tracked with
// atomic counters. Prometheus export is opt-in via WithMetrics; an eviction
// callback is available via WithEvictionCallback.
//
// # Usage
//
//	store, err := cache.New[any](cache.WithMetrics[any](registry, "orchestrator"))
//	if err != nil {
//	    return err
//	}
//	store.Set("usd-price", value, 30*time.Second)
//	if v, ok := store.Get("usd-price"); ok {
//	    // cached within TTL
//	}
package cache
