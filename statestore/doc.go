// Package statestore holds one mutable LoadingState per registered component
// and publishes every change to subscribers.
//
// # Model
//
// A component is registered once with its static Config (timeout, retry
// budget, dependencies, priority). Registration is an idempotent upsert:
// the last config wins, existing state is preserved. State starts idle
// (IsLoading=false, Progress=0, Stage="idle") and lives for the process
// lifetime; there is no per-component destroy, only the store-wide Close.
//
// # Subscriptions
//
// Subscribe yields the current state immediately, then every subsequent
// distinct state. A state is distinct when IsLoading, Progress, or Stage
// differs from the previous emission; this de-duplication is a deliberate
// backpressure control so high-frequency progress updates do not flood slow
// consumers. Delivery uses buffered channels with non-blocking sends — a
// subscriber that cannot keep up misses intermediate states rather than
// stalling the updater.
//
// SubscribeGlobal aggregates across all components: true while at least one
// component is loading, recomputed on every update and emitted on
// transitions only.
//
// # Invariants
//
//   - Progress is clamped to [0, 100].
//   - A non-nil Err forces IsLoading to false; errors only exist in
//     terminal states.
//   - Updates for a single component are applied in caller order; LastUpdated
//     is stamped by the store on every update.
package statestore
