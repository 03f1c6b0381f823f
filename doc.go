// Package loadstate provides a process-wide loading orchestrator that
// coordinates the asynchronous loading lifecycle of independently-registered
// components.
//
// # Philosophy: One Orchestrator, Opaque Sources
//
// The orchestrator knows nothing about what it loads. Callers register
// components (a loading identity plus timeout/retry/dependency config) and
// hand the orchestrator opaque fetch closures. The orchestrator owns the
// systems concerns around those closures:
//
//   - Dependency ordering: a component's load waits for its declared
//     dependencies to reach a terminal state before any source is fetched.
//   - Retry policy: bounded exponential backoff per source, with an optional
//     un-retried fallback producer once the budget is exhausted.
//   - Caching: per-source TTL caching with lazy expiry on read and an eager
//     background sweep.
//   - Staleness: a health monitor force-fails components stuck loading past
//     a threshold, reclaiming state that bypassed the executor's timeouts.
//   - Aggregation: per-component state streams plus a global "anything
//     loading" signal, both de-duplicated for slow consumers.
//
// The orchestrator MUST NOT perform network, serialization, or storage I/O
// of its own. Data sources are caller-supplied closures; everything else is
// in-process state.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│        Orchestrator Facade          │  registration, coordinated load,
//	│  (orchestrator.Orchestrator)        │  simplified state-machine API
//	└─────────────────────────────────────┘
//	      ↓ owns                ↓ owns
//	┌───────────────┐   ┌───────────────────┐
//	│  State Store  │   │    Cache Store    │
//	│ (statestore)  │   │   (pkg/cache)     │
//	└───────────────┘   └───────────────────┘
//	      ↑ scanned by         ↑ swept by
//	┌─────────────────────────────────────┐
//	│          Health Monitor             │  stale-loading + cache sweeps
//	│            (health)                 │
//	└─────────────────────────────────────┘
//
// The fetch executor (fetch) and dependency resolver (resolver) are
// stateless collaborators driven by the facade.
//
// # Deployment Shape
//
// Construct exactly one Orchestrator per process at startup and inject it
// into consumers. There is no package-level singleton; ambient global state
// is deliberately avoided.
package loadstate
