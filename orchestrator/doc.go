// Package orchestrator is the public facade of the loading orchestrator.
//
// It owns the component state store and the result cache exclusively; no
// consumer mutates either directly. Consumers interact through three
// surfaces:
//
//   - Registration and observation: RegisterComponent, GetLoadingState,
//     GetGlobalLoadingState.
//   - The coordinated load: LoadComponentData resolves dependencies, then
//     walks the source list checking the cache, driving the fetch executor
//     with retry/backoff/fallback, populating the cache on success, and
//     updating progress/stage throughout. A single failing source fails the
//     whole call; there is no partial success.
//   - The simplified state-machine API: StartLoading, UpdateLoading,
//     CompleteLoading, FailLoading, for callers that run their own fetch
//     loop and only want lifecycle bookkeeping. The health monitor's
//     staleness backstop is what reclaims these if the caller walks away.
//
// Both load surfaces auto-register unknown component IDs with
// DefaultComponentConfig through the normal registration path, so the
// default is inspectable rather than a silent special case.
//
// Construct one Orchestrator per process with New and tear it down with
// Destroy, which stops the health monitor, clears all state, and completes
// every subscription stream.
package orchestrator
