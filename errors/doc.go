// Package errors provides standardized error handling for loadstate components.
//
// # Overview
//
// The package combines two layers:
//
//   - A three-class classification system (Transient, Invalid, Fatal) that
//     lets the fetch executor decide whether a failing source is worth
//     retrying without string matching on error text.
//   - The orchestrator's domain taxonomy: FetchError, DependencyError,
//     AggregateLoadError, and the sentinel errors for staleness, dependency
//     timeouts, and unknown components.
//
// Both layers integrate with Go's standard error handling: errors.Is(),
// errors.As(), and wrapping chains all work as expected.
//
// # Error Classification
//
//   - Transient: timeouts, flaky upstreams, temporary unavailability
//     (retry recommended)
//   - Invalid: malformed specs, unknown component IDs, bad configuration
//     (do not retry)
//   - Fatal: unrecoverable states (stop processing)
//
// # Quick Start
//
// Wrap errors with context for debugging:
//
//	if err := store.Update(id, patch); err != nil {
//	    return errors.Wrap(err, "Orchestrator", "StartLoading", "state update")
//	}
//
// Check classification for retry logic:
//
//	if errors.IsInvalid(err) {
//	    return err // retrying will not help
//	}
//
// Inspect the domain taxonomy:
//
//	var fe *errors.FetchError
//	if stderrors.As(err, &fe) {
//	    log.Warn("source failed", "source", fe.SourceID, "attempts", fe.Attempts)
//	}
package errors
