package errors

import (
	"errors"
	"fmt"
)

// FetchError reports that a data source's primary fetch exhausted its retry
// budget (and, when a fallback was present, that the fallback failed too —
// the fallback's own error is never surfaced, only the primary's).
type FetchError struct {
	SourceID string
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("source %q failed after %d attempts: %v", e.SourceID, e.Attempts, e.Err)
}

// Unwrap returns the last primary attempt's error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps the last primary attempt's cause
func NewFetchError(sourceID string, attempts int, cause error) *FetchError {
	return &FetchError{SourceID: sourceID, Attempts: attempts, Err: cause}
}

// DependencyError reports that an awaited dependency is unknown or ended in a
// failed terminal state. The dependency's own error is propagated via Unwrap.
type DependencyError struct {
	DependencyID string
	Err          error
}

// Error implements the error interface
func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %q failed: %v", e.DependencyID, e.Err)
}

// Unwrap returns the dependency's terminal error
func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NewDependencyError wraps a dependency's terminal error
func NewDependencyError(dependencyID string, cause error) *DependencyError {
	return &DependencyError{DependencyID: dependencyID, Err: cause}
}

// AggregateLoadError wraps whichever failure aborted a coordinated load.
// SourceID is empty when the failure happened before any source ran
// (dependency resolution).
type AggregateLoadError struct {
	ComponentID string
	SourceID    string
	Err         error
}

// Error implements the error interface
func (e *AggregateLoadError) Error() string {
	if e.SourceID == "" {
		return fmt.Sprintf("load %q failed: %v", e.ComponentID, e.Err)
	}
	return fmt.Sprintf("load %q failed at source %q: %v", e.ComponentID, e.SourceID, e.Err)
}

// Unwrap returns the underlying cause
func (e *AggregateLoadError) Unwrap() error {
	return e.Err
}

// NewAggregateLoadError wraps the failure that aborted a coordinated load
func NewAggregateLoadError(componentID, sourceID string, cause error) *AggregateLoadError {
	return &AggregateLoadError{ComponentID: componentID, SourceID: sourceID, Err: cause}
}

// IsStale checks whether an error was forced by the health monitor's
// staleness backstop.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}
