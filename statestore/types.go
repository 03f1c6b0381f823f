package statestore

import (
	"fmt"
	"time"

	"github.com/c360/loadstate/errors"
)

// Priority indicates how important a component's load is. It is
// informational only — it does not alter scheduling order — but is preserved
// for observability.
type Priority string

const (
	// PriorityCritical marks components the process cannot function without
	PriorityCritical Priority = "critical"
	// PriorityHigh marks components needed early
	PriorityHigh Priority = "high"
	// PriorityMedium marks routine components
	PriorityMedium Priority = "medium"
	// PriorityLow marks deferrable components
	PriorityLow Priority = "low"
)

// Valid reports whether the priority is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Config is the immutable per-component configuration set at registration.
type Config struct {
	// ID is the unique component key.
	ID string `json:"id"`

	// Timeout bounds each individual fetch attempt.
	Timeout time.Duration `json:"timeout"`

	// MaxRetries is the number of retries beyond the first attempt.
	MaxRetries int `json:"max_retries"`

	// RetryDelay is the base backoff duration; attempt n sleeps
	// RetryDelay * 2^n before retrying.
	RetryDelay time.Duration `json:"retry_delay"`

	// Dependencies lists component IDs that must reach a terminal state
	// before this component's sources are fetched.
	Dependencies []string `json:"dependencies,omitempty"`

	// Priority is informational; see Priority.
	Priority Priority `json:"priority"`
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "empty component id")
	}
	if c.Timeout <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("timeout must be positive, got %v", c.Timeout))
	}
	if c.MaxRetries < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("max_retries must be >= 0, got %d", c.MaxRetries))
	}
	if c.RetryDelay < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("retry_delay must be >= 0, got %v", c.RetryDelay))
	}
	if !c.Priority.Valid() {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown priority %q", c.Priority))
	}
	return nil
}

// LoadingState is the mutable per-component loading state.
type LoadingState struct {
	IsLoading   bool      `json:"is_loading"`
	Progress    int       `json:"progress"` // 0-100
	Stage       string    `json:"stage"`
	Err         error     `json:"-"`
	RetryCount  int       `json:"retry_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// Terminal reports whether the component is in a terminal (non-loading)
// state, whether due to success or error.
func (s LoadingState) Terminal() bool {
	return !s.IsLoading
}

// distinctFrom reports whether the state differs from prev in one of the
// fields subscribers are notified about.
func (s LoadingState) distinctFrom(prev LoadingState) bool {
	return s.IsLoading != prev.IsLoading || s.Progress != prev.Progress || s.Stage != prev.Stage
}

// StageIdle is the stage of a registered component that has never loaded.
const StageIdle = "idle"

// idleState is the state every component starts in.
func idleState() LoadingState {
	return LoadingState{
		IsLoading:   false,
		Progress:    0,
		Stage:       StageIdle,
		LastUpdated: time.Now(),
	}
}

// Patch mutates a single field of a LoadingState during Update.
type Patch func(*LoadingState)

// SetLoading sets the IsLoading flag.
func SetLoading(loading bool) Patch {
	return func(s *LoadingState) {
		s.IsLoading = loading
	}
}

// SetProgress sets Progress, clamped to [0, 100].
func SetProgress(progress int) Patch {
	return func(s *LoadingState) {
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		s.Progress = progress
	}
}

// SetStage sets the free-form stage label.
func SetStage(stage string) Patch {
	return func(s *LoadingState) {
		s.Stage = stage
	}
}

// SetError sets the failure cause. A non-nil error forces IsLoading to
// false when the update is applied; passing nil clears a previous error.
func SetError(err error) Patch {
	return func(s *LoadingState) {
		s.Err = err
	}
}

// SetRetryCount sets the retry counter.
func SetRetryCount(count int) Patch {
	return func(s *LoadingState) {
		s.RetryCount = count
	}
}
