package orchestrator

import (
	stderrors "errors"

	"github.com/c360/loadstate/statestore"
)

// The simplified state-machine API below serves callers that run their own
// fetch loop and only want lifecycle bookkeeping. All four operations
// auto-register unknown component IDs identically to LoadComponentData.
// A caller that starts loading and never completes is reclaimed by the
// health monitor's staleness backstop.

// StartLoading marks a component as loading at the given stage.
func (o *Orchestrator) StartLoading(id, stage string) error {
	if _, err := o.ensureRegistered(id); err != nil {
		return err
	}
	_, err := o.store.Update(id,
		statestore.SetLoading(true),
		statestore.SetProgress(0),
		statestore.SetStage(stage),
		statestore.SetError(nil),
		statestore.SetRetryCount(0),
	)
	return err
}

// UpdateLoading reports intermediate progress, capped below completion so
// only CompleteLoading reaches 100.
func (o *Orchestrator) UpdateLoading(id, stage string, progress int) error {
	if _, err := o.ensureRegistered(id); err != nil {
		return err
	}
	if progress > manualProgressCap {
		progress = manualProgressCap
	}
	_, err := o.store.Update(id,
		statestore.SetLoading(true),
		statestore.SetProgress(progress),
		statestore.SetStage(stage),
	)
	return err
}

// CompleteLoading marks a component successfully loaded. The message
// becomes the terminal stage label.
func (o *Orchestrator) CompleteLoading(id, message string) error {
	if _, err := o.ensureRegistered(id); err != nil {
		return err
	}
	if message == "" {
		message = StageComplete
	}
	_, err := o.store.Update(id,
		statestore.SetLoading(false),
		statestore.SetProgress(100),
		statestore.SetStage(message),
		statestore.SetError(nil),
	)
	return err
}

// FailLoading marks a component failed with a human-readable message.
func (o *Orchestrator) FailLoading(id, message string) error {
	if _, err := o.ensureRegistered(id); err != nil {
		return err
	}
	_, err := o.store.Update(id,
		statestore.SetLoading(false),
		statestore.SetError(stderrors.New(message)),
		statestore.SetStage(StageError),
	)
	return err
}
