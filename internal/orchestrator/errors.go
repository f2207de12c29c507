package orchestrator

import (
	"errors"
	"fmt"
)

// ValidationError rejects a batch before any scheduling starts. It is never
// retried.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrEmptyBatch is returned when the item source produced no items.
var ErrEmptyBatch = &ValidationError{Code: "EMPTY_BATCH", Message: "batch contains no items"}

// FatalError is an unexpected failure inside the orchestration loop itself
// (for example the registry being unreachable at batch creation). It aborts
// the whole batch, unlike item failures which are contained per item.
type FatalError struct {
	BatchID string
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("batch %s: fatal orchestration error: %v", e.BatchID, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ErrNotCancellable is returned when cancellation is requested for a batch
// that already reached a terminal status.
var ErrNotCancellable = errors.New("batch is not in a cancellable state")

// ErrCancelled marks an orchestration run that was cancelled mid-flight.
var ErrCancelled = errors.New("batch cancelled")
