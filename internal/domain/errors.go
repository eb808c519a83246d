package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrMissingReferenceImage = fmt.Errorf("%w: reference image is required", ErrInvalidInput)
	ErrUnknownModel          = fmt.Errorf("%w: unknown model", ErrInvalidInput)
	ErrProviderCreateFailed  = errors.New("provider create failed")
	ErrProviderTransient     = errors.New("provider transient response")
	ErrTaskFailed            = errors.New("task failed")
	ErrTimeout               = errors.New("timeout waiting for generation")
	ErrCompositingFailed     = errors.New("compositing failed")
	ErrEnhancementFailed     = errors.New("enhancement failed")
	ErrRecordFinalized       = errors.New("record already finalized")
)

// TaskError carries the provider supplied message for a rejected or failed task.
// Kind is one of ErrProviderCreateFailed or ErrTaskFailed.
type TaskError struct {
	Kind    error
	Model   string
	TaskID  string
	Message string
}

func (e *TaskError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	if e.TaskID != "" {
		return fmt.Sprintf("%s: %s (model=%s task=%s)", e.Kind, msg, e.Model, e.TaskID)
	}
	return fmt.Sprintf("%s: %s (model=%s)", e.Kind, msg, e.Model)
}

func (e *TaskError) Unwrap() error {
	return e.Kind
}
