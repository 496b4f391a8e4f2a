package engine

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/capture"
)

var (
	// ErrConfiguration is matched by every rejected parameter.
	ErrConfiguration = errors.New("engine: invalid configuration")
	// ErrDevice indicates a source that could not be opened, read or
	// closed, or whose format does not match the engine.
	ErrDevice = errors.New("engine: device error")
	// ErrGraphState indicates an operation not allowed in the current
	// lifecycle state.
	ErrGraphState = errors.New("engine: invalid graph state")

	// ErrRecording is the parent of capture misuse errors.
	ErrRecording = capture.ErrRecording
	// ErrAlreadyRecording is returned by StartCapture during a session.
	ErrAlreadyRecording = capture.ErrAlreadyRecording
	// ErrNotRecording is returned by StopCapture without a session.
	ErrNotRecording = capture.ErrNotRecording
)

// ConfigurationError describes a rejected parameter value.
type ConfigurationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine: invalid %s %v: %v", e.Field, e.Value, e.Err)
	}

	return fmt.Sprintf("engine: invalid %s %v", e.Field, e.Value)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// GraphStateError reports an operation attempted in the wrong lifecycle
// state.
type GraphStateError struct {
	Op    string
	State Lifecycle
}

func (e *GraphStateError) Error() string {
	return fmt.Sprintf("engine: %s not allowed while %s", e.Op, e.State)
}

// Is matches ErrGraphState.
func (e *GraphStateError) Is(target error) bool {
	return target == ErrGraphState
}

func configError(field string, value any, err error) error {
	return &ConfigurationError{Field: field, Value: value, Err: err}
}
