// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrEmptyQueue indicates Dequeue was called on an empty unsynchronized queue
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrNoProcessor indicates Start was called before SetProcessor
	ErrNoProcessor = errors.New("no processor configured")

	// ErrPoolRunning indicates the pool has already been started
	ErrPoolRunning = errors.New("worker pool is already running")

	// ErrPoolClosed indicates the pool was stopped and cannot be restarted
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrInvalidConfig indicates a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnknownProcessorFailure indicates a processor panicked with a value
	// that is not an error
	ErrUnknownProcessorFailure = errors.New("unknown processor failure")
)

// FailureClass distinguishes recognized processor failures from unknown ones
type FailureClass int

const (
	// ProcessorFailure the processor returned an error or panicked with one
	ProcessorFailure FailureClass = iota
	// UnknownProcessorFailure the processor panicked with a non-error value
	UnknownProcessorFailure
)

// String returns the string representation of FailureClass
func (c FailureClass) String() string {
	switch c {
	case ProcessorFailure:
		return "processor_failure"
	case UnknownProcessorFailure:
		return "unknown_processor_failure"
	default:
		return "unknown"
	}
}

// ProcessorError represents a failure raised while processing one item
type ProcessorError[T any] struct {
	// Item is the work item that failed (type-safe)
	Item T

	// Shard is the shard the item was dequeued from
	Shard int

	// Worker is the worker that ran the processor
	Worker int

	// Class is the failure classification
	Class FailureClass

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// NewProcessorError creates a new processor error
func NewProcessorError[T any](item T, shard, worker int, class FailureClass, cause error) *ProcessorError[T] {
	return &ProcessorError[T]{
		Item:    item,
		Shard:   shard,
		Worker:  worker,
		Class:   class,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *ProcessorError[T]) Error() string {
	return fmt.Sprintf("%s on shard %d (worker %d): %v", e.Class, e.Shard, e.Worker, e.Cause)
}

// Unwrap returns the underlying error
func (e *ProcessorError[T]) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *ProcessorError[T]) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// WithContext adds error context
func (e *ProcessorError[T]) WithContext(key string, value interface{}) *ProcessorError[T] {
	e.Context[key] = value
	return e
}

// FailureInfo is the item-independent view of a ProcessorError, usable
// without knowing the item type
type FailureInfo interface {
	error
	FailureShard() int
	FailureWorker() int
	FailureClass() FailureClass
	FailureContext() map[string]interface{}
}

// FailureShard implements FailureInfo
func (e *ProcessorError[T]) FailureShard() int { return e.Shard }

// FailureWorker implements FailureInfo
func (e *ProcessorError[T]) FailureWorker() int { return e.Worker }

// FailureClass implements FailureInfo
func (e *ProcessorError[T]) FailureClass() FailureClass { return e.Class }

// FailureContext implements FailureInfo
func (e *ProcessorError[T]) FailureContext() map[string]interface{} { return e.Context }

// AsFailure extracts FailureInfo from an error chain
func AsFailure(err error) (FailureInfo, bool) {
	var info FailureInfo
	if errors.As(err, &info) {
		return info, true
	}
	return nil, false
}
