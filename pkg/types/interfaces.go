// Package types defines the core contracts shared by the queue backends and the worker pool
package types

import (
	"context"
)

// Queue is the capability set every queue backend provides.
//
// Empty and Size are advisory snapshots. They are not atomic with respect to
// concurrent mutation unless the backend documents otherwise, and must never
// be used as a precondition for an unsynchronized Dequeue.
type Queue[T any] interface {
	// Enqueue inserts an item at the tail
	Enqueue(item T)

	// Dequeue removes and returns the oldest item.
	// Blocking backends wait until an item is available; unsynchronized
	// backends return ErrEmptyQueue instead.
	Dequeue() (T, error)

	// Empty reports whether the queue currently holds no items
	Empty() bool

	// Size returns the current number of items
	Size() int
}

// BlockingQueue is a Queue that is safe for concurrent use and whose Dequeue
// waits for an item. Dequeue on a BlockingQueue always returns a nil error.
type BlockingQueue[T any] interface {
	Queue[T]

	// TryDequeue removes the oldest item without waiting.
	// It returns false when the queue is empty.
	TryDequeue() (T, bool)
}

// Processor handles one work item. It receives ownership of the item and may
// be invoked concurrently from different shard workers.
type Processor[T any] func(ctx context.Context, item T) error

// ErrorHandler defines an error handling function (simple version for callers
// that do not want structured handling). Returning a non-nil error has no
// effect on the worker loop.
type ErrorHandler func(error) error

// PoolState defines the lifecycle state of a worker pool
type PoolState int32

const (
	// StateCreated pool has been constructed but not started
	StateCreated PoolState = iota
	// StateRunning workers are consuming
	StateRunning
	// StateStopping stop was requested, workers are draining
	StateStopping
	// StateStopped every worker has exited
	StateStopped
)

// String returns the string representation of PoolState
func (ps PoolState) String() string {
	switch ps {
	case StateCreated:
		return "Created"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// PoolStats defines basic statistics for a sharded pool
type PoolStats struct {
	// Policy is the name of the sequencing policy
	Policy string

	// Backend is the name of the queue backend
	Backend string

	// Workers is the number of worker goroutines
	Workers int

	// ActiveWorkers is the number of workers currently inside the processor
	ActiveWorkers int

	// Submitted counts items accepted by Add
	Submitted int64

	// Dropped counts items rejected because stop was requested
	Dropped int64

	// Processed counts items the processor handled without failure
	Processed int64

	// Failed counts items whose processing returned an error or panicked
	Failed int64

	// UnknownFailures is the part of Failed caused by panics with non-error values
	UnknownFailures int64

	// Shards holds per-shard snapshots
	Shards []ShardStats
}

// QueueSize returns the number of items queued across all shards
func (s PoolStats) QueueSize() int {
	total := 0
	for _, sh := range s.Shards {
		total += sh.Depth
	}
	return total
}

// ShardStats is a snapshot of one shard
type ShardStats struct {
	// Index is the shard number
	Index int

	// Depth is the advisory queue size, pending shutdown markers included
	Depth int

	// Consumers is the number of workers bound to the shard
	Consumers int
}
