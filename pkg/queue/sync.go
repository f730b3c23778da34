package queue

import (
	"sync"

	"github.com/jzx17/shardpool/pkg/types"
)

// Synchronized wraps any types.Queue with a single lock and a condition
// variable, making it safe for concurrent use and blocking on Dequeue.
type Synchronized[T any] struct {
	backend  types.Queue[T]
	mu       sync.Mutex
	notEmpty *sync.Cond
}

// NewSynchronized wraps backend. The backend must not be shared with
// code that bypasses the wrapper.
func NewSynchronized[T any](backend types.Queue[T]) *Synchronized[T] {
	s := &Synchronized[T]{backend: backend}
	s.notEmpty = sync.NewCond(&s.mu)
	return s
}

// NewSynchronizedFIFO returns a Synchronized queue over a fresh FIFO
func NewSynchronizedFIFO[T any]() *Synchronized[T] {
	return NewSynchronized[T](NewFIFO[T]())
}

// Enqueue delegates to the backend and wakes one waiting consumer
func (s *Synchronized[T]) Enqueue(item T) {
	s.mu.Lock()
	s.backend.Enqueue(item)
	s.notEmpty.Signal()
	s.mu.Unlock()
}

// Dequeue waits until the backend is non-empty, then delegates
func (s *Synchronized[T]) Dequeue() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.backend.Empty() {
		s.notEmpty.Wait()
	}
	return s.backend.Dequeue()
}

// TryDequeue removes the head item if one is present
func (s *Synchronized[T]) TryDequeue() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend.Empty() {
		var zero T
		return zero, false
	}
	item, err := s.backend.Dequeue()
	if err != nil {
		return item, false
	}
	return item, true
}

// Empty reports whether the backend is empty.
// The result is a snapshot and may be stale by the time it is used.
func (s *Synchronized[T]) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Empty()
}

// Size returns a snapshot of the backend size
func (s *Synchronized[T]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Size()
}
