package queue

import (
	"sync"
)

// Handoff is a zero-buffering single-slot queue. Enqueue waits until the
// previously enqueued value has been taken by a consumer.
type Handoff[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	slot     T
	full     bool
}

// NewHandoff creates an empty Handoff queue
func NewHandoff[T any]() *Handoff[T] {
	h := &Handoff[T]{}
	h.notEmpty = sync.NewCond(&h.mu)
	h.notFull = sync.NewCond(&h.mu)
	return h
}

// Enqueue waits for the slot to be free, then fills it
func (h *Handoff[T]) Enqueue(item T) {
	h.mu.Lock()
	for h.full {
		h.notFull.Wait()
	}
	h.slot = item
	h.full = true
	h.notEmpty.Signal()
	h.mu.Unlock()
}

// Dequeue waits for the slot to be filled, then takes the value.
// The returned error is always nil.
func (h *Handoff[T]) Dequeue() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for !h.full {
		h.notEmpty.Wait()
	}
	return h.takeLocked(), nil
}

// TryDequeue takes the value if the slot is filled
func (h *Handoff[T]) TryDequeue() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		var zero T
		return zero, false
	}
	return h.takeLocked(), true
}

// Empty reports whether the slot is free
func (h *Handoff[T]) Empty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.full
}

// Size returns 1 when the slot is filled, 0 otherwise
func (h *Handoff[T]) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return 1
	}
	return 0
}

func (h *Handoff[T]) takeLocked() T {
	var zero T
	item := h.slot
	h.slot = zero
	h.full = false
	h.notFull.Signal()
	return item
}
