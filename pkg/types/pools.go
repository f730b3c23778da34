// Package types provides object pools for performance optimization
package types

import (
	"sync"
)

// SlicePool manages fixed-length []T buffers to reduce GC pressure.
// Every buffer handed out by Get has length Size.
type SlicePool[T any] struct {
	size int
	pool sync.Pool
}

// NewSlicePool creates a new pool of buffers of the given length
func NewSlicePool[T any](size int) *SlicePool[T] {
	sp := &SlicePool[T]{size: size}
	sp.pool.New = func() interface{} {
		buf := make([]T, size)
		return &buf
	}
	return sp
}

// Size returns the length of the buffers managed by the pool
func (sp *SlicePool[T]) Size() int {
	return sp.size
}

// Get retrieves a zeroed buffer from the pool or allocates a new one
func (sp *SlicePool[T]) Get() []T {
	return *(sp.pool.Get().(*[]T))
}

// Put returns a buffer to the pool after zeroing it.
// Buffers of the wrong length are dropped.
func (sp *SlicePool[T]) Put(buf []T) {
	if len(buf) != sp.size {
		return
	}
	// Reset the buffer to prevent memory leaks
	clear(buf)
	sp.pool.Put(&buf)
}
