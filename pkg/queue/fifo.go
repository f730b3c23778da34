package queue

import (
	"github.com/jzx17/shardpool/pkg/types"
)

// compactThreshold is the consumed prefix length after which the backing
// array is compacted
const compactThreshold = 64

// FIFO is an unsynchronized deque with FIFO Enqueue/Dequeue semantics.
// It is not safe for concurrent use.
type FIFO[T any] struct {
	items []T
	head  int
}

// NewFIFO creates an empty FIFO
func NewFIFO[T any]() *FIFO[T] {
	return &FIFO[T]{}
}

// Enqueue appends an item at the tail
func (f *FIFO[T]) Enqueue(item T) {
	f.items = append(f.items, item)
}

// PushFront inserts an item at the head
func (f *FIFO[T]) PushFront(item T) {
	if f.head > 0 {
		f.head--
		f.items[f.head] = item
		return
	}

	var zero T
	f.items = append(f.items, zero)
	copy(f.items[1:], f.items)
	f.items[0] = item
}

// Dequeue removes and returns the item at the head.
// It returns types.ErrEmptyQueue when the FIFO is empty.
func (f *FIFO[T]) Dequeue() (T, error) {
	var zero T
	if f.Empty() {
		return zero, types.ErrEmptyQueue
	}

	item := f.items[f.head]
	f.items[f.head] = zero
	f.head++
	f.compact()

	return item, nil
}

// PopBack removes and returns the item at the tail
func (f *FIFO[T]) PopBack() (T, error) {
	var zero T
	if f.Empty() {
		return zero, types.ErrEmptyQueue
	}

	last := len(f.items) - 1
	item := f.items[last]
	f.items[last] = zero
	f.items = f.items[:last]
	f.compact()

	return item, nil
}

// Peek returns the item at the head without removing it
func (f *FIFO[T]) Peek() (T, bool) {
	if f.Empty() {
		var zero T
		return zero, false
	}
	return f.items[f.head], true
}

// Empty reports whether the FIFO holds no items
func (f *FIFO[T]) Empty() bool {
	return f.Size() == 0
}

// Size returns the number of items
func (f *FIFO[T]) Size() int {
	return len(f.items) - f.head
}

func (f *FIFO[T]) compact() {
	switch {
	case f.head == len(f.items):
		f.items = f.items[:0]
		f.head = 0
	case f.head >= compactThreshold && f.head*2 >= len(f.items):
		n := copy(f.items, f.items[f.head:])
		clear(f.items[n:])
		f.items = f.items[:n]
		f.head = 0
	}
}
