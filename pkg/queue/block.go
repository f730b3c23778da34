package queue

import (
	"sync"
	"sync/atomic"

	"github.com/jzx17/shardpool/pkg/types"
)

// DefaultBlockSize is the number of items per block when no size is given
const DefaultBlockSize = 512

// block holds up to blockSize items and the link to its successor.
// next is written once, by the producer that fills the last slot.
type block[T any] struct {
	items []T
	next  *block[T]
}

type headCursor[T any] struct {
	mu  sync.Mutex
	blk *block[T]
	off int
}

type tailCursor[T any] struct {
	mu  sync.Mutex
	blk *block[T]
	off int
}

type blockOptions struct {
	blockSize int
}

// BlockOption configures a BlockQueue
type BlockOption func(*blockOptions)

// WithBlockSize sets the number of items per block. Values below 1 are ignored.
func WithBlockSize(n int) BlockOption {
	return func(opts *blockOptions) {
		if n > 0 {
			opts.blockSize = n
		}
	}
}

// BlockQueue is an unbounded MPMC queue made of a chain of fixed-capacity
// blocks with independent head and tail locks.
//
// The head cursor owns the chain from the block being read onwards; the tail
// cursor only references the block being appended to. Head moves into a
// block only after the tail has linked that block's successor, so the two
// locks never need to be held together.
type BlockQueue[T any] struct {
	head headCursor[T]

	// keep producer state off the consumer cache line
	_pad [64]byte //nolint:unused

	tail tailCursor[T]

	count    atomic.Int64
	waiters  atomic.Int32
	blocks   atomic.Int64
	nonEmpty *sync.Cond

	blockSize int
	slices    *types.SlicePool[T]
}

// NewBlockQueue creates an empty BlockQueue holding a single block
func NewBlockQueue[T any](opts ...BlockOption) *BlockQueue[T] {
	options := blockOptions{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&options)
	}

	q := &BlockQueue[T]{
		blockSize: options.blockSize,
		slices:    types.NewSlicePool[T](options.blockSize),
	}
	q.nonEmpty = sync.NewCond(&q.head.mu)

	first := q.newBlock()
	q.head.blk = first
	q.tail.blk = first

	return q
}

// BlockSize returns the capacity of each block
func (q *BlockQueue[T]) BlockSize() int {
	return q.blockSize
}

// Blocks returns the number of blocks currently in the chain
func (q *BlockQueue[T]) Blocks() int {
	return int(q.blocks.Load())
}

// Enqueue appends an item at the tail and wakes one waiting consumer
func (q *BlockQueue[T]) Enqueue(item T) {
	q.tail.mu.Lock()
	blk := q.tail.blk
	blk.items[q.tail.off] = item
	q.tail.off++
	if q.tail.off == q.blockSize {
		next := q.newBlock()
		blk.next = next
		q.tail.blk = next
		q.tail.off = 0
	}
	// increment under the tail lock: a positive count always covers
	// items whose slots are already written
	q.count.Add(1)
	q.tail.mu.Unlock()

	// A consumer publishes itself in waiters before it checks count, and we
	// check waiters after publishing count, so one of the two sides always
	// observes the other. Taking the head lock orders Signal after Wait.
	if q.waiters.Load() > 0 {
		q.head.mu.Lock()
		q.nonEmpty.Signal()
		q.head.mu.Unlock()
	}
}

// TryDequeue removes the head item without waiting
func (q *BlockQueue[T]) TryDequeue() (T, bool) {
	q.head.mu.Lock()
	defer q.head.mu.Unlock()

	if q.count.Load() == 0 {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

// Dequeue removes the head item, waiting while the queue is empty.
// The returned error is always nil.
func (q *BlockQueue[T]) Dequeue() (T, error) {
	q.head.mu.Lock()
	defer q.head.mu.Unlock()

	if q.count.Load() == 0 {
		q.waiters.Add(1)
		for q.count.Load() == 0 {
			q.nonEmpty.Wait()
		}
		q.waiters.Add(-1)
	}
	return q.popLocked(), nil
}

// Empty reports whether the counter is zero. Lock-free snapshot.
func (q *BlockQueue[T]) Empty() bool {
	return q.count.Load() == 0
}

// Size returns the counter value. Lock-free snapshot.
func (q *BlockQueue[T]) Size() int {
	return int(q.count.Load())
}

// popLocked reads the head item; caller holds the head lock and has seen a
// positive count
func (q *BlockQueue[T]) popLocked() T {
	var zero T

	blk := q.head.blk
	item := blk.items[q.head.off]
	blk.items[q.head.off] = zero
	q.head.off++

	if q.head.off == q.blockSize {
		// next was linked before the count covering this slot was published
		q.head.blk = blk.next
		q.head.off = 0
		q.releaseBlock(blk)
	}

	q.count.Add(-1)
	return item
}

func (q *BlockQueue[T]) newBlock() *block[T] {
	q.blocks.Add(1)
	return &block[T]{items: q.slices.Get()}
}

func (q *BlockQueue[T]) releaseBlock(blk *block[T]) {
	q.blocks.Add(-1)
	q.slices.Put(blk.items)
	blk.items = nil
	blk.next = nil
}
