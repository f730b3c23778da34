/*
Package queue provides the queue backends a worker pool can shard work over.

# Backends

## FIFO

Unsynchronized slice-backed deque. Dequeue on an empty FIFO returns
types.ErrEmptyQueue. Not safe for concurrent use on its own; wrap it in
Synchronized.

## Synchronized

Decorator that makes any types.Queue safe for concurrent use and blocking.
A single mutex guards the backend and a condition variable wakes one waiting
consumer per Enqueue.

## BlockQueue

Multi-producer multi-consumer queue built from a chain of fixed-capacity
blocks. Producers serialize on a tail lock and consumers on a head lock, so
the two sides only meet through an atomic item counter and the next link of
a block, which is written exactly once. Drained blocks are recycled.

## Handoff

Single-slot rendezvous. Enqueue waits until the previous value has been
taken, so producers feel backpressure.

# Usage

	q := queue.NewBlockQueue[string](queue.WithBlockSize(256))
	q.Enqueue("a")

	v, _ := q.Dequeue() // blocks while empty
	if v, ok := q.TryDequeue(); ok {
		fmt.Println(v)
	}
*/
package queue
