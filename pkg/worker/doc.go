/*
Package worker provides a sharded worker pool that dispatches submitted items
to a fixed set of worker goroutines under a caller-selected ordering policy.

# Overview

A Pool owns one or more shard queues and a fixed number of workers:
  - Producers call Add and never block (except on the handoff backend)
  - Each worker consumes exactly one shard for its whole life
  - A processor failure or panic is isolated to the item that caused it
  - Stop drains every accepted item before the workers exit

# Policies

NoOrdering creates one shared queue and binds every worker to it. Items are
processed as fast as the workers can take them, in no particular order.

WeakOrdering creates one queue per worker. An item's partition key is hashed
with murmur3 onto a shard, so items with equal keys are processed by the same
worker in the order they were added. Items with different keys may interleave.

Custom policies implement Policy. A policy that also implements KeyRouter
honors the per-call PartitionFunc given to AddPartitioned.

# Backends

Config.Backend selects the shard queue implementation from package queue:
  - BackendFIFO: FIFO behind one mutex and condition variable (default)
  - BackendBlock: lock-split block chain for many producers and consumers
  - BackendHandoff: single-slot rendezvous; Add waits for the previous item
    to be taken, and Stop may wait for workers to take their markers

# Lifecycle

	pool, err := worker.NewPool(cfg, worker.WeakOrdering(byCustomer))
	if err != nil {
		return err
	}
	_ = pool.SetProcessor(func(ctx context.Context, o Order) error {
		return ship(ctx, o)
	})
	if err := pool.Start(ctx); err != nil {
		return err
	}
	for _, o := range orders {
		pool.Add(o)
	}
	return pool.Close()

Stop sets the stop flag and enqueues one shutdown marker per worker on the
shard it consumes, under the same lock Add holds while enqueueing. Every
accepted item therefore precedes the markers, and a worker exits as soon as
it takes one. Items added after Stop are dropped and counted in Stats.

Markers are queue entries tagged as shutdown, never values of T, so the zero
value of T is an ordinary work item.

# Error Handling

A processor error is wrapped in a types.ProcessorError carrying the item,
shard and worker. A panic with an error value is a ProcessorFailure; a panic
with any other value is an UnknownProcessorFailure. Each failure is logged
through Config.Logger, counted, and passed to Config.ErrorHandler. None of
them reach Add or Stop callers.

# Metrics

Config.Metrics, created with NewMetrics, exposes submitted, dropped,
processed and failed counters, active workers, per-shard depth and a
processor latency histogram.
*/
package worker
