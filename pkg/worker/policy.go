package worker

import (
	"strconv"

	"github.com/spaolacci/murmur3"
)

// PartitionFunc maps a work item to its partition key
type PartitionFunc[T any] func(item T) string

// Policy decides how many shards a pool has, which shard each worker
// consumes and which shard each item is enqueued to.
type Policy[T any] interface {
	// Name returns the policy name used in stats and logs
	Name() string

	// Shards returns the number of shard queues for the given worker count
	Shards(workers int) int

	// Bind returns the shard consumed by a worker
	Bind(worker, shards int) int

	// Route returns the shard an item is enqueued to
	Route(item T, shards int) int
}

// KeyRouter is implemented by policies that route by partition key. Pools
// use it to honor a per-call PartitionFunc.
type KeyRouter interface {
	RouteKey(key string, shards int) int
}

// ShardFor hashes a partition key onto one of shards.
// Equal keys always map to the same shard.
func ShardFor(key string, shards int) int {
	if shards <= 1 {
		return 0
	}
	return int(murmur3.Sum32([]byte(key)) % uint32(shards))
}

// NoOrderingPolicy shares a single queue between every worker. Items are
// processed in no particular order.
type NoOrderingPolicy[T any] struct{}

// NoOrdering returns the maximum throughput policy
func NoOrdering[T any]() *NoOrderingPolicy[T] {
	return &NoOrderingPolicy[T]{}
}

// Name implements Policy
func (p *NoOrderingPolicy[T]) Name() string { return "NoOrdering" }

// Shards implements Policy
func (p *NoOrderingPolicy[T]) Shards(workers int) int { return 1 }

// Bind implements Policy
func (p *NoOrderingPolicy[T]) Bind(worker, shards int) int { return 0 }

// Route implements Policy
func (p *NoOrderingPolicy[T]) Route(item T, shards int) int { return 0 }

// WeakOrderingPolicy gives every worker its own shard and hashes each item's
// partition key onto a shard. Items with equal keys are processed in
// submission order.
type WeakOrderingPolicy[T any] struct {
	partition PartitionFunc[T]
}

// WeakOrdering returns a per-key ordering policy. A nil partition routes
// every item to the same shard.
func WeakOrdering[T any](partition PartitionFunc[T]) *WeakOrderingPolicy[T] {
	if partition == nil {
		partition = PartitionConstant[T]("")
	}
	return &WeakOrderingPolicy[T]{partition: partition}
}

// Name implements Policy
func (p *WeakOrderingPolicy[T]) Name() string { return "WeakOrdering" }

// Shards implements Policy
func (p *WeakOrderingPolicy[T]) Shards(workers int) int { return workers }

// Bind implements Policy
func (p *WeakOrderingPolicy[T]) Bind(worker, shards int) int { return worker % shards }

// Route implements Policy
func (p *WeakOrderingPolicy[T]) Route(item T, shards int) int {
	return p.RouteKey(p.partition(item), shards)
}

// RouteKey implements KeyRouter
func (p *WeakOrderingPolicy[T]) RouteKey(key string, shards int) int {
	return ShardFor(key, shards)
}

// PartitionConstant puts every item in the same partition
func PartitionConstant[T any](key string) PartitionFunc[T] {
	return func(T) string { return key }
}

// PartitionByString uses a string item as its own key
func PartitionByString[T ~string]() PartitionFunc[T] {
	return func(item T) string { return string(item) }
}

// PartitionByInt derives the key from an integer field of the item
func PartitionByInt[T any](field func(T) int) PartitionFunc[T] {
	return func(item T) string { return strconv.Itoa(field(item)) }
}
