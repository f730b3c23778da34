package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/shardpool/internal/testutils"
	"github.com/jzx17/shardpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPool_HighLoad high load integration test
func TestPool_HighLoad(t *testing.T) {
	const (
		producers   = 8
		perProducer = 5000
	)

	for _, backend := range []Backend{BackendFIFO, BackendBlock} {
		t.Run(string(backend), func(t *testing.T) {
			var completed atomic.Int64
			pool := startPool(t, testConfig(16, backend), NoOrdering[int](), func(context.Context, int) error {
				completed.Add(1)
				return nil
			})

			start := time.Now()
			var wg sync.WaitGroup
			wg.Add(producers)
			for p := 0; p < producers; p++ {
				go func() {
					defer wg.Done()
					for i := 0; i < perProducer; i++ {
						pool.Add(i)
					}
				}()
			}
			wg.Wait()
			require.NoError(t, pool.Close())

			duration := time.Since(start)
			t.Logf("Processed %d items in %v", completed.Load(), duration)
			t.Logf("Throughput: %.2f items/second", float64(completed.Load())/duration.Seconds())

			assert.Equal(t, int64(producers*perProducer), completed.Load())
		})
	}
}

// TestPool_ConcurrentPartitionedProducers checks per-key order when every
// key has its own producer goroutine
func TestPool_ConcurrentPartitionedProducers(t *testing.T) {
	const (
		keys   = 8
		perKey = 1000
	)

	var mu sync.Mutex
	next := make(map[string]int)
	violations := 0

	pool := startPool(t, testConfig(4, BackendBlock), WeakOrdering(func(k keyed) string { return k.Key }),
		func(_ context.Context, k keyed) error {
			mu.Lock()
			defer mu.Unlock()
			if next[k.Key] != k.Seq {
				violations++
			}
			next[k.Key] = k.Seq + 1
			return nil
		})

	var wg sync.WaitGroup
	wg.Add(keys)
	for k := 0; k < keys; k++ {
		go func(key string) {
			defer wg.Done()
			for seq := 0; seq < perKey; seq++ {
				pool.Add(keyed{Key: key, Seq: seq})
			}
		}(string(rune('A' + k)))
	}
	wg.Wait()
	require.NoError(t, pool.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, violations)
	for k := 0; k < keys; k++ {
		assert.Equal(t, perKey, next[string(rune('A'+k))])
	}
}

// TestPool_StopRacesAdd verifies that every accepted item is processed even
// when Stop lands in the middle of concurrent submission
func TestPool_StopRacesAdd(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(string(backend), func(t *testing.T) {
			var processed atomic.Int64
			pool := startPool(t, testConfig(3, backend), WeakOrdering(PartitionByInt(func(i int) int { return i })),
				func(context.Context, int) error {
					processed.Add(1)
					return nil
				})

			const producers, perProducer = 4, 2000
			var wg sync.WaitGroup
			wg.Add(producers)
			for p := 0; p < producers; p++ {
				go func() {
					defer wg.Done()
					for i := 0; i < perProducer; i++ {
						pool.Add(i)
					}
				}()
			}

			testutils.AssertEventually(t, func() bool { return pool.Stats().Submitted > 100 })
			pool.Stop()
			wg.Wait()
			require.NoError(t, pool.Close())

			stats := pool.Stats()
			assert.Equal(t, int64(producers*perProducer), stats.Submitted+stats.Dropped)
			assert.Equal(t, stats.Submitted, processed.Load(), "accepted items must all be processed")
			assert.Equal(t, 0, stats.QueueSize())
			assert.Equal(t, types.StateStopped, pool.State())
		})
	}
}

// TestPool_GracefulShutdown graceful shutdown test
func TestPool_GracefulShutdown(t *testing.T) {
	var started, completed atomic.Int64
	pool := startPool(t, testConfig(3, BackendFIFO), NoOrdering[int](), func(context.Context, int) error {
		started.Add(1)
		time.Sleep(time.Millisecond)
		completed.Add(1)
		return nil
	})

	for i := 0; i < 30; i++ {
		pool.Add(i)
	}

	start := time.Now()
	require.NoError(t, pool.Close())
	shutdownDuration := time.Since(start)

	t.Logf("Started: %d, Completed: %d", started.Load(), completed.Load())
	t.Logf("Shutdown took: %v", shutdownDuration)

	assert.Equal(t, int64(30), completed.Load())
	assert.Less(t, shutdownDuration, 10*time.Second)

	// items after close are dropped, not queued
	pool.Add(99)
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, int64(1), pool.Stats().Dropped)
}

// BenchmarkPool_Add measures submission and processing of trivial items
func BenchmarkPool_Add(b *testing.B) {
	for _, backend := range []Backend{BackendFIFO, BackendBlock} {
		b.Run(string(backend), func(b *testing.B) {
			pool, err := NewPool[int](testConfig(8, backend), NoOrdering[int]())
			require.NoError(b, err)
			require.NoError(b, pool.SetProcessor(func(context.Context, int) error { return nil }))
			require.NoError(b, pool.Start(context.Background()))

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					pool.Add(i)
					i++
				}
			})
			b.StopTimer()
			require.NoError(b, pool.Close())
		})
	}
}
