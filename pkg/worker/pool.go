package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	internalerrors "github.com/jzx17/shardpool/internal/errors"
	"github.com/jzx17/shardpool/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Pool dispatches items to shard queues consumed by a fixed set of workers.
// The policy decides the shard layout; see NoOrdering and WeakOrdering.
type Pool[T any] struct {
	config  *Config
	policy  Policy[T]
	shards  []types.BlockingQueue[envelope[T]]
	workers []*worker[T]

	processor types.Processor[T]
	failures  *internalerrors.CountingHandler
	handler   internalerrors.ErrorHandler
	logger    *slog.Logger
	metrics   *Metrics
	depth     []prometheus.Gauge

	// state management
	state         int32 // atomic types.PoolState
	stopRequested atomic.Bool
	acceptMu      sync.RWMutex // read: accepting an item; write: Stop
	done          chan struct{}
	doneOnce      sync.Once
	wg            sync.WaitGroup

	// statistics
	submitted atomic.Int64
	dropped   atomic.Int64

	mu sync.Mutex // serializes SetProcessor, Start and Stop
}

// NewPool creates a pool with one queue per shard. Workers are spawned by Start.
func NewPool[T any](config *Config, policy Policy[T]) (*Pool[T], error) {
	if config == nil {
		config = DefaultConfig()
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: policy cannot be nil", types.ErrInvalidConfig)
	}

	// parameter validation
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shardCount := policy.Shards(cfg.Workers)
	if shardCount <= 0 || shardCount > cfg.Workers {
		return nil, fmt.Errorf("%w: policy %s wants %d shards for %d workers",
			types.ErrInvalidConfig, policy.Name(), shardCount, cfg.Workers)
	}

	p := &Pool[T]{
		config:   &cfg,
		policy:   policy,
		shards:   make([]types.BlockingQueue[envelope[T]], shardCount),
		workers:  make([]*worker[T], cfg.Workers),
		failures: internalerrors.NewCountingHandler(),
		logger:   cfg.Logger.With(slog.String("policy", policy.Name()), slog.String("backend", string(cfg.Backend))),
		metrics:  cfg.Metrics,
		done:     make(chan struct{}),
	}
	p.handler = failureChain(p.logger, p.failures, cfg.ErrorHandler)
	p.depth = p.metrics.shardGauges(shardCount)

	for i := range p.shards {
		p.shards[i] = newShardQueue[envelope[T]](&cfg)
	}

	// every shard needs at least one consumer or its items are stranded
	consumers := make([]int, shardCount)
	for i := range p.workers {
		shard := policy.Bind(i, shardCount)
		if shard < 0 || shard >= shardCount {
			return nil, fmt.Errorf("%w: policy %s bound worker %d to shard %d of %d",
				types.ErrInvalidConfig, policy.Name(), i, shard, shardCount)
		}
		consumers[shard]++
		p.workers[i] = newWorker(i, shard, p)
	}
	for shard, n := range consumers {
		if n == 0 {
			return nil, fmt.Errorf("%w: policy %s left shard %d without a worker",
				types.ErrInvalidConfig, policy.Name(), shard)
		}
	}

	return p, nil
}

// SetProcessor sets the per-item handler. It must be called before Start.
func (p *Pool[T]) SetProcessor(processor types.Processor[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.State() {
	case types.StateCreated:
	case types.StateStopped:
		return types.ErrPoolClosed
	default:
		return types.ErrPoolRunning
	}
	p.processor = processor
	return nil
}

// Start spawns the workers. ctx is passed to every processor call;
// cancelling it does not stop the workers, Stop does.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.processor == nil {
		return types.ErrNoProcessor
	}
	if !atomic.CompareAndSwapInt32(&p.state, int32(types.StateCreated), int32(types.StateRunning)) {
		if p.State() == types.StateStopped {
			return types.ErrPoolClosed
		}
		return types.ErrPoolRunning
	}

	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.run(ctx)
	}

	go func() {
		p.wg.Wait()
		p.finish()
	}()

	p.logger.Debug("pool started", slog.Int("workers", len(p.workers)), slog.Int("shards", len(p.shards)))
	return nil
}

// Add routes the item through the policy and enqueues it. After Stop the
// item is dropped silently.
func (p *Pool[T]) Add(item T) {
	p.enqueue(item, p.policy.Route(item, len(p.shards)))
}

// AddPartitioned is Add with a per-call partition function. Policies that do
// not route by key ignore it.
func (p *Pool[T]) AddPartitioned(item T, partition PartitionFunc[T]) {
	kr, ok := p.policy.(KeyRouter)
	if !ok || partition == nil {
		p.Add(item)
		return
	}
	p.enqueue(item, kr.RouteKey(partition(item), len(p.shards)))
}

func (p *Pool[T]) enqueue(item T, shard int) {
	// the read lock makes the stop check and the enqueue atomic with respect
	// to Stop, so no accepted item lands behind a shutdown marker
	p.acceptMu.RLock()
	if p.stopRequested.Load() {
		p.acceptMu.RUnlock()
		p.dropped.Add(1)
		p.metrics.dropped()
		p.logger.Debug("item dropped after stop", slog.Int("shard", shard))
		return
	}
	p.shards[shard].Enqueue(envelope[T]{item: item})
	if p.depth != nil {
		p.depth[shard].Inc()
	}
	p.acceptMu.RUnlock()

	p.submitted.Add(1)
	p.metrics.submitted()
}

// Stop requests shutdown and injects one marker per worker into the shard it
// consumes. Items already queued are drained first. Stop does not wait for
// the workers; use Wait or Close. Calling Stop more than once has no effect.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// never started: nothing will consume markers, and an Add blocked on a
	// full handoff shard still holds the accept read lock
	if atomic.CompareAndSwapInt32(&p.state, int32(types.StateCreated), int32(types.StateStopped)) {
		p.stopRequested.Store(true)
		p.logger.Debug("pool stopped before start", slog.Int("abandoned", p.Size()))
		p.closeDone()
		return
	}
	// stopRequested is only written under p.mu
	if p.stopRequested.Load() {
		return
	}

	p.acceptMu.Lock()
	defer p.acceptMu.Unlock()
	p.stopRequested.Store(true)

	if !atomic.CompareAndSwapInt32(&p.state, int32(types.StateRunning), int32(types.StateStopping)) {
		return
	}

	for _, w := range p.workers {
		p.shards[w.shard].Enqueue(envelope[T]{shutdown: true})
	}
	p.logger.Debug("pool stopping", slog.Int("queued", p.Size()))
}

// Wait blocks until every worker has exited
func (p *Pool[T]) Wait() {
	<-p.done
}

// Done returns a channel closed once every worker has exited
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Close stops the pool and waits for the workers, bounded by StopTimeout
func (p *Pool[T]) Close() error {
	p.Stop()

	if p.config.StopTimeout <= 0 {
		p.Wait()
		return nil
	}

	timer := p.config.Clock.NewTimer(p.config.StopTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C():
		return fmt.Errorf("%w: workers still running after %v", types.ErrTimeout, p.config.StopTimeout)
	}
}

// State returns the lifecycle state
func (p *Pool[T]) State() types.PoolState {
	return types.PoolState(atomic.LoadInt32(&p.state))
}

// IsRunning reports whether workers are consuming and new items are accepted
func (p *Pool[T]) IsRunning() bool {
	return p.State() == types.StateRunning && !p.stopRequested.Load()
}

// Size returns the advisory number of entries queued across shards,
// pending shutdown markers included
func (p *Pool[T]) Size() int {
	total := 0
	for _, q := range p.shards {
		total += q.Size()
	}
	return total
}

// ShardSize returns the advisory size of one shard, or 0 for an unknown index
func (p *Pool[T]) ShardSize(shard int) int {
	if shard < 0 || shard >= len(p.shards) {
		return 0
	}
	return p.shards[shard].Size()
}

// Shards returns the number of shard queues
func (p *Pool[T]) Shards() int {
	return len(p.shards)
}

// Stats gets pool statistics
func (p *Pool[T]) Stats() types.PoolStats {
	stats := types.PoolStats{
		Policy:          p.policy.Name(),
		Backend:         string(p.config.Backend),
		Workers:         len(p.workers),
		Submitted:       p.submitted.Load(),
		Dropped:         p.dropped.Load(),
		UnknownFailures: p.failures.Count(types.UnknownProcessorFailure),
		Shards:          make([]types.ShardStats, len(p.shards)),
	}

	for i, q := range p.shards {
		stats.Shards[i] = types.ShardStats{Index: i, Depth: q.Size()}
	}
	for _, w := range p.workers {
		ws := w.Stats()
		stats.Processed += ws.TotalProcessed
		stats.Failed += ws.TotalFailed
		stats.Shards[ws.Shard].Consumers++
		if ws.IsActive() {
			stats.ActiveWorkers++
		}
	}
	return stats
}

// WorkerStats returns per-worker statistics ordered by worker id
func (p *Pool[T]) WorkerStats() []WorkerStats {
	out := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.Stats()
	}
	return out
}

// handleFailure passes a processor failure through the handler chain and
// returns its class
func (p *Pool[T]) handleFailure(ctx context.Context, err error, item T) types.FailureClass {
	errCtx := internalerrors.NewErrorContext(err, item, p.config.Clock.Now())
	if herr := p.handler.HandleError(ctx, errCtx); herr != nil {
		p.logger.Debug("error handler returned error", slog.String("error", herr.Error()))
	}
	return errCtx.Class
}

func (p *Pool[T]) shardDequeued(shard int) {
	if p.depth != nil {
		p.depth[shard].Dec()
	}
}

func (p *Pool[T]) finish() {
	atomic.StoreInt32(&p.state, int32(types.StateStopped))
	p.logger.Debug("pool stopped")
	p.closeDone()
}

func (p *Pool[T]) closeDone() {
	p.doneOnce.Do(func() { close(p.done) })
}
