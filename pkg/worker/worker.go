package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	internalerrors "github.com/jzx17/shardpool/internal/errors"
	"github.com/jzx17/shardpool/pkg/types"
)

// WorkerState defines the state of a worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// envelope is one shard queue entry: a work item or a shutdown marker
type envelope[T any] struct {
	item     T
	shutdown bool
}

// worker consumes one shard until it takes a shutdown marker
type worker[T any] struct {
	id    int
	shard int
	pool  *Pool[T]
	queue types.BlockingQueue[envelope[T]]

	state int32 // atomic state

	// statistics
	totalProcessed int64
	totalFailed    int64
	lastTaskTime   int64 // Unix nanosecond timestamp
}

func newWorker[T any](id, shard int, pool *Pool[T]) *worker[T] {
	return &worker[T]{
		id:    id,
		shard: shard,
		pool:  pool,
		queue: pool.shards[shard],
		state: int32(WorkerStateIdle),
	}
}

// run is the consumption loop. Every accepted item precedes the markers on
// its shard, so taking a marker means no real item is left for this worker.
func (w *worker[T]) run(ctx context.Context) {
	defer w.pool.wg.Done()
	defer atomic.StoreInt32(&w.state, int32(WorkerStateStopped))

	logger := w.pool.logger
	logger.Debug("worker started", slog.Int("worker", w.id), slog.Int("shard", w.shard))

	for {
		e, err := w.queue.Dequeue()
		if err != nil {
			// blocking backends never fail; treat it as a fatal programming error
			logger.Error("shard dequeue failed", slog.Int("worker", w.id), slog.Int("shard", w.shard),
				slog.String("error", err.Error()))
			return
		}
		if e.shutdown {
			logger.Debug("worker exiting", slog.Int("worker", w.id), slog.Int("shard", w.shard))
			return
		}
		w.pool.shardDequeued(w.shard)
		w.process(ctx, e.item)
	}
}

// process runs the processor for one item and records the outcome
func (w *worker[T]) process(ctx context.Context, item T) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	clock := w.pool.config.Clock
	startTime := clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())
	w.pool.metrics.started()

	err := w.execute(ctx, item)

	executionTime := clock.Since(startTime)
	class := types.ProcessorFailure
	if err != nil {
		atomic.AddInt64(&w.totalFailed, 1)
		class = w.pool.handleFailure(ctx, err, item)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}
	w.pool.metrics.finished(executionTime, err, class)
}

// execute runs the processor with panic recovery support
func (w *worker[T]) execute(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// record panic information
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var pe *types.ProcessorError[T]
			switch v := r.(type) {
			case error:
				pe = types.NewProcessorError(item, w.shard, w.id, types.ProcessorFailure,
					fmt.Errorf("panic: %w", v))
			default:
				pe = types.NewProcessorError(item, w.shard, w.id, types.UnknownProcessorFailure,
					fmt.Errorf("%w: panic: %v", types.ErrUnknownProcessorFailure, v))
			}
			pe.WithContext("stack_trace", string(buf[:n]))
			err = pe
		}
	}()

	if perr := w.pool.processor(ctx, item); perr != nil {
		return types.NewProcessorError(item, w.shard, w.id, types.ProcessorFailure, perr)
	}
	return nil
}

// State returns the current worker state
func (w *worker[T]) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// Stats gets worker statistics
func (w *worker[T]) Stats() WorkerStats {
	stats := WorkerStats{
		ID:             w.id,
		Shard:          w.shard,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
	}
	if last := atomic.LoadInt64(&w.lastTaskTime); last != 0 {
		stats.LastTaskTime = time.Unix(0, last)
	}
	return stats
}

// WorkerStats defines worker statistics
type WorkerStats struct {
	ID             int
	Shard          int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time
}

// IsActive checks if the worker is running the processor
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if the worker is waiting for an item
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalProcessed) / float64(total)
}

// GetErrorRate gets the error rate
func (ws WorkerStats) GetErrorRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}

// failureChain builds the handlers every processor failure passes through
func failureChain(logger *slog.Logger, counts *internalerrors.CountingHandler, fn types.ErrorHandler) *internalerrors.ChainHandler {
	return internalerrors.NewChainHandler(
		internalerrors.NewLogHandler(logger),
		counts,
		internalerrors.NewFuncHandler(fn),
	)
}
