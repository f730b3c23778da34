package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jzx17/shardpool/pkg/queue"
	"github.com/jzx17/shardpool/pkg/types"
)

// Backend names a shard queue implementation
type Backend string

const (
	// BackendFIFO is a FIFO behind a single lock and condition variable
	BackendFIFO Backend = "fifo"
	// BackendBlock is the lock-split segmented block queue
	BackendBlock Backend = "block"
	// BackendHandoff is the single-slot rendezvous queue. Producers wait
	// until the previous item has been taken.
	BackendHandoff Backend = "handoff"
)

// Config defines configuration for a sharded pool
type Config struct {
	// Workers is the number of worker goroutines
	Workers int

	// Backend selects the shard queue implementation
	Backend Backend

	// BlockSize is the per-block capacity for BackendBlock
	BlockSize int

	// StopTimeout bounds Close. Zero waits forever.
	StopTimeout time.Duration

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle and failure events (optional, defaults to slog.Default)
	Logger *slog.Logger

	// Metrics is optional
	Metrics *Metrics

	// ErrorHandler is called for every processor failure after it is logged
	ErrorHandler types.ErrorHandler
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		Backend:     BackendFIFO,
		BlockSize:   queue.DefaultBlockSize,
		StopTimeout: 10 * time.Second,
		Clock:       types.NewRealClock(),
		Logger:      slog.Default(),
	}
}

// Validate checks value ranges and fills unset optional fields
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", types.ErrInvalidConfig, c.Workers)
	}
	if c.BlockSize < 0 {
		return fmt.Errorf("%w: block size must not be negative, got %d", types.ErrInvalidConfig, c.BlockSize)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("%w: stop timeout must not be negative, got %v", types.ErrInvalidConfig, c.StopTimeout)
	}

	switch c.Backend {
	case "":
		c.Backend = BackendFIFO
	case BackendFIFO, BackendBlock, BackendHandoff:
	default:
		return fmt.Errorf("%w: unknown backend %q", types.ErrInvalidConfig, c.Backend)
	}

	if c.BlockSize == 0 {
		c.BlockSize = queue.DefaultBlockSize
	}
	if c.Clock == nil {
		c.Clock = types.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// newShardQueue creates one shard queue for the configured backend
func newShardQueue[T any](c *Config) types.BlockingQueue[T] {
	switch c.Backend {
	case BackendBlock:
		return queue.NewBlockQueue[T](queue.WithBlockSize(c.BlockSize))
	case BackendHandoff:
		return queue.NewHandoff[T]()
	default:
		return queue.NewSynchronizedFIFO[T]()
	}
}
