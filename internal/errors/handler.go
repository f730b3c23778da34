// Package errors turns processor failures into structured log events and counters
package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/shardpool/pkg/types"
)

// ErrorHandler handles one processor failure
type ErrorHandler interface {
	// HandleError handles the error, returns processed error or nil if handled
	HandleError(ctx context.Context, errCtx *ErrorContext) error

	// Name returns the name of the error handler
	Name() string

	// CanHandle determines if it can handle specific type of error
	CanHandle(err error) bool
}

// ErrorContext describes where a failure happened
type ErrorContext struct {
	// Error that occurred
	Error error

	// Class is the failure classification
	Class types.FailureClass

	// Shard the item was dequeued from, -1 when unknown
	Shard int

	// Worker that ran the processor, -1 when unknown
	Worker int

	// InputData is the item that caused the error
	InputData interface{}

	// InputType is the type information of the item
	InputType reflect.Type

	// Timestamp when the error occurred
	Timestamp time.Time

	// Metadata contains additional metadata information
	Metadata map[string]interface{}
}

// NewErrorContext creates an error context. Shard, worker, class and
// metadata are taken from a types.ProcessorError in the chain when present.
func NewErrorContext(err error, inputData interface{}, now time.Time) *ErrorContext {
	errCtx := &ErrorContext{
		Error:     err,
		Class:     Classify(err),
		Shard:     -1,
		Worker:    -1,
		InputData: inputData,
		Timestamp: now,
		Metadata:  make(map[string]interface{}),
	}
	if inputData != nil {
		errCtx.InputType = reflect.TypeOf(inputData)
	}

	if info, ok := types.AsFailure(err); ok {
		errCtx.Shard = info.FailureShard()
		errCtx.Worker = info.FailureWorker()
		for k, v := range info.FailureContext() {
			errCtx.Metadata[k] = v
		}
	}

	return errCtx
}

// Classify returns the failure class of err. Errors that do not carry a
// class are recognized failures unless they wrap ErrUnknownProcessorFailure.
func Classify(err error) types.FailureClass {
	if info, ok := types.AsFailure(err); ok {
		return info.FailureClass()
	}
	if errors.Is(err, types.ErrUnknownProcessorFailure) {
		return types.UnknownProcessorFailure
	}
	return types.ProcessorFailure
}

// LogHandler writes every failure as one structured log record
type LogHandler struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogHandler creates a log handler. A nil logger falls back to slog.Default.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger, level: slog.LevelError}
}

// WithLevel sets the record level
func (h *LogHandler) WithLevel(level slog.Level) *LogHandler {
	h.level = level
	return h
}

// HandleError implements the ErrorHandler interface
func (h *LogHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	attrs := []slog.Attr{
		slog.Int("shard", errCtx.Shard),
		slog.Int("worker", errCtx.Worker),
		slog.String("class", errCtx.Class.String()),
		slog.String("error", errCtx.Error.Error()),
	}
	if errCtx.InputType != nil {
		attrs = append(attrs, slog.String("item_type", errCtx.InputType.String()))
	}
	if stack, ok := errCtx.Metadata["stack_trace"].(string); ok {
		attrs = append(attrs, slog.String("stack", stack))
	}

	// structured detail is only available for recognized failures
	msg := "processor failure"
	if errCtx.Class == types.UnknownProcessorFailure {
		msg = "unknown processor failure"
	}

	h.logger.LogAttrs(ctx, h.level, msg, attrs...)
	return nil
}

// Name returns the handler name
func (h *LogHandler) Name() string {
	return "Log"
}

// CanHandle reports true for every error
func (h *LogHandler) CanHandle(err error) bool {
	return true
}

// CountingHandler counts failures per class
type CountingHandler struct {
	recognized atomic.Int64
	unknown    atomic.Int64
}

// NewCountingHandler creates a counting handler
func NewCountingHandler() *CountingHandler {
	return &CountingHandler{}
}

// HandleError implements the ErrorHandler interface
func (h *CountingHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	if errCtx.Class == types.UnknownProcessorFailure {
		h.unknown.Add(1)
	} else {
		h.recognized.Add(1)
	}
	return nil
}

// Name returns the handler name
func (h *CountingHandler) Name() string {
	return "Counting"
}

// CanHandle reports true for every error
func (h *CountingHandler) CanHandle(err error) bool {
	return true
}

// Count returns the number of failures of the given class
func (h *CountingHandler) Count(class types.FailureClass) int64 {
	if class == types.UnknownProcessorFailure {
		return h.unknown.Load()
	}
	return h.recognized.Load()
}

// Total returns the number of failures of every class
func (h *CountingHandler) Total() int64 {
	return h.recognized.Load() + h.unknown.Load()
}

// FuncHandler adapts a types.ErrorHandler callback
type FuncHandler struct {
	fn types.ErrorHandler
}

// NewFuncHandler wraps fn. A nil fn yields a handler that ignores every error.
func NewFuncHandler(fn types.ErrorHandler) *FuncHandler {
	return &FuncHandler{fn: fn}
}

// HandleError implements the ErrorHandler interface
func (h *FuncHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	if h.fn == nil {
		return nil
	}
	return h.fn(errCtx.Error)
}

// Name returns the handler name
func (h *FuncHandler) Name() string {
	return "Func"
}

// CanHandle reports true for every error
func (h *FuncHandler) CanHandle(err error) bool {
	return true
}

// ChainHandler runs every registered handler that can handle the error, in
// registration order. Handlers never short-circuit each other.
type ChainHandler struct {
	handlers []ErrorHandler
	mu       sync.RWMutex
}

// NewChainHandler creates a chain of handlers, skipping nil entries
func NewChainHandler(handlers ...ErrorHandler) *ChainHandler {
	c := &ChainHandler{}
	for _, h := range handlers {
		if h != nil {
			c.handlers = append(c.handlers, h)
		}
	}
	return c
}

// Add appends a handler to the chain
func (c *ChainHandler) Add(handler ErrorHandler) error {
	if handler == nil {
		return fmt.Errorf("cannot register nil handler")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range c.handlers {
		if h.Name() == handler.Name() {
			return fmt.Errorf("handler with name %s already exists", handler.Name())
		}
	}
	c.handlers = append(c.handlers, handler)
	return nil
}

// HandleError implements the ErrorHandler interface. Results of the
// handlers are joined.
func (c *ChainHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	c.mu.RLock()
	handlers := c.handlers
	c.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if !h.CanHandle(errCtx.Error) {
			continue
		}
		if err := h.HandleError(ctx, errCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Name returns the handler name
func (c *ChainHandler) Name() string {
	return "Chain"
}

// CanHandle reports whether any handler in the chain can handle err
func (c *ChainHandler) CanHandle(err error) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, h := range c.handlers {
		if h.CanHandle(err) {
			return true
		}
	}
	return false
}

// Names lists the chained handler names in order
func (c *ChainHandler) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handlers))
	for _, h := range c.handlers {
		names = append(names, h.Name())
	}
	return names
}
