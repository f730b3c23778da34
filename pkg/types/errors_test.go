package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrEmptyQueue", ErrEmptyQueue},
		{"ErrNoProcessor", ErrNoProcessor},
		{"ErrPoolRunning", ErrPoolRunning},
		{"ErrPoolClosed", ErrPoolClosed},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrTimeout", ErrTimeout},
		{"ErrUnknownProcessorFailure", ErrUnknownProcessorFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("expected error, got nil")
			}
			if tt.err.Error() == "" {
				t.Errorf("expected non-empty error message")
			}
		})
	}
}

func TestFailureClass_String(t *testing.T) {
	tests := []struct {
		class    FailureClass
		expected string
	}{
		{ProcessorFailure, "processor_failure"},
		{UnknownProcessorFailure, "unknown_processor_failure"},
		{FailureClass(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.class.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestProcessorError(t *testing.T) {
	t.Run("Type Safe Item", func(t *testing.T) {
		cause := errors.New("boom")
		perr := NewProcessorError(42, 1, 3, ProcessorFailure, cause)

		// Item is type-safe int, not interface{}
		var item int = perr.Item
		if item != 42 {
			t.Errorf("expected item 42, got %d", item)
		}

		expected := "processor_failure on shard 1 (worker 3): boom"
		if perr.Error() != expected {
			t.Errorf("expected message %q, got %q", expected, perr.Error())
		}
	})

	t.Run("Unwrap and Is", func(t *testing.T) {
		perr := NewProcessorError("x", 0, 0, UnknownProcessorFailure,
			fmt.Errorf("panic: %v: %w", 7, ErrUnknownProcessorFailure))

		if !errors.Is(perr, ErrUnknownProcessorFailure) {
			t.Errorf("expected error to match ErrUnknownProcessorFailure")
		}
		if errors.Is(perr, ErrTimeout) {
			t.Errorf("expected error not to match ErrTimeout")
		}
	})

	t.Run("AsFailure through wrapping", func(t *testing.T) {
		perr := NewProcessorError("x", 2, 5, ProcessorFailure, errors.New("bad"))
		perr.WithContext("attempt", 1)
		wrapped := fmt.Errorf("outer: %w", perr)

		info, ok := AsFailure(wrapped)
		if !ok {
			t.Fatalf("expected FailureInfo in chain")
		}
		if info.FailureShard() != 2 || info.FailureWorker() != 5 {
			t.Errorf("unexpected shard/worker %d/%d", info.FailureShard(), info.FailureWorker())
		}
		if info.FailureClass() != ProcessorFailure {
			t.Errorf("unexpected class %v", info.FailureClass())
		}
		if info.FailureContext()["attempt"] != 1 {
			t.Errorf("expected context to carry attempt")
		}

		if _, ok := AsFailure(errors.New("plain")); ok {
			t.Errorf("plain error should not be a FailureInfo")
		}
	})
}

func TestPoolState_String(t *testing.T) {
	tests := []struct {
		state    PoolState
		expected string
	}{
		{StateCreated, "Created"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateStopped, "Stopped"},
		{PoolState(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPoolStats_QueueSize(t *testing.T) {
	stats := PoolStats{Shards: []ShardStats{{Index: 0, Depth: 3}, {Index: 1, Depth: 4}}}
	if stats.QueueSize() != 7 {
		t.Errorf("expected 7, got %d", stats.QueueSize())
	}
}

func TestSlicePool(t *testing.T) {
	sp := NewSlicePool[string](4)
	buf := sp.Get()
	if len(buf) != 4 {
		t.Fatalf("expected length 4, got %d", len(buf))
	}
	buf[0] = "held"
	sp.Put(buf)

	again := sp.Get()
	for i, v := range again {
		if v != "" {
			t.Errorf("slot %d not zeroed: %q", i, v)
		}
	}

	// wrong length is dropped silently
	sp.Put(make([]string, 2))
	if sp.Size() != 4 {
		t.Errorf("expected size 4, got %d", sp.Size())
	}
}
