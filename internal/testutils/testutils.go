// Package testutils provides testing utilities shared by the pool and queue tests
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// DefaultTimeout bounds every eventual assertion
const DefaultTimeout = 5 * time.Second

// Recorder collects processed items from concurrent workers
type Recorder[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewRecorder creates an empty recorder
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{}
}

// Record appends an item
func (r *Recorder[T]) Record(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

// Processor returns a processor func that records every item
func (r *Recorder[T]) Processor() func(context.Context, T) error {
	return func(_ context.Context, item T) error {
		r.Record(item)
		return nil
	}
}

// Items returns a copy of the recorded items in recording order
func (r *Recorder[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of recorded items
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Context returns a context cancelled when the test ends
func Context(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertEventually waits up to DefaultTimeout for condition to be true
func AssertEventually(t testing.TB, condition func() bool, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.Eventually(t, condition, DefaultTimeout, 5*time.Millisecond, msgAndArgs...)
}

// WaitTimeout waits for wg, failing the test if it takes longer than timeout
func WaitTimeout(t testing.TB, wg *sync.WaitGroup, timeout time.Duration) bool {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		t.Errorf("wait group not done after %v", timeout)
		return false
	}
}
