// Package event provides an in-process event bus.
//
// Listeners run synchronously in registration order. A listener error is
// logged and does not stop the remaining listeners or reach the publisher:
// events are side effects, never part of the caller's result.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/parcelhub/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{}) error

// Bus dispatches named events to registered listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Fire dispatches an event to all listeners and returns how many of them failed.
func (b *Bus) Fire(ctx context.Context, event string, payload interface{}) int {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	failed := 0
	for i, h := range hs {
		if err := run(ctx, h, payload); err != nil {
			failed++
			logger.WithCtx(ctx).Error("event listener failed",
				"event", event, "listener", i, "error", err)
		}
	}
	return failed
}

// run calls h, turning a panic into an error.
func run(ctx context.Context, h Handler, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

// Listeners returns the number of handlers registered for event.
func (b *Bus) Listeners(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
