// Package event is an in-process dispatcher for domain events.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/kabadi/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

type listener struct {
	handler Handler
	async   bool
}

// Bus routes named events to registered handlers.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	wg        sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{listeners: map[string][]listener{}}
}

// Listen registers handler for event. It runs in the goroutine that fires
// the event, before Fire returns.
func (b *Bus) Listen(event string, handler Handler) {
	b.add(event, listener{handler: handler})
}

// ListenAsync registers handler for event to run in its own goroutine. The
// handler gets a context detached from the firing request's cancellation;
// Wait blocks until it returns.
func (b *Bus) ListenAsync(event string, handler Handler) {
	b.add(event, listener{handler: handler, async: true})
}

func (b *Bus) add(event string, l listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], l)
}

func (b *Bus) snapshot(event string) []listener {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ls := make([]listener, len(b.listeners[event]))
	copy(ls, b.listeners[event])
	return ls
}

// Fire runs the synchronous handlers for event in registration order and
// starts the async ones. A panicking handler is logged and does not stop the
// others.
func (b *Bus) Fire(ctx context.Context, event string, payload interface{}) {
	if b == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, l := range b.snapshot(event) {
		if !l.async {
			b.call(ctx, event, l.handler, payload)
			continue
		}
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			b.call(detached, event, h, payload)
		}(l.handler)
	}
}

// Wait blocks until every async handler started so far has returned.
func (b *Bus) Wait() {
	if b == nil {
		return
	}
	b.wg.Wait()
}

func (b *Bus) call(ctx context.Context, event string, h Handler, payload interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithCtx(ctx).Error("event: handler panicked", "event", event, "panic", rec)
		}
	}()
	h(ctx, payload)
}
