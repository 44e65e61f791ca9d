package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler reacts to a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans impersonation events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type syncDispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher that runs handlers on the
// publishing goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{handlers: make(map[EventType][]EventHandler)}
}

// Publish runs every subscriber of event.Type in subscription order. A
// failing or panicking handler does not stop the rest; their errors are
// joined.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribers := make([]EventHandler, len(d.handlers[event.Type]))
	copy(subscribers, d.handlers[event.Type])
	d.mu.RUnlock()

	var errs []error
	for _, handle := range subscribers {
		if err := invoke(ctx, handle, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventType.
func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func invoke(ctx context.Context, handle EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handle(ctx, event)
}
