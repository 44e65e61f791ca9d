package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_InvokesEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventImpersonationStopped, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("webhook down")
	})
	d.Subscribe(EventImpersonationStopped, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventImpersonationStarted, func(context.Context, Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventImpersonationStopped, CustomerID: "cust_123"})
	assert.ErrorContains(t, err, "webhook down")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventImpersonationExpired}))
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventImpersonationExpired, func(context.Context, Event) error {
		panic("nil webhook client")
	})
	d.Subscribe(EventImpersonationExpired, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventImpersonationExpired})
	assert.ErrorContains(t, err, "nil webhook client")
	assert.True(t, reached)
}
