package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/parcelhub/pkg/event"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	bus := event.NewBus()
	var got []string
	bus.Listen("rider.activated", func(_ context.Context, p interface{}) error {
		got = append(got, "first:"+p.(string))
		return nil
	})
	bus.Listen("rider.activated", func(_ context.Context, p interface{}) error {
		got = append(got, "second:"+p.(string))
		return nil
	})

	failed := bus.Fire(context.Background(), "rider.activated", "r@x.com")
	assert.Zero(t, failed)
	assert.Equal(t, []string{"first:r@x.com", "second:r@x.com"}, got)
	assert.Equal(t, 2, bus.Listeners("rider.activated"))
}

func TestFailuresDoNotStopOtherListeners(t *testing.T) {
	bus := event.NewBus()
	ran := 0
	bus.Listen("e", func(context.Context, interface{}) error { return errors.New("store down") })
	bus.Listen("e", func(context.Context, interface{}) error { panic("bad payload") })
	bus.Listen("e", func(context.Context, interface{}) error { ran++; return nil })

	assert.Equal(t, 2, bus.Fire(context.Background(), "e", nil))
	assert.Equal(t, 1, ran)
}

func TestFireWithoutListeners(t *testing.T) {
	assert.Zero(t, event.NewBus().Fire(context.Background(), "nobody", nil))
}
