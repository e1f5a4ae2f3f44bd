package shift_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cafeops/shiftdeck/internal/application/shift"
)

func receive(t *testing.T, ch <-chan struct{}) bool {
	t.Helper()
	select {
	case <-ch:
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub := shift.NewHub()

	a, cancelA := hub.Subscribe("shift-1")
	defer cancelA()
	b, cancelB := hub.Subscribe("shift-1")
	defer cancelB()
	other, cancelOther := hub.Subscribe("shift-2")
	defer cancelOther()

	hub.Publish("shift-1")

	assert.True(t, receive(t, a))
	assert.True(t, receive(t, b))
	assert.False(t, receive(t, other))
}

func TestHub_CoalescesBursts(t *testing.T) {
	hub := shift.NewHub()

	ch, cancel := hub.Subscribe("shift-1")
	defer cancel()

	// A slow consumer sees a burst as one pending event.
	for range 5 {
		hub.Publish("shift-1")
	}

	assert.True(t, receive(t, ch))
	assert.False(t, receive(t, ch))
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	hub := shift.NewHub()

	ch, cancel := hub.Subscribe("shift-1")
	cancel()

	hub.Publish("shift-1")
	assert.False(t, receive(t, ch))
}

func TestHub_PublishWithoutSubscribersIsSafe(t *testing.T) {
	hub := shift.NewHub()
	assert.NotPanics(t, func() {
		hub.Publish("nobody-listening")
	})
}
