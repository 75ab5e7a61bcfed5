package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroker_PublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(Event{Type: TypeNodeUpdated, Data: "n1"})

	assert.Equal(t, TypeNodeUpdated, receive(t, a).Type)
	assert.Equal(t, TypeNodeUpdated, receive(t, c).Type)
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroker_SubscriberCount(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	assert.Equal(t, 0, b.SubscriberCount())
	ch := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroker_CloseIsIdempotentAndSafe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// Post-close operations are no-ops.
	b.Publish(Event{Type: TypeNodeUpdated})
	post := b.Subscribe()
	_, ok = <-post
	assert.False(t, ok)
}
