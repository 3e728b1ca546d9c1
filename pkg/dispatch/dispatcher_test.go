package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampulse/activityd/pkg/broker"
	"github.com/streampulse/activityd/pkg/models"
)

func receiveOne(t *testing.T, sub *broker.Subscriber) models.Notification {
	t.Helper()
	select {
	case msg := <-sub.C:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestDispatcherDeliversToBroker(t *testing.T) {
	b := broker.New(nil)
	d := NewDispatcher(b, 2, 16)
	d.Start()
	defer d.Stop()

	sub := b.Subscribe(7, 8)
	defer b.Unsubscribe(sub)

	require.True(t, d.Enqueue(7, models.Notification{ID: 1, UserID: 7}))

	msg := receiveOne(t, sub)
	assert.Equal(t, int64(1), msg.ID)
	assert.Equal(t, int64(7), msg.UserID)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	b := broker.New(nil)
	d := NewDispatcher(b, 1, 1)
	// Not started: nothing drains the queue, so the second enqueue drops.

	assert.True(t, d.Enqueue(1, models.Notification{ID: 1, UserID: 1}))
	assert.False(t, d.Enqueue(1, models.Notification{ID: 2, UserID: 1}))
}

func TestDispatcherStopDrainsQueuedJobs(t *testing.T) {
	b := broker.New(nil)
	d := NewDispatcher(b, 1, 16)

	sub := b.Subscribe(3, 16)
	defer b.Unsubscribe(sub)

	for i := int64(1); i <= 5; i++ {
		require.True(t, d.Enqueue(3, models.Notification{ID: i, UserID: 3}))
	}

	// Workers started after enqueue still see the jobs; Stop waits for the
	// queue to drain.
	d.Start()
	d.Stop()

	for i := int64(1); i <= 5; i++ {
		msg := receiveOne(t, sub)
		assert.Equal(t, i, msg.ID)
	}
}

func TestDispatcherStartStopIdempotent(t *testing.T) {
	d := NewDispatcher(broker.New(nil), 1, 4)
	d.Start()
	d.Start()
	d.Stop()
	d.Stop()
}
