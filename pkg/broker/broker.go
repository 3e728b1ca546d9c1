// Package broker provides in-process pub/sub for live notification delivery.
// Each subscriber owns a bounded queue; publishers never block on a slow
// consumer. The broker is intentionally single-process — cross-process
// delivery would swap the registry for a message bus subscription keyed by
// user id while keeping the same per-connection queue semantics.
package broker

import (
	"sync"

	"github.com/google/uuid"

	"github.com/streampulse/activityd/pkg/metrics"
	"github.com/streampulse/activityd/pkg/models"
)

// DefaultQueueCap is the per-subscriber queue bound. Overflow drops the
// oldest message first; the polling read path is the durable backstop.
const DefaultQueueCap = 200

// Subscriber is one registered queue for a user's notifications. Receive
// from C until Unsubscribe; after Unsubscribe the channel is never closed,
// it simply stops receiving.
type Subscriber struct {
	ID     string
	UserID int64
	C      chan models.Notification
}

// Broker fans published notifications out to every current subscriber of the
// recipient. The registry mutex guards membership only; message delivery
// happens after it is released.
type Broker struct {
	mu   sync.RWMutex
	subs map[int64]map[string]*Subscriber

	metrics *metrics.Collector
}

// New creates an empty broker. The metrics collector may be nil.
func New(m *metrics.Collector) *Broker {
	return &Broker{
		subs:    make(map[int64]map[string]*Subscriber),
		metrics: m,
	}
}

// Subscribe registers a new bounded queue for userID. queueCap <= 0 falls
// back to DefaultQueueCap.
func (b *Broker) Subscribe(userID int64, queueCap int) *Subscriber {
	if queueCap <= 0 {
		queueCap = DefaultQueueCap
	}
	sub := &Subscriber{
		ID:     uuid.New().String(),
		UserID: userID,
		C:      make(chan models.Notification, queueCap),
	}

	b.mu.Lock()
	set, ok := b.subs[userID]
	if !ok {
		set = make(map[string]*Subscriber)
		b.subs[userID] = set
	}
	set[sub.ID] = sub
	b.mu.Unlock()

	b.metrics.SubscriberAdded()
	return sub
}

// Unsubscribe removes the subscriber. Safe to call more than once.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	set, ok := b.subs[sub.UserID]
	if ok {
		if _, present := set[sub.ID]; present {
			delete(set, sub.ID)
			if len(set) == 0 {
				delete(b.subs, sub.UserID)
			}
			b.metrics.SubscriberRemoved()
		}
	}
	b.mu.Unlock()
}

// Publish delivers msg to every current subscriber of userID. Per queue: if
// full, pop the oldest entry and retry once; if the retry also fails the
// message is dropped — ReadNotifications lets the client catch up.
func (b *Broker) Publish(userID int64, msg models.Notification) {
	b.mu.RLock()
	set := b.subs[userID]
	targets := make([]*Subscriber, 0, len(set))
	for _, sub := range set {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.C <- msg:
			b.metrics.NotificationPublished()
			continue
		default:
		}

		// Queue full: drop the oldest, preferring recency.
		select {
		case <-sub.C:
		default:
		}

		select {
		case sub.C <- msg:
			b.metrics.NotificationPublished()
		default:
			// Still full (concurrent producer won the freed slot).
			b.metrics.NotificationDropped()
		}
	}
}

// AnySubscribers reports whether at least one of userIDs has a live
// subscriber. Used to skip publish work when nobody is listening.
func (b *Broker) AnySubscribers(userIDs []int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range userIDs {
		if len(b.subs[id]) > 0 {
			return true
		}
	}
	return false
}

// SubscriberCount returns the number of live subscribers for a user.
// Used by tests to poll instead of sleeping.
func (b *Broker) SubscriberCount(userID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
