// Package dispatch moves committed notifications from the ingest path to the
// live broker on background workers, so HTTP requests never block on
// subscriber fan-out.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/streampulse/activityd/pkg/broker"
	"github.com/streampulse/activityd/pkg/models"
)

// job is one notification waiting to be fanned out to live subscribers.
type job struct {
	userID int64
	msg    models.Notification
}

// Dispatcher runs a fixed pool of workers draining a bounded job queue into
// the broker. Enqueue never blocks; when the queue is full the job is dropped
// and the subscriber catches up via backfill on reconnect.
type Dispatcher struct {
	broker  *broker.Broker
	jobs    chan job
	workers int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// capacity.
func NewDispatcher(b *broker.Broker, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		broker:  b,
		jobs:    make(chan job, queueSize),
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// Start spawns the worker goroutines. It is safe to call multiple times;
// subsequent calls are no-ops.
func (d *Dispatcher) Start() {
	if d.started {
		slog.Warn("Dispatcher already started, ignoring duplicate Start call")
		return
	}
	d.started = true

	slog.Info("Starting notification dispatcher", "worker_count", d.workers, "queue_size", cap(d.jobs))

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run()
		}()
	}
}

// Stop signals all workers to stop and waits for them to finish. Jobs already
// queued are drained before workers exit.
func (d *Dispatcher) Stop() {
	slog.Info("Stopping notification dispatcher")
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
	slog.Info("Notification dispatcher stopped")
}

// Enqueue hands a notification to the worker pool without blocking. Returns
// false when the queue is full and the job was dropped.
func (d *Dispatcher) Enqueue(userID int64, msg models.Notification) bool {
	select {
	case d.jobs <- job{userID: userID, msg: msg}:
		return true
	default:
		slog.Warn("Dispatch queue full, dropping notification",
			"user_id", userID,
			"notification_id", msg.ID)
		return false
	}
}

func (d *Dispatcher) run() {
	for {
		select {
		case j := <-d.jobs:
			d.broker.Publish(j.userID, j.msg)
		case <-d.stopCh:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case j := <-d.jobs:
					d.broker.Publish(j.userID, j.msg)
				default:
					return
				}
			}
		}
	}
}
