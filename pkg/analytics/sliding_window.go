// Package analytics maintains in-memory sliding-window top-K frequency
// counters over recent activity. Counters are process-local: they reset on
// restart and are not shared across replicas.
package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/streampulse/activityd/pkg/models"
)

// SlidingWindow counts string keys over the trailing window using a ring of
// time buckets. Smaller buckets give better resolution at the cost of more
// slots; accuracy at the window boundary is ±bucketSize.
type SlidingWindow struct {
	windowSeconds int64
	bucketSeconds int64
	numBuckets    int64

	mu      sync.Mutex
	buckets []bucket
	totals  map[string]int64
	// order assigns a monotonic sequence number when a key first enters
	// totals; ties in Top are broken by it. A key that expires to zero and
	// comes back gets a fresh sequence number.
	order    map[string]uint64
	orderSeq uint64

	now func() time.Time
}

type bucket struct {
	id     int64
	live   bool
	counts map[string]int64
}

// NewSlidingWindow creates a counter over the given window with the given
// bucket granularity. Both must be positive.
func NewSlidingWindow(window, bucketSize time.Duration) *SlidingWindow {
	windowSeconds := int64(window / time.Second)
	bucketSeconds := int64(bucketSize / time.Second)
	if windowSeconds <= 0 {
		panic("analytics: window must be > 0")
	}
	if bucketSeconds <= 0 {
		panic("analytics: bucket size must be > 0")
	}

	numBuckets := (windowSeconds + bucketSeconds - 1) / bucketSeconds
	if numBuckets < 1 {
		numBuckets = 1
	}

	w := &SlidingWindow{
		windowSeconds: windowSeconds,
		bucketSeconds: bucketSeconds,
		numBuckets:    numBuckets,
		buckets:       make([]bucket, numBuckets),
		totals:        make(map[string]int64),
		order:         make(map[string]uint64),
		now:           time.Now,
	}
	return w
}

func (w *SlidingWindow) bucketID(ts time.Time) int64 {
	return ts.Unix() / w.bucketSeconds
}

// expireLocked drops buckets that fell out of the window relative to now and
// purges zero entries from totals. Caller holds w.mu.
func (w *SlidingWindow) expireLocked(now time.Time) {
	minValid := w.bucketID(now) - (w.numBuckets - 1)
	for i := range w.buckets {
		b := &w.buckets[i]
		if !b.live || b.id >= minValid {
			continue
		}
		for k, n := range b.counts {
			w.totals[k] -= n
		}
		b.counts = nil
		b.live = false
	}

	for k, n := range w.totals {
		if n <= 0 {
			delete(w.totals, k)
			delete(w.order, k)
		}
	}
}

// Add increments key by one at the current clock time.
func (w *SlidingWindow) Add(key string) {
	w.AddN(key, w.now(), 1)
}

// AddAt increments key by one at the given time.
func (w *SlidingWindow) AddAt(key string, ts time.Time) {
	w.AddN(key, ts, 1)
}

// AddN increments key by n at the given time. Empty keys and non-positive
// increments are ignored.
func (w *SlidingWindow) AddN(key string, ts time.Time, n int64) {
	if key == "" || n <= 0 {
		return
	}
	id := w.bucketID(ts)
	idx := id % w.numBuckets
	if idx < 0 {
		idx += w.numBuckets
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.expireLocked(ts)

	b := &w.buckets[idx]
	if !b.live || b.id != id {
		// Ring slot reuse: retire the slot's previous contribution first.
		for k, old := range b.counts {
			w.totals[k] -= old
		}
		b.counts = make(map[string]int64)
		b.id = id
		b.live = true
	}

	b.counts[key] += n
	if _, seen := w.totals[key]; !seen {
		w.orderSeq++
		w.order[key] = w.orderSeq
	}
	w.totals[key] += n
}

// Top returns up to k entries by descending count at the current clock time.
func (w *SlidingWindow) Top(k int) []models.TopEntry {
	return w.TopAt(k, w.now())
}

// TopAt returns up to k entries by descending count as of now. Ties are
// broken by first-insertion order.
func (w *SlidingWindow) TopAt(k int, now time.Time) []models.TopEntry {
	if k <= 0 {
		return nil
	}

	type ranked struct {
		entry models.TopEntry
		ord   uint64
	}

	w.mu.Lock()
	w.expireLocked(now)

	all := make([]ranked, 0, len(w.totals))
	for key, n := range w.totals {
		all = append(all, ranked{entry: models.TopEntry{Key: key, Count: n}, ord: w.order[key]})
	}
	w.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].entry.Count != all[j].entry.Count {
			return all[i].entry.Count > all[j].entry.Count
		}
		return all[i].ord < all[j].ord
	})

	if len(all) > k {
		all = all[:k]
	}
	entries := make([]models.TopEntry, len(all))
	for i, r := range all {
		entries[i] = r.entry
	}
	return entries
}
