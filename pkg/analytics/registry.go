package analytics

import (
	"errors"
	"time"

	"github.com/streampulse/activityd/pkg/models"
)

// Dimensions a top-K query can rank by.
const (
	DimensionObjectID = "object_id"
	DimensionVerb     = "verb"
)

// Window tags accepted by top-K queries.
const (
	Window1m = "1m"
	Window5m = "5m"
	Window1h = "1h"
)

var (
	// ErrUnknownWindow is returned for a window tag outside {1m, 5m, 1h}.
	ErrUnknownWindow = errors.New("unknown window: must be one of 1m, 5m, 1h")
	// ErrUnknownDimension is returned for a dimension outside {object_id, verb}.
	ErrUnknownDimension = errors.New("unknown dimension: must be object_id or verb")
)

// Registry holds the fixed set of sliding-window counters:
// {object_id, verb} × {1m, 5m, 1h}. One instance lives for the process
// lifetime; Record is called synchronously from the ingest path.
type Registry struct {
	byObjectID map[string]*SlidingWindow
	byVerb     map[string]*SlidingWindow
}

// NewRegistry creates the six counters with the given bucket granularity.
func NewRegistry(bucketSize time.Duration) *Registry {
	build := func() map[string]*SlidingWindow {
		return map[string]*SlidingWindow{
			Window1m: NewSlidingWindow(time.Minute, bucketSize),
			Window5m: NewSlidingWindow(5*time.Minute, bucketSize),
			Window1h: NewSlidingWindow(time.Hour, bucketSize),
		}
	}
	return &Registry{
		byObjectID: build(),
		byVerb:     build(),
	}
}

// Record adds one occurrence of (objectID, verb) at ts into every window.
func (r *Registry) Record(objectID, verb string, ts time.Time) {
	for _, w := range r.byObjectID {
		w.AddAt(objectID, ts)
	}
	for _, w := range r.byVerb {
		w.AddAt(verb, ts)
	}
}

// Top returns the top-k keys for the given window and dimension.
func (r *Registry) Top(window, dimension string, k int) ([]models.TopEntry, error) {
	var counters map[string]*SlidingWindow
	switch dimension {
	case DimensionObjectID:
		counters = r.byObjectID
	case DimensionVerb:
		counters = r.byVerb
	default:
		return nil, ErrUnknownDimension
	}

	w, ok := counters[window]
	if !ok {
		return nil, ErrUnknownWindow
	}
	return w.Top(k), nil
}
