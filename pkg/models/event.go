package models

import "time"

// Event is an immutable activity record: an actor did something to an object.
// Events are written once during ingest and never updated.
type Event struct {
	EventID    int64     `json:"event_id"`
	ActorID    int64     `json:"actor_id"`
	Verb       string    `json:"verb"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// IngestResult is the outcome of an ingest call. Created is false when the
// call was an idempotent replay of a previously committed event.
type IngestResult struct {
	EventID int64
	Created bool
}
