package models

import "time"

// IngestRequest is the payload for publishing a new activity event.
// CreatedAt is optional; ingest stamps the current time when absent.
// IdempotencyKey is carried on the Idempotency-Key header, not the body.
type IngestRequest struct {
	ActorID        int64      `json:"actor_id"`
	Verb           string     `json:"verb"`
	ObjectType     string     `json:"object_type"`
	ObjectID       string     `json:"object_id"`
	TargetUserIDs  []int64    `json:"target_user_ids"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	IdempotencyKey string     `json:"-"`
}
