package services

import (
	"context"
	"fmt"
	"time"

	"github.com/streampulse/activityd/pkg/analytics"
	"github.com/streampulse/activityd/pkg/broker"
	"github.com/streampulse/activityd/pkg/dispatch"
	"github.com/streampulse/activityd/pkg/metrics"
	"github.com/streampulse/activityd/pkg/models"
	"github.com/streampulse/activityd/pkg/store"
)

const (
	maxVerbLen           = 64
	maxObjectTypeLen     = 64
	maxObjectIDLen       = 128
	maxIdempotencyKeyLen = 255
)

// IngestService validates and persists activity events, fans them out to
// recipient feeds and inboxes, and hands committed notifications to the live
// delivery pipeline.
type IngestService struct {
	store      *store.Store
	broker     *broker.Broker
	dispatcher *dispatch.Dispatcher
	analytics  *analytics.Registry
	metrics    *metrics.Collector
	now        func() time.Time
}

// NewIngestService creates a new IngestService. The broker, dispatcher,
// analytics registry, and metrics collector may each be nil, which disables
// the corresponding side effect.
func NewIngestService(
	s *store.Store,
	b *broker.Broker,
	d *dispatch.Dispatcher,
	a *analytics.Registry,
	m *metrics.Collector,
) *IngestService {
	return &IngestService{
		store:      s,
		broker:     b,
		dispatcher: d,
		analytics:  a,
		metrics:    m,
		now:        time.Now,
	}
}

// Ingest creates the event and its per-recipient fan-out in one transaction.
// When req carries an idempotency key that a previous successful call already
// bound, nothing is written and the original event id is returned with
// Created=false.
func (s *IngestService) Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestResult, error) {
	if err := validateIngestRequest(req); err != nil {
		return nil, err
	}

	targets := dedupeTargets(req.TargetUserIDs)
	createdAt := s.now().UTC()
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}

	var result models.IngestResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var keyID int64
		if req.IdempotencyKey != "" {
			res, err := tx.ReserveIdempotencyKey(ctx, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if res.ExistingEventID != nil {
				result = models.IngestResult{EventID: *res.ExistingEventID, Created: false}
				return nil
			}
			// A key row with no event id is left over from an ingest that
			// failed after reserving; reuse it and bind it below.
			keyID = res.KeyID
		}

		eventID, err := tx.InsertEvent(ctx, req.ActorID, req.Verb, req.ObjectType, req.ObjectID, createdAt)
		if err != nil {
			return err
		}
		if keyID != 0 {
			if err := tx.BindIdempotencyKey(ctx, keyID, eventID); err != nil {
				return err
			}
		}

		if err := tx.InsertFeedItems(ctx, targets, eventID, createdAt); err != nil {
			return err
		}
		inserted, err := tx.InsertNotifications(ctx, targets, eventID, createdAt)
		if err != nil {
			return err
		}

		result = models.IngestResult{EventID: eventID, Created: true}

		event := models.Event{
			EventID:    eventID,
			ActorID:    req.ActorID,
			Verb:       req.Verb,
			ObjectType: req.ObjectType,
			ObjectID:   req.ObjectID,
			CreatedAt:  createdAt,
		}
		tx.OnCommit(func() {
			s.publishCommitted(inserted, event, createdAt)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.metrics.EventIngested()
		if s.analytics != nil {
			s.analytics.Record(req.ObjectID, req.Verb, createdAt)
		}
	} else {
		s.metrics.IngestReplayed()
	}
	return &result, nil
}

// publishCommitted hands each newly inserted notification to the dispatcher.
// Runs after commit, so subscribers never see a notification that could still
// roll back. Skipped entirely when no recipient has a live subscriber.
func (s *IngestService) publishCommitted(inserted []store.InsertedNotification, event models.Event, createdAt time.Time) {
	if s.broker == nil || s.dispatcher == nil || len(inserted) == 0 {
		return
	}

	userIDs := make([]int64, len(inserted))
	for i, n := range inserted {
		userIDs[i] = n.UserID
	}
	if !s.broker.AnySubscribers(userIDs) {
		return
	}

	for _, n := range inserted {
		s.dispatcher.Enqueue(n.UserID, models.Notification{
			ID:        n.ID,
			UserID:    n.UserID,
			CreatedAt: createdAt,
			Event:     event,
		})
	}
}

func validateIngestRequest(req models.IngestRequest) error {
	if req.ActorID < 1 {
		return NewValidationError("actor_id", "must be a positive integer")
	}
	if req.Verb == "" {
		return NewValidationError("verb", "is required")
	}
	if len(req.Verb) > maxVerbLen {
		return NewValidationError("verb", fmt.Sprintf("must be at most %d characters", maxVerbLen))
	}
	if req.ObjectType == "" {
		return NewValidationError("object_type", "is required")
	}
	if len(req.ObjectType) > maxObjectTypeLen {
		return NewValidationError("object_type", fmt.Sprintf("must be at most %d characters", maxObjectTypeLen))
	}
	if req.ObjectID == "" {
		return NewValidationError("object_id", "is required")
	}
	if len(req.ObjectID) > maxObjectIDLen {
		return NewValidationError("object_id", fmt.Sprintf("must be at most %d characters", maxObjectIDLen))
	}
	// Empty target_user_ids is allowed: the event is recorded with no fan-out.
	for _, id := range req.TargetUserIDs {
		if id < 1 {
			return NewValidationError("target_user_ids", "must contain only positive integers")
		}
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		return NewValidationError("idempotency_key", fmt.Sprintf("must be at most %d characters", maxIdempotencyKeyLen))
	}
	return nil
}

// dedupeTargets drops repeated recipient ids, keeping first-occurrence order.
func dedupeTargets(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
