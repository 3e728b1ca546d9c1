package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// IdempotencyReservation is the outcome of reserving an idempotency key
// inside an ingest transaction. When ExistingEventID is non-nil the key was
// already bound by a previous successful ingest and the caller should
// short-circuit with that event id.
type IdempotencyReservation struct {
	KeyID           int64
	ExistingEventID *int64
}

// ReserveIdempotencyKey inserts the key inside a savepoint. On a unique
// violation only the savepoint is rolled back, leaving the outer transaction
// usable, and the existing row is locked with FOR UPDATE so a concurrent
// ingest with the same key blocks until the winner binds and commits.
func (t *Tx) ReserveIdempotencyKey(ctx context.Context, key string) (*IdempotencyReservation, error) {
	sp, err := t.tx.Begin(ctx) // nested Begin is a SAVEPOINT in pgx
	if err != nil {
		return nil, fmt.Errorf("failed to open savepoint: %w", err)
	}

	var keyID int64
	err = sp.QueryRow(ctx,
		`INSERT INTO idempotency_keys (key) VALUES ($1) RETURNING id`,
		key,
	).Scan(&keyID)
	if err == nil {
		if err := sp.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
		return &IdempotencyReservation{KeyID: keyID}, nil
	}

	_ = sp.Rollback(ctx)
	if !IsUniqueViolation(err) {
		return nil, fmt.Errorf("failed to insert idempotency key: %w", err)
	}

	var existingEventID *int64
	err = t.tx.QueryRow(ctx,
		`SELECT id, event_id FROM idempotency_keys WHERE key = $1 FOR UPDATE`,
		key,
	).Scan(&keyID, &existingEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock idempotency key: %w", err)
	}

	return &IdempotencyReservation{KeyID: keyID, ExistingEventID: existingEventID}, nil
}

// BindIdempotencyKey sets the key's event id. Called once per key, after the
// Event row exists in the same transaction.
func (t *Tx) BindIdempotencyKey(ctx context.Context, keyID, eventID int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE idempotency_keys SET event_id = $2 WHERE id = $1`,
		keyID, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to bind idempotency key: %w", err)
	}
	return nil
}

// InsertEvent persists a new event and returns its store-assigned id.
func (t *Tx) InsertEvent(ctx context.Context, actorID int64, verb, objectType, objectID string, createdAt time.Time) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO events (actor_id, verb, object_type, object_id, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		actorID, verb, objectType, objectID, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

// InsertFeedItems fans the event out to each recipient's feed. Duplicate
// (user_id, event_id) pairs are silently dropped. Rows are inserted in the
// given order so ids ascend per recipient.
func (t *Tx) InsertFeedItems(ctx context.Context, userIDs []int64, eventID int64, createdAt time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, uid := range userIDs {
		batch.Queue(
			`INSERT INTO feed_items (user_id, event_id, created_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, event_id) DO NOTHING`,
			uid, eventID, createdAt,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	for range userIDs {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert feed items: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close feed item batch: %w", err)
	}
	return nil
}

// InsertedNotification identifies a notification row created by this call
// (conflicting duplicates produce no entry).
type InsertedNotification struct {
	ID     int64
	UserID int64
}

// InsertNotifications fans the event out to each recipient's inbox and
// returns the rows actually inserted by this call, in insertion order. The
// caller uses them to publish live notifications only for new rows.
func (t *Tx) InsertNotifications(ctx context.Context, userIDs []int64, eventID int64, createdAt time.Time) ([]InsertedNotification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, uid := range userIDs {
		batch.Queue(
			`INSERT INTO notifications (user_id, event_id, created_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, event_id) DO NOTHING
			 RETURNING id`,
			uid, eventID, createdAt,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	inserted := make([]InsertedNotification, 0, len(userIDs))
	for _, uid := range userIDs {
		var id int64
		err := br.QueryRow().Scan(&id)
		switch {
		case err == nil:
			inserted = append(inserted, InsertedNotification{ID: id, UserID: uid})
		case errors.Is(err, pgx.ErrNoRows):
			// Conflict: this recipient already has the event.
		default:
			_ = br.Close()
			return nil, fmt.Errorf("failed to insert notifications: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to close notification batch: %w", err)
	}
	return inserted, nil
}
