package store

import (
	"context"
	"fmt"
	"time"

	"github.com/streampulse/activityd/pkg/cursor"
	"github.com/streampulse/activityd/pkg/models"
)

// FeedEntry is one feed row joined to its event. The feed item's own id and
// timestamp are carried so the caller can build the next keyset cursor.
type FeedEntry struct {
	FeedItemID int64
	CreatedAt  time.Time
	Event      models.Event
}

// ListFeed returns up to limit feed entries for userID in
// (created_at DESC, id DESC) order, seeking strictly past cur when given.
// The row-value comparison keeps pages duplicate-free even when many rows
// share one created_at.
func (s *Store) ListFeed(ctx context.Context, userID int64, cur *cursor.FeedCursor, limit int) ([]FeedEntry, error) {
	query := `SELECT f.id, f.created_at,
	                 e.id, e.actor_id, e.verb, e.object_type, e.object_id, e.created_at
	            FROM feed_items AS f
	            JOIN events AS e ON e.id = f.event_id
	           WHERE f.user_id = $1`
	args := []any{userID, limit}

	if cur != nil {
		query += ` AND (f.created_at, f.id) < ($3, $4)`
		args = append(args, cur.CreatedAt, cur.FeedItemID)
	}
	query += ` ORDER BY f.created_at DESC, f.id DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	defer rows.Close()

	entries := make([]FeedEntry, 0, limit)
	for rows.Next() {
		var entry FeedEntry
		if err := rows.Scan(
			&entry.FeedItemID, &entry.CreatedAt,
			&entry.Event.EventID, &entry.Event.ActorID, &entry.Event.Verb,
			&entry.Event.ObjectType, &entry.Event.ObjectID, &entry.Event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed rows: %w", err)
	}
	return entries, nil
}

// ListNotificationsSince returns up to limit notifications for userID with
// id > since, ascending by id, each joined to its event.
func (s *Store) ListNotificationsSince(ctx context.Context, userID, since int64, limit int) ([]models.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT n.id, n.user_id, n.created_at, n.read_at, n.delivered_at,
		        e.id, e.actor_id, e.verb, e.object_type, e.object_id, e.created_at
		   FROM notifications AS n
		   JOIN events AS e ON e.id = n.event_id
		  WHERE n.user_id = $1 AND n.id > $2
		  ORDER BY n.id ASC
		  LIMIT $3`,
		userID, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	items := make([]models.Notification, 0, limit)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.CreatedAt, &n.ReadAt, &n.DeliveredAt,
			&n.Event.EventID, &n.Event.ActorID, &n.Event.Verb,
			&n.Event.ObjectType, &n.Event.ObjectID, &n.Event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notification rows: %w", err)
	}
	return items, nil
}

// DeleteIdempotencyKeysBefore removes idempotency keys created before the
// cutoff. Only the retention job calls this; ingest never deletes keys.
func (s *Store) DeleteIdempotencyKeysBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
