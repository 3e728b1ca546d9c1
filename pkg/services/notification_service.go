package services

import (
	"context"

	"github.com/streampulse/activityd/pkg/models"
	"github.com/streampulse/activityd/pkg/store"
)

const defaultNotificationLimit = 100

// NotificationService serves incremental reads of a user's inbox. Clients
// poll with the next_since watermark from the previous response; SSE clients
// use the same query for reconnect backfill.
type NotificationService struct {
	store *store.Store
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(s *store.Store) *NotificationService {
	return &NotificationService{store: s}
}

// GetSince returns up to limit notifications for userID with id > since, in
// ascending id order. since < 0 is rejected; limit == 0 selects the default
// page size and is clamped to [1, 200].
func (s *NotificationService) GetSince(ctx context.Context, userID, since int64, limit int) (*models.NotificationPage, error) {
	if since < 0 {
		return nil, NewValidationError("since", "must not be negative")
	}
	if limit == 0 {
		limit = defaultNotificationLimit
	}
	limit = clampLimit(limit)

	items, err := s.store.ListNotificationsSince(ctx, userID, since, limit)
	if err != nil {
		return nil, err
	}

	page := &models.NotificationPage{Items: items, NextSince: since}
	if len(items) > 0 {
		page.NextSince = items[len(items)-1].ID
	}
	return page, nil
}
