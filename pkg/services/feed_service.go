package services

import (
	"context"
	"errors"

	"github.com/streampulse/activityd/pkg/cursor"
	"github.com/streampulse/activityd/pkg/models"
	"github.com/streampulse/activityd/pkg/store"
)

const (
	defaultFeedLimit = 50
	maxPageLimit     = 200
)

// FeedService serves keyset-paginated reads of a user's activity feed.
type FeedService struct {
	store *store.Store
}

// NewFeedService creates a new FeedService
func NewFeedService(s *store.Store) *FeedService {
	return &FeedService{store: s}
}

// GetFeed returns one page of userID's feed, newest first. cursorToken is the
// opaque next_cursor from a previous page, or empty for the first page. limit
// is clamped to [1, 200]; limit == 0 selects the default page size.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, cursorToken string, limit int) (*models.FeedPage, error) {
	if limit == 0 {
		limit = defaultFeedLimit
	}
	limit = clampLimit(limit)

	cur, err := cursor.Decode(cursorToken)
	if err != nil {
		if errors.Is(err, cursor.ErrInvalid) {
			return nil, NewValidationError("cursor", "malformed cursor")
		}
		return nil, err
	}

	entries, err := s.store.ListFeed(ctx, userID, cur, limit)
	if err != nil {
		return nil, err
	}

	page := &models.FeedPage{Items: make([]models.Event, len(entries))}
	for i, e := range entries {
		page.Items[i] = e.Event
	}

	// A full page may have more behind it; the next request with this cursor
	// returns an empty page if it does not.
	if len(entries) == limit {
		last := entries[len(entries)-1]
		token := cursor.Encode(last.CreatedAt, last.FeedItemID)
		page.NextCursor = &token
	}
	return page, nil
}

// clampLimit bounds a requested page size to [1, maxPageLimit].
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
