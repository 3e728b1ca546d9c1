package models

import "time"

// Notification is a recipient's inbox entry pointing at an Event.
// IDs are strictly increasing in insertion order and double as the
// incremental read cursor (the `since` parameter).
type Notification struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	Event       Event      `json:"event"`
}

// FeedPage is one keyset-paginated page of a user's feed.
type FeedPage struct {
	Items      []Event `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// NotificationPage is one id-based incremental page of a user's inbox.
type NotificationPage struct {
	Items     []Notification `json:"items"`
	NextSince int64          `json:"next_since"`
}
