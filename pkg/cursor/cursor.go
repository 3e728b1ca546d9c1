// Package cursor implements the opaque keyset-pagination token used by the
// feed endpoint. The token is URL-safe base64 (padding stripped) of a compact
// JSON object carrying the (created_at, feed_item_id) tuple of the last row
// on the previous page. It is a convenience pointer, not a capability: it is
// not signed, and a client can craft any cursor it likes.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalid is returned for any token that does not decode to a well-formed
// cursor. Callers surface it as a 400-class failure.
var ErrInvalid = errors.New("invalid cursor")

// FeedCursor points just past a feed row in (created_at DESC, id DESC) order.
type FeedCursor struct {
	CreatedAt  time.Time
	FeedItemID int64
}

type payload struct {
	CreatedAt  string `json:"created_at"`
	FeedItemID int64  `json:"feed_item_id"`
}

// Encode renders the cursor as a URL-safe token with no '=' padding.
func Encode(createdAt time.Time, feedItemID int64) string {
	raw, _ := json.Marshal(payload{
		CreatedAt:  createdAt.Format(time.RFC3339Nano),
		FeedItemID: feedItemID,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode. Tokens with padding are accepted.
// Empty input yields (nil, nil): no cursor was supplied.
func Decode(token string) (*FeedCursor, error) {
	if token == "" {
		return nil, nil
	}

	// Tolerate '=' padding from clients that re-pad the token.
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, ErrInvalid
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrInvalid
	}
	if p.CreatedAt == "" || p.FeedItemID <= 0 {
		return nil, ErrInvalid
	}

	ts, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return nil, ErrInvalid
	}

	return &FeedCursor{CreatedAt: ts, FeedItemID: p.FeedItemID}, nil
}
