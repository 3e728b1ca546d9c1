package cursor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)

	token := Encode(ts, 42)
	got, err := Decode(token)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.CreatedAt.Equal(ts))
	assert.Equal(t, int64(42), got.FeedItemID)
}

func TestEncodeIsURLSafeAndUnpadded(t *testing.T) {
	// Sweep id widths so the base64 length hits every padding case.
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for id := int64(1); id < 1_000_000; id *= 7 {
		token := Encode(ts, id)
		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
	}
}

func TestDecodeAcceptsPaddedToken(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	token := Encode(ts, 7)

	padded := token + strings.Repeat("=", (4-len(token)%4)%4)
	got, err := Decode(padded)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.FeedItemID)
}

func TestDecodeEmptyIsNilCursor(t *testing.T) {
	got, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"base64 but not json", "aGVsbG8gd29ybGQ"},
		{"missing created_at", "eyJmZWVkX2l0ZW1faWQiOjV9"},                                      // {"feed_item_id":5}
		{"missing feed_item_id", "eyJjcmVhdGVkX2F0IjoiMjAyNi0wMS0wMlQwMzowNDowNVoifQ"},          // {"created_at":"2026-01-02T03:04:05Z"}
		{"zero id", "eyJjcmVhdGVkX2F0IjoiMjAyNi0wMS0wMlQwMzowNDowNVoiLCJmZWVkX2l0ZW1faWQiOjB9"}, // id 0
		{"unparseable timestamp", "eyJjcmVhdGVkX2F0Ijoibm90LWEtZGF0ZSIsImZlZWRfaXRlbV9pZCI6NX0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.token)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeRejectsNegativeID(t *testing.T) {
	// {"created_at":"2026-01-02T03:04:05Z","feed_item_id":-3}
	token := "eyJjcmVhdGVkX2F0IjoiMjAyNi0wMS0wMlQwMzowNDowNVoiLCJmZWVkX2l0ZW1faWQiOi0zfQ"
	_, err := Decode(token)
	assert.ErrorIs(t, err, ErrInvalid)
}
