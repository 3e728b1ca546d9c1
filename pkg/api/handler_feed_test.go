package api

import (
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeedHandlerValidation(t *testing.T) {
	s := &Server{}

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"user_id mismatch", "/api/feed?user_id=99", http.StatusForbidden},
		{"non-numeric user_id", "/api/feed?user_id=abc", http.StatusBadRequest},
		{"non-numeric limit", "/api/feed?limit=abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newAuthedContext(t, http.MethodGet, tt.target, "", 1)

			err := s.getFeedHandler(c)
			require.Error(t, err)
			httpErr, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, httpErr.Code)
		})
	}
}

func TestListNotificationsHandlerValidation(t *testing.T) {
	s := &Server{}

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"non-numeric since", "/api/notifications?since=abc", http.StatusBadRequest},
		{"non-numeric limit", "/api/notifications?limit=abc", http.StatusBadRequest},
		{"user_id mismatch", "/api/notifications?user_id=99", http.StatusForbidden},
		{"non-numeric user_id", "/api/notifications?user_id=abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newAuthedContext(t, http.MethodGet, tt.target, "", 1)

			err := s.listNotificationsHandler(c)
			require.Error(t, err)
			httpErr, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, httpErr.Code)
		})
	}
}
