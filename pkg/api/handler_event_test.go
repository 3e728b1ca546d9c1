package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthedContext builds an echo context with the user id already resolved,
// as requireUser would leave it.
func newAuthedContext(t *testing.T, method, target, body string, userID int64) (*echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(userIDContextKey, userID)
	return c, rec
}

func TestIngestEventHandlerValidation(t *testing.T) {
	s := &Server{}

	t.Run("malformed body", func(t *testing.T) {
		c, _ := newAuthedContext(t, http.MethodPost, "/api/events", "{not json", 1)

		err := s.ingestEventHandler(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("actor spoof rejected", func(t *testing.T) {
		body := `{"actor_id": 99, "verb": "liked", "object_type": "photo", "object_id": "p1", "target_user_ids": [2]}`
		c, _ := newAuthedContext(t, http.MethodPost, "/api/events", body, 1)

		err := s.ingestEventHandler(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		assert.Contains(t, httpErr.Message, "actor_id must match")
	})
}
