package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/streampulse/activityd/pkg/models"
)

// streamNotificationsHandler handles GET /api/notifications/stream.
//
// The connection first receives a reconnect retry hint, then a backfill of
// notifications newer than the client's Last-Event-ID, then live messages
// from the broker. Every SSE event carries the notification id in its id:
// field so the browser resumes from the right place on reconnect. Quiet
// periods are bridged with keep-alive comments so intermediaries do not
// close the connection as idle.
func (s *Server) streamNotificationsHandler(c *echo.Context) error {
	userID := authUserID(c)

	if err := requireMatchingUserID(c, userID); err != nil {
		return err
	}

	lastEventID, err := parseLastEventID(c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid Last-Event-ID: must be a non-negative integer")
	}

	w := c.Response()
	flusher, ok := w.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", s.cfg.Stream.RetryHint.Milliseconds()); err != nil {
		return nil
	}
	flusher.Flush()

	sub := s.broker.Subscribe(userID, s.cfg.Stream.QueueCap)
	defer s.broker.Unsubscribe(sub)

	// Backfill anything the client missed while disconnected. Messages the
	// broker delivers during the backfill may be re-sent; clients de-dupe on
	// the notification id.
	if lastEventID > 0 {
		page, err := s.notificationService.GetSince(c.Request().Context(), userID, lastEventID, s.cfg.Stream.BackfillLimit)
		if err != nil {
			slog.Error("SSE backfill failed", "user_id", userID, "error", err)
			return nil
		}
		for _, n := range page.Items {
			if err := writeSSEEvent(w, n); err != nil {
				return nil
			}
		}
		flusher.Flush()
	}

	ctx := c.Request().Context()
	keepAlive := time.NewTimer(s.cfg.Stream.KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n := <-sub.C:
			if err := writeSSEEvent(w, n); err != nil {
				return nil
			}
			flusher.Flush()
			if !keepAlive.Stop() {
				select {
				case <-keepAlive.C:
				default:
				}
			}
			keepAlive.Reset(s.cfg.Stream.KeepAliveInterval)

		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
			keepAlive.Reset(s.cfg.Stream.KeepAliveInterval)
		}
	}
}

// writeSSEEvent emits one notification as an SSE event. The JSON is compact,
// so the payload never spans multiple data lines.
func writeSSEEvent(w io.Writer, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: notification\ndata: %s\n\n", n.ID, data)
	return err
}

// parseLastEventID reads the SSE resume position from the Last-Event-ID
// header, falling back to the last_event_id query parameter for clients that
// cannot set headers. Absent means no backfill.
func parseLastEventID(r *http.Request) (int64, error) {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("last_event_id")
	}
	if v == "" {
		return 0, nil
	}

	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid last event id %q", v)
	}
	return id, nil
}
