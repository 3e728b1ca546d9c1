package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"
)

// listNotificationsHandler handles GET /api/notifications.
// since is the notification id watermark from the previous response; the
// reply carries next_since for the next poll.
func (s *Server) listNotificationsHandler(c *echo.Context) error {
	userID := authUserID(c)

	if err := requireMatchingUserID(c, userID); err != nil {
		return err
	}

	var since int64
	if v := c.QueryParam("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid since: must be an integer")
		}
		since = n
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit: must be an integer")
		}
		limit = n
	}

	page, err := s.notificationService.GetSince(c.Request().Context(), userID, since, limit)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, page)
}
