package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"
)

// getFeedHandler handles GET /api/feed.
func (s *Server) getFeedHandler(c *echo.Context) error {
	userID := authUserID(c)

	if err := requireMatchingUserID(c, userID); err != nil {
		return err
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit: must be an integer")
		}
		limit = n
	}

	page, err := s.feedService.GetFeed(c.Request().Context(), userID, c.QueryParam("cursor"), limit)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, page)
}
