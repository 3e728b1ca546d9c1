package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"
)

// getTopHandler handles GET /api/top.
func (s *Server) getTopHandler(c *echo.Context) error {
	k := 0
	if v := c.QueryParam("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid k: must be an integer")
		}
		k = n
	}

	page, err := s.topService.GetTop(c.QueryParam("window"), c.QueryParam("by"), k)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, page)
}
