package api

import (
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// userIDContextKey is where requireUser stores the resolved caller id.
const userIDContextKey = "auth_user_id"

// requireUser returns middleware that resolves the caller's identity from the
// asserted user id header. Authentication itself happens upstream; this
// service trusts the header. Requests without a usable id get a 401.
func requireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id, ok := headerUserID(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid X-User-Id header")
			}
			c.Set(userIDContextKey, id)
			return next(c)
		}
	}
}

// headerUserID reads the asserted user id. net/http canonicalizes header
// keys, so X-User-Id covers every casing of that name; user_id is accepted
// as a legacy alias.
func headerUserID(c *echo.Context) (int64, bool) {
	v := c.Request().Header.Get("X-User-Id")
	if v == "" {
		v = c.Request().Header.Get("user_id")
	}
	if v == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// authUserID returns the caller id stored by requireUser.
func authUserID(c *echo.Context) int64 {
	id, _ := c.Get(userIDContextKey).(int64)
	return id
}

// requireMatchingUserID rejects a request whose optional user_id query
// parameter names a user other than the asserted caller. The parameter is
// redundant with the header; reads only ever see the caller's own data.
func requireMatchingUserID(c *echo.Context, userID int64) error {
	v := c.QueryParam("user_id")
	if v == "" {
		return nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id: must be an integer")
	}
	if id != userID {
		return echo.NewHTTPError(http.StatusForbidden, "user_id must match X-User-Id header")
	}
	return nil
}
