package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tekvoro/web-platform/internal/api/middleware"
	"github.com/tekvoro/web-platform/internal/core/domain"
)

// ctxClaims returns the caller identity set by middleware.Auth. A request
// without a user id or with an unknown role is unauthenticated.
func ctxClaims(c echo.Context) (userID string, role domain.Role, err error) {
	userID, _ = c.Get(middleware.KeyUserID).(string)
	r, _ := c.Get(middleware.KeyRole).(string)
	role = domain.Role(r)
	if userID == "" || !role.Valid() {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, role, nil
}
