package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// RBAC admits requests whose role, as set by Auth, is one of allowed. Others
// fail with domain.ErrForbidden.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if !slices.Contains(allowed, domain.Role(role)) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
