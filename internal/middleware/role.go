package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/model"
)

// RequireRole restricts a route to users holding one of the given roles. It
// must run after Protect; an anonymous request or a role outside the allowed
// set is rejected with an authorization error.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !allowed[user.Role] {
				return apperr.New(apperr.Authorization, "you do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
