package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/repository"
	"github.com/wanderio/tourhub/internal/utils"
)

// userContextKey is where Protect stores the authenticated *model.User.
const userContextKey = "user"

// CurrentUser returns the authenticated user set by Protect, or nil when the
// request is anonymous.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userContextKey).(*model.User)
	return u
}

// tokenFromRequest extracts the raw session token, preferring the
// Authorization header over the "jwt" cookie.
func tokenFromRequest(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie("jwt"); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// authenticate resolves the request's session token to a live user. Every
// failure mode maps to an authentication error: no token, bad or expired
// token, deleted user, or a token issued before the last password change.
func authenticate(c echo.Context, secret string, users repository.UserStore) (*model.User, error) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil, apperr.New(apperr.Authentication, "you are not logged in, please log in to get access")
	}

	userID, issuedAt, err := utils.ParseSessionToken(secret, raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperr.New(apperr.Authentication, "your token has expired, please log in again")
		}
		return nil, apperr.New(apperr.Authentication, "invalid token, please log in again")
	}

	user, err := users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.Authentication, "the user belonging to this token no longer exists")
		}
		return nil, apperr.Internalf(err)
	}

	if user.ChangedPasswordAfter(issuedAt) {
		return nil, apperr.New(apperr.Authentication, "password was recently changed, please log in again")
	}
	return &user, nil
}

// Protect returns middleware that requires a valid session token and loads
// the owning user into the context for handlers downstream. A user already
// resolved earlier in the chain (OptionalAuth) is trusted as-is.
func Protect(secret string, users repository.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) != nil {
				return next(c)
			}
			user, err := authenticate(c, secret, users)
			if err != nil {
				return err
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// OptionalAuth loads the user into the context when a valid token is present
// and lets the request through anonymously otherwise. Useful for routes whose
// behavior is merely personalized by identity.
func OptionalAuth(secret string, users repository.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user, err := authenticate(c, secret, users); err == nil {
				c.Set(userContextKey, user)
			}
			return next(c)
		}
	}
}
