package middleware

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// Authorize loads the authenticated user and lets the request through only
// when the current role is one of roles. The role is read from the store on
// each request, so a role change applies immediately.
func Authorize(users ports.UserFinder, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			if userID == "" {
				return domain.ErrMissingToken
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return err
				}
				return fmt.Errorf("load user for authorization: %w", err)
			}

			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}

			c.Set(ContextRole, user.Role)
			return next(c)
		}
	}
}
