package middleware

import "github.com/labstack/echo/v4"

// Keys of the request scoped values set by Authenticate and Authorize.
const (
	ContextUserID = "userId"
	ContextRole   = "role"
)

// UserID returns the caller resolved by Authenticate, or "" when absent.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// Role returns the role loaded by Authorize, or "" when absent.
func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}
