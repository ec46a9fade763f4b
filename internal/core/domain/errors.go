package domain

import (
	"errors"
	"strings"
)

// Error codes rendered in the "code" field of every error response.
const (
	CodeAuthentication = "AuthenticationError"
	CodeAuthorization  = "AuthorizationError"
	CodeValidation     = "ValidationError"
	CodeNotFound       = "NotFoundError"
	CodeConflict       = "ConflictError"
	CodeTooManyRequest = "TooManyRequests"
	CodeServer         = "ServerError"
)

// Token lifecycle.
var (
	ErrMissingToken   = errors.New("access denied, no token provided")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrSessionExpired = errors.New("refresh token expired")
	ErrSessionInvalid = errors.New("refresh token invalid")
)

// Identity and access.
var (
	ErrInvalidCredentials  = errors.New("email or password is invalid")
	ErrForbidden           = errors.New("access denied, insufficient permissions")
	ErrAdminNotWhitelisted = errors.New("cannot register as an admin")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrUsernameTaken       = errors.New("username already in use")
	ErrRateLimited         = errors.New("too many requests")
)

// Content.
var (
	ErrBlogNotFound       = errors.New("blog not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrLikeNotFound       = errors.New("like not found")
	ErrAlreadyLiked       = errors.New("blog already liked")
	ErrSubscriberExists   = errors.New("subscriber already exists")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrJobNotFailed       = errors.New("job is not in failed state")
)

// ValidationError aggregates field level input problems.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func NewValidationError(message string, fields map[string]string) *ValidationError {
	if fields == nil {
		fields = map[string]string{}
	}
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}
