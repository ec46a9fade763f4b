package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type knownError struct {
	err     error
	status  int
	code    string
	message string
}

var knownErrors = []knownError{
	{domain.ErrMissingToken, http.StatusUnauthorized, domain.CodeAuthentication, "Access denied, no token provided"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, domain.CodeAuthentication, "Access token expired, request a new one with refresh token"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, domain.CodeAuthentication, "Access token invalid"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, domain.CodeAuthentication, "Refresh token expired, please login again"},
	{domain.ErrSessionInvalid, http.StatusUnauthorized, domain.CodeAuthentication, "Invalid refresh token"},
	{domain.ErrTokenRevoked, http.StatusUnauthorized, domain.CodeAuthentication, "Refresh token has been revoked, please login again"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, domain.CodeValidation, "Email or password is invalid"},
	{domain.ErrForbidden, http.StatusForbidden, domain.CodeAuthorization, "Access denied, insufficient permissions"},
	{domain.ErrAdminNotWhitelisted, http.StatusForbidden, domain.CodeAuthorization, "You cannot register as an admin"},
	{domain.ErrUserNotFound, http.StatusNotFound, domain.CodeNotFound, "User not found"},
	{domain.ErrBlogNotFound, http.StatusNotFound, domain.CodeNotFound, "Blog not found"},
	{domain.ErrCommentNotFound, http.StatusNotFound, domain.CodeNotFound, "Comment not found"},
	{domain.ErrLikeNotFound, http.StatusNotFound, domain.CodeNotFound, "Like not found"},
	{domain.ErrSubscriberNotFound, http.StatusNotFound, domain.CodeNotFound, "Subscriber not found"},
	{domain.ErrJobNotFound, http.StatusNotFound, domain.CodeNotFound, "Job not found"},
	{domain.ErrUserExists, http.StatusConflict, domain.CodeConflict, "User with this email already exists"},
	{domain.ErrUsernameTaken, http.StatusConflict, domain.CodeConflict, "Username already in use"},
	{domain.ErrAlreadyLiked, http.StatusConflict, domain.CodeConflict, "You already liked this blog"},
	{domain.ErrSubscriberExists, http.StatusConflict, domain.CodeConflict, "Subscriber with this email already exists"},
	{domain.ErrJobNotFailed, http.StatusConflict, domain.CodeConflict, "Only failed jobs can be retried"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, domain.CodeTooManyRequest, "Too many requests, please try again later"},
}

// NewHTTPErrorHandler returns the single place where errors become HTTP
// responses. Unknown errors are logged, reported to Sentry and rendered as
// a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Code: domain.CodeValidation, Message: verr.Message, Errors: verr.Fields}
	}

	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return k.status, errorResponse{Code: k.code, Message: k.message}
		}
	}

	// Echo's own errors (bind failures, 404 from router, 413 from body limit).
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return he.Code, errorResponse{Code: codeForStatus(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	reqID := c.Response().Header().Get(echo.HeaderXRequestID)
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", reqID).
		Msg("unhandled error")

	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request())
		scope.SetTag("request_id", reqID)
		hub.CaptureException(err)
	})

	return http.StatusInternalServerError, errorResponse{Code: domain.CodeServer, Message: "Internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return domain.CodeAuthentication
	case http.StatusForbidden:
		return domain.CodeAuthorization
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusConflict:
		return domain.CodeConflict
	case http.StatusTooManyRequests:
		return domain.CodeTooManyRequest
	default:
		return domain.CodeValidation
	}
}
