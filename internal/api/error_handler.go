package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// domainError maps a sentinel to its HTTP rendering. An empty message exposes
// err.Error(), which is safe for validation-style sentinels.
type domainError struct {
	target     error
	code       int
	message    string
	retryAfter string
}

var domainErrors = []domainError{
	{target: domain.ErrForbidden, code: http.StatusForbidden, message: "access forbidden"},
	{target: domain.ErrInvalidCredentials, code: http.StatusUnauthorized, message: "invalid credentials"},
	{target: domain.ErrUserNotFound, code: http.StatusNotFound, message: "user not found"},
	{target: domain.ErrUserExists, code: http.StatusConflict, message: "user already exists"},
	{target: domain.ErrInvalidEvent, code: http.StatusUnprocessableEntity},
	{target: domain.ErrInvalidRange, code: http.StatusBadRequest},
	{target: domain.ErrMissingJourneyKey, code: http.StatusBadRequest},
	{target: domain.ErrQueueFull, code: http.StatusServiceUnavailable, message: "collector is busy, retry later", retryAfter: "1"},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Unknown errors
// are logged and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err, c, log)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, c echo.Context, log zerolog.Logger) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, he.Internal)
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, de := range domainErrors {
		if !errors.Is(err, de.target) {
			continue
		}
		if de.retryAfter != "" {
			c.Response().Header().Set("Retry-After", de.retryAfter)
		}
		if de.message == "" {
			return de.code, err.Error()
		}
		return de.code, de.message
	}

	logUnhandled(log, c, err)
	return http.StatusInternalServerError, "internal server error"
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("route", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
