package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// errorBody is the canonical error envelope: a stable machine-readable code
// plus a human message.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// errorCode pairs a domain error with its HTTP status and stable code.
type errorCode struct {
	err    error
	status int
	code   string
}

// domainErrors is the full taxonomy. Order matters only for readability;
// lookups are errors.Is against each entry.
var domainErrors = []errorCode{
	{domain.ErrAuthFailed, http.StatusUnauthorized, "AUTH_FAILED"},
	{domain.ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{domain.ErrAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	{domain.ErrEmailExists, http.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrStoreNameExists, http.StatusConflict, "STORE_NAME_EXISTS"},
	{domain.ErrStoreExists, http.StatusBadRequest, "STORE_ALREADY_EXISTS"},
	{domain.ErrAlreadyAdmin, http.StatusBadRequest, "ALREADY_ADMIN"},
	{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrStoreNotFound, http.StatusNotFound, "STORE_NOT_FOUND"},
	{domain.ErrOtpNotFound, http.StatusNotFound, "OTP_NOT_FOUND"},
	{domain.ErrOtpAlreadyUsed, http.StatusBadRequest, "OTP_ALREADY_USED"},
	{domain.ErrOtpExpired, http.StatusBadRequest, "OTP_EXPIRED"},
	{domain.ErrOtpMaxAttempts, http.StatusTooManyRequests, "OTP_MAX_ATTEMPTS"},
	{domain.ErrInvalidOtp, http.StatusBadRequest, "INVALID_OTP"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "TOKEN_INVALID"},
	{domain.ErrTokenRevoked, http.StatusUnauthorized, "TOKEN_REVOKED"},
	{domain.ErrTokenNotFound, http.StatusUnauthorized, "TOKEN_NOT_FOUND"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and stable code.
//   - Logs unexpected errors internally without leaking details.
//   - Renders a consistent JSON envelope: {"error": {"code", "message"}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		_ = c.JSON(status, errorResponse{Error: body})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorBody) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorBody{Code: "INVALID_INPUT", Message: fmt.Sprintf("%v", he.Message)}
	}

	for _, ec := range domainErrors {
		if errors.Is(err, ec.err) {
			return ec.status, errorBody{Code: ec.code, Message: ec.err.Error()}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorBody{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "an unexpected error occurred",
	}
}
