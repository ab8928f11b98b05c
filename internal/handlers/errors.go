// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bmv-platform/identity/internal/services/account"
)

// serviceError maps a lifecycle error to a stable status and message.
// Internal detail is logged, never leaked to the caller.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, account.ErrEmailTaken):
		return respond(c, http.StatusConflict, "User already exists with this email", nil)
	case errors.Is(err, account.ErrInvalidCredentials):
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, account.ErrAccountDeactivated):
		return respond(c, http.StatusForbidden, "Account is deactivated", nil)
	case errors.Is(err, account.ErrEmailNotVerified):
		return respond(c, http.StatusForbidden, "Please verify your email before logging in. A new verification email has been sent.", nil)
	case errors.Is(err, account.ErrAlreadyVerified):
		return respond(c, http.StatusConflict, "Email already verified", nil)
	case errors.Is(err, account.ErrTokenInvalidOrExpired):
		return respond(c, http.StatusBadRequest, "Invalid or expired token", nil)
	case errors.Is(err, account.ErrNotificationFailed):
		return respond(c, http.StatusBadGateway, "Failed to send notification email. Please try again.", nil)
	case errors.Is(err, account.ErrNotFound):
		return respond(c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return respond(c, http.StatusServiceUnavailable, "Service temporarily unavailable", nil)
	default:
		slog.Error("internal_error", "path", c.Path(), "error", err)
		return respond(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
