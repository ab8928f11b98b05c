// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains the per-request access guard.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bmv-platform/identity/internal/models"
	"github.com/bmv-platform/identity/internal/services/token"
)

// accountKey is the echo context key the resolved principal is stored under.
const accountKey = "authenticated_account"

// AccountLoader resolves a token subject to a stored account.
type AccountLoader interface {
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// AccountFromContext returns the principal attached by Authenticate, or nil.
func AccountFromContext(c echo.Context) *models.Account {
	acc, _ := c.Get(accountKey).(*models.Account)
	return acc
}

// Authenticate translates a bearer token into an authenticated, active
// principal and attaches it to the request context. Resolution is read-only.
func Authenticate(codec *token.Codec, loader AccountLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			bearer, found := strings.CutPrefix(header, "Bearer ")
			if !found || bearer == "" {
				return unauthorized(c, "Access denied. No token provided.")
			}

			claims, err := codec.VerifySession(bearer)
			if err != nil {
				return unauthorized(c, "Invalid token")
			}

			acc, err := loader.GetAccountByID(c.Request().Context(), claims.Subject)
			if err != nil || !acc.IsActive {
				return unauthorized(c, "User not found or inactive")
			}

			c.Set(accountKey, acc)
			return next(c)
		}
	}
}

// RequireVerified gates a route on the principal's verified flag. It composes
// after Authenticate and is applied selectively per protected operation.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acc := AccountFromContext(c)
			if acc == nil {
				return unauthorized(c, "Access denied. No token provided.")
			}
			if !acc.EmailVerified {
				return c.JSON(http.StatusForbidden, map[string]any{
					"success": false,
					"message": "Email verification required to access this resource",
				})
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"message": message,
	})
}
