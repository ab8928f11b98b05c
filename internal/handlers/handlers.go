// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP boundary of the identity service.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bmv-platform/identity/internal/services/account"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	svc *account.Service
}

// New creates a new Handlers instance.
func New(svc *account.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respond writes the JSON envelope every endpoint shares.
func respond(c echo.Context, status int, message string, data any) error {
	body := map[string]any{"success": status < http.StatusBadRequest}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, message string) error {
	return respond(c, http.StatusBadRequest, message, nil)
}
