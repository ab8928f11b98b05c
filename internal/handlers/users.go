// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bmv-platform/identity/internal/models"
	"github.com/bmv-platform/identity/internal/services/account"
)

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Type      *string `json:"type"`
	Role      *string `json:"role"`
}

// ListUsers returns all active accounts.
func (h *Handlers) ListUsers(c echo.Context) error {
	accounts, err := h.svc.List(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return respond(c, http.StatusOK, "Users retrieved successfully",
		echo.Map{"users": accounts, "count": len(accounts)})
}

// GetUser returns a single account by id.
func (h *Handlers) GetUser(c echo.Context) error {
	acc, err := h.svc.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return respond(c, http.StatusOK, "User retrieved successfully",
		echo.Map{"user": acc})
}

// UpdateUser applies a partial profile update. Fields absent from the
// request keep their current values; email and password are never
// changed here.
func (h *Handlers) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.Request().Context()
	current, err := h.svc.GetByID(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	params := account.UpdateParams{
		FirstName: current.FirstName,
		LastName:  current.LastName,
		Type:      current.Type,
		Role:      current.Role,
	}
	if req.FirstName != nil {
		if err := validateName("first name", *req.FirstName); err != nil {
			return badRequest(c, err.Error())
		}
		params.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		if err := validateName("last name", *req.LastName); err != nil {
			return badRequest(c, err.Error())
		}
		params.LastName = *req.LastName
	}
	if req.Type != nil {
		if !models.ValidAccountType(models.AccountType(*req.Type)) {
			return badRequest(c, "type must be one of: professional, company")
		}
		params.Type = models.AccountType(*req.Type)
	}
	if req.Role != nil {
		if !models.ValidRole(models.Role(*req.Role)) {
			return badRequest(c, "role must be one of: client, administrator, operator")
		}
		params.Role = models.Role(*req.Role)
	}

	updated, err := h.svc.Update(ctx, current.ID, params)
	if err != nil {
		return serviceError(c, err)
	}
	return respond(c, http.StatusOK, "User updated successfully",
		echo.Map{"user": updated})
}

// DeactivateUser soft-disables an account without removing its data.
func (h *Handlers) DeactivateUser(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return serviceError(c, err)
	}
	return respond(c, http.StatusOK, "User deactivated successfully", nil)
}

// DeleteUser permanently removes an account.
func (h *Handlers) DeleteUser(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return serviceError(c, err)
	}
	return respond(c, http.StatusOK, "User deleted successfully", nil)
}
