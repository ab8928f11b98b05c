// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bmv-platform/identity/internal/middleware"
	"github.com/bmv-platform/identity/internal/models"
	"github.com/bmv-platform/identity/internal/services/account"
)

type registerRequest struct {
	Identification string `json:"identification"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Type           string `json:"type"`
	Role           string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Register creates a new account and sends the verification email.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateRegister(req); err != nil {
		return badRequest(c, err.Error())
	}

	acc, err := h.svc.Register(c.Request().Context(), account.RegisterParams{
		Identification: req.Identification,
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Type:           models.AccountType(req.Type),
		Role:           models.Role(req.Role),
	})
	if err != nil {
		return serviceError(c, err)
	}

	return respond(c, http.StatusCreated,
		"User registered successfully. Please check your email for verification.",
		echo.Map{"user": acc})
}

// Login authenticates an account and issues a session token.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Password == "" {
		return badRequest(c, "password is required")
	}

	result, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	return respond(c, http.StatusOK, "Login successful",
		echo.Map{"user": result.Account, "token": result.Token})
}

// Profile returns the authenticated account.
func (h *Handlers) Profile(c echo.Context) error {
	acc := middleware.AccountFromContext(c)
	if acc == nil {
		return serviceError(c, account.ErrNotFound)
	}
	return respond(c, http.StatusOK, "Profile retrieved successfully",
		echo.Map{"user": acc})
}

// VerifyEmail consumes a verification token from the query string.
func (h *Handlers) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return badRequest(c, "Verification token is required")
	}

	result, err := h.svc.VerifyEmail(c.Request().Context(), token)
	if err != nil {
		return serviceError(c, err)
	}

	return respond(c, http.StatusOK, "Email verified successfully",
		echo.Map{"user": result.Account, "token": result.Token})
}

// ResendVerification sends a fresh verification email. Responds identically
// whether or not the address is registered.
func (h *Handlers) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return serviceError(c, err)
	}

	return respond(c, http.StatusOK,
		"Verification email sent if account exists and is not verified", nil)
}

// ForgotPassword starts the password reset flow. Responds identically
// whether or not the address is registered.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return serviceError(c, err)
	}

	return respond(c, http.StatusOK,
		"If the email exists, a password reset link has been sent", nil)
}

// ResetPassword consumes a reset token and sets a new password.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Reset token is required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return serviceError(c, err)
	}

	return respond(c, http.StatusOK, "Password reset successfully", nil)
}
