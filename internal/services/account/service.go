// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account orchestrates the account lifecycle: registration, login,
// email verification, and password reset.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmv-platform/identity/internal/models"
	"github.com/bmv-platform/identity/internal/repository"
	"github.com/bmv-platform/identity/internal/services/password"
	"github.com/bmv-platform/identity/internal/services/token"
)

var (
	// ErrEmailTaken signals a registration against an existing email or
	// identification.
	ErrEmailTaken = errors.New("account: email or identification already registered")
	// ErrInvalidCredentials signals wrong email or password. The two cases
	// are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	// ErrAccountDeactivated signals a login against a deactivated account.
	ErrAccountDeactivated = errors.New("account: account is deactivated")
	// ErrEmailNotVerified blocks login until the email is verified.
	ErrEmailNotVerified = errors.New("account: email not verified")
	// ErrAlreadyVerified signals a verification attempt on a verified account.
	ErrAlreadyVerified = errors.New("account: email already verified")
	// ErrTokenInvalidOrExpired signals a side-channel token that does not
	// match, has expired, or was already consumed.
	ErrTokenInvalidOrExpired = errors.New("account: invalid or expired token")
	// ErrNotificationFailed signals that a mandatory notification could not
	// be delivered.
	ErrNotificationFailed = errors.New("account: failed to send notification")
	// ErrNotFound signals a lookup for a missing account.
	ErrNotFound = errors.New("account: not found")
)

// Side-channel token lifetimes.
const (
	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = time.Hour
)

// Notifier delivers the lifecycle notifications. Implementations own
// templates and transport.
type Notifier interface {
	SendVerification(ctx context.Context, to, firstName, token string) error
	SendWelcome(ctx context.Context, to, firstName string) error
	SendPasswordReset(ctx context.Context, to, firstName, token string) error
}

// Service is the account lifecycle manager.
type Service struct {
	repo     *repository.Repository
	codec    *token.Codec
	notifier Notifier
}

// NewService creates a new lifecycle service.
func NewService(repo *repository.Repository, codec *token.Codec, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		codec:    codec,
		notifier: notifier,
	}
}

// RegisterParams holds the parameters for account registration. Inputs are
// expected to be validated at the boundary.
type RegisterParams struct {
	Identification string
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Type           models.AccountType
	Role           models.Role
}

// AuthResult bundles an account and the session token minted for it.
type AuthResult struct {
	Account *models.Account
	Token   string
}

// Register creates a new unverified account and dispatches the verification
// notification. Registration is all-or-nothing: if the notification cannot be
// delivered, the freshly created account is deleted again and
// ErrNotificationFailed is returned. No session token is issued.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Account, error) {
	passwordHash, err := password.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	verification, err := token.NewOpaque(token.DefaultOpaqueLength)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(VerificationTokenTTL)

	acc := &models.Account{
		Identification:           models.NormalizeIdentification(params.Identification),
		Email:                    models.NormalizeEmail(params.Email),
		PasswordHash:             passwordHash,
		FirstName:                params.FirstName,
		LastName:                 params.LastName,
		Type:                     params.Type,
		Role:                     params.Role,
		IsActive:                 true,
		EmailVerified:            false,
		VerificationToken:        &verification,
		VerificationTokenExpires: &expires,
	}

	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.notifier.SendVerification(ctx, acc.Email, acc.FirstName, verification); err != nil {
		// Compensating action: an account whose verification mail never went
		// out must not linger in an unrecoverable state.
		slog.Error("register_notification_failed", "email", acc.Email, "error", err)
		if delErr := s.repo.DeleteAccount(ctx, acc.ID); delErr != nil {
			slog.Error("register_compensation_failed", "account_id", acc.ID, "error", delErr)
		}
		return nil, ErrNotificationFailed
	}

	slog.Info("register_success", "account_id", acc.ID, "email", acc.Email)
	return acc, nil
}

// Login authenticates credentials and mints a session token. Unknown email
// and wrong password fail identically. An unverified account never logs in;
// its verification token is rotated if stale and the notification re-sent
// best-effort before the login is rejected.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (AuthResult, error) {
	acc, err := s.repo.GetAccountByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			password.VerifyDummy(plainPassword)
			slog.Warn("login_failed", "email", email, "reason", "account_not_found")
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("get account: %w", err)
	}

	if !password.Verify(plainPassword, acc.PasswordHash) {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return AuthResult{}, ErrInvalidCredentials
	}

	if !acc.IsActive {
		slog.Warn("login_failed", "email", email, "reason", "deactivated")
		return AuthResult{}, ErrAccountDeactivated
	}

	if !acc.EmailVerified {
		s.resendVerificationBestEffort(ctx, acc)
		return AuthResult{}, ErrEmailNotVerified
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, acc.ID, now); err != nil {
		return AuthResult{}, fmt.Errorf("update last login: %w", err)
	}
	acc.LastLogin = &now

	session, err := s.codec.MintSession(acc.ID, acc.Email)
	if err != nil {
		return AuthResult{}, err
	}

	slog.Info("login_success", "account_id", acc.ID, "email", acc.Email)
	return AuthResult{Account: acc, Token: session}, nil
}

// resendVerificationBestEffort rotates a stale verification token and
// re-dispatches the notification. Failures are logged, never propagated: the
// surrounding login fails with ErrEmailNotVerified regardless.
func (s *Service) resendVerificationBestEffort(ctx context.Context, acc *models.Account) {
	if !acc.HasValidVerificationToken(time.Now()) {
		if err := s.rotateVerificationToken(ctx, acc); err != nil {
			slog.Error("verification_rotate_failed", "account_id", acc.ID, "error", err)
			return
		}
	}
	if err := s.notifier.SendVerification(ctx, acc.Email, acc.FirstName, *acc.VerificationToken); err != nil {
		slog.Error("verification_resend_failed", "account_id", acc.ID, "error", err)
		return
	}
	slog.Info("verification_resent", "account_id", acc.ID, "email", acc.Email)
}

func (s *Service) rotateVerificationToken(ctx context.Context, acc *models.Account) error {
	fresh, err := token.NewOpaque(token.DefaultOpaqueLength)
	if err != nil {
		return err
	}
	expires := time.Now().Add(VerificationTokenTTL)
	if err := s.repo.SetVerificationToken(ctx, acc.ID, fresh, expires); err != nil {
		return err
	}
	acc.VerificationToken = &fresh
	acc.VerificationTokenExpires = &expires
	return nil
}

// VerifyEmail consumes a verification token, marks the account verified, and
// mints a session token so the user does not have to log in again. The
// welcome notification is best-effort.
func (s *Service) VerifyEmail(ctx context.Context, verificationToken string) (AuthResult, error) {
	acc, err := s.repo.GetAccountByVerificationToken(ctx, verificationToken, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrTokenInvalidOrExpired
		}
		return AuthResult{}, fmt.Errorf("get account by token: %w", err)
	}

	// Secondary guard: the token is cleared on first use, so a verified
	// account holding one should not normally occur.
	if acc.EmailVerified {
		return AuthResult{}, ErrAlreadyVerified
	}

	if err := s.repo.MarkEmailVerified(ctx, acc.ID, verificationToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race against a concurrent consume.
			return AuthResult{}, ErrTokenInvalidOrExpired
		}
		return AuthResult{}, fmt.Errorf("mark verified: %w", err)
	}
	acc.EmailVerified = true
	acc.VerificationToken = nil
	acc.VerificationTokenExpires = nil

	if err := s.notifier.SendWelcome(ctx, acc.Email, acc.FirstName); err != nil {
		slog.Error("welcome_notification_failed", "account_id", acc.ID, "error", err)
	}

	session, err := s.codec.MintSession(acc.ID, acc.Email)
	if err != nil {
		return AuthResult{}, err
	}

	slog.Info("email_verified", "account_id", acc.ID, "email", acc.Email)
	return AuthResult{Account: acc, Token: session}, nil
}

// ResendVerification re-dispatches the verification notification. A missing
// account is silently acknowledged; a still-valid pending token is reused so
// a token the user already has in hand stays honorable.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	acc, err := s.repo.GetAccountByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("verification_resend_skipped", "email", email, "reason", "account_not_found")
			return nil
		}
		return fmt.Errorf("get account: %w", err)
	}

	if acc.EmailVerified {
		return ErrAlreadyVerified
	}

	if !acc.HasValidVerificationToken(time.Now()) {
		if err := s.rotateVerificationToken(ctx, acc); err != nil {
			return fmt.Errorf("rotate verification token: %w", err)
		}
	}

	if err := s.notifier.SendVerification(ctx, acc.Email, acc.FirstName, *acc.VerificationToken); err != nil {
		slog.Error("verification_resend_failed", "account_id", acc.ID, "error", err)
		return ErrNotificationFailed
	}

	slog.Info("verification_resent", "account_id", acc.ID, "email", acc.Email)
	return nil
}

// RequestPasswordReset mints a reset token for a verified account and
// dispatches the reset notification. Unknown or unverified emails are
// silently acknowledged without minting anything, so the call leaks no
// enumeration signal.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := s.repo.GetAccountByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("password_reset_skipped", "email", email, "reason", "account_not_found")
			return nil
		}
		return fmt.Errorf("get account: %w", err)
	}

	if !acc.EmailVerified {
		slog.Info("password_reset_skipped", "email", email, "reason", "not_verified")
		return nil
	}

	reset, err := token.NewOpaque(token.DefaultOpaqueLength)
	if err != nil {
		return err
	}
	if err := s.repo.SetResetToken(ctx, acc.ID, reset, time.Now().Add(ResetTokenTTL)); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, acc.Email, acc.FirstName, reset); err != nil {
		slog.Error("reset_notification_failed", "account_id", acc.ID, "error", err)
		return ErrNotificationFailed
	}

	slog.Info("password_reset_requested", "account_id", acc.ID, "email", acc.Email)
	return nil
}

// ResetPassword consumes a reset token and replaces the password. No session
// is issued; the user logs in again with the new password.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	acc, err := s.repo.GetAccountByResetToken(ctx, resetToken, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return fmt.Errorf("get account by reset token: %w", err)
	}

	passwordHash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, acc.ID, passwordHash, resetToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return fmt.Errorf("update password: %w", err)
	}

	slog.Info("password_reset_success", "account_id", acc.ID, "email", acc.Email)
	return nil
}

// GetByID retrieves an account by ID.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

// List returns all active accounts, newest first.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.repo.ListActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateParams holds the account fields an administrative update may change.
// Email and password are immutable through this path.
type UpdateParams struct {
	FirstName string
	LastName  string
	Type      models.AccountType
	Role      models.Role
}

// Update changes the mutable profile fields and returns the updated account.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*models.Account, error) {
	err := s.repo.UpdateProfile(ctx, id, repository.UpdateProfileParams{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Type:      params.Type,
		Role:      params.Role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Deactivate clears the active flag. The account remains stored and its
// sessions stop resolving at the access guard.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.DeactivateAccount(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deactivate account: %w", err)
	}
	slog.Info("account_deactivated", "account_id", id)
	return nil
}

// Delete removes an account permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	slog.Info("account_deleted", "account_id", id)
	return nil
}
