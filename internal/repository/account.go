// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bmv-platform/identity/internal/models"
)

const accountColumns = `id, identification, email, password_hash, first_name, last_name,
	type, role, is_active, email_verified,
	verification_token, verification_token_expires,
	reset_password_token, reset_password_expires,
	last_login, created_at, updated_at`

// CreateAccount inserts a new account. The ID is assigned here if empty.
// Unique violations on email or identification surface as ErrDuplicate.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.VerificationTokenExpires = utcPtr(account.VerificationTokenExpires)
	account.ResetPasswordExpires = utcPtr(account.ResetPasswordExpires)
	account.LastLogin = utcPtr(account.LastLogin)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Identification, account.Email, account.PasswordHash,
		account.FirstName, account.LastName, account.Type, account.Role,
		account.IsActive, account.EmailVerified,
		account.VerificationToken, account.VerificationTokenExpires,
		account.ResetPasswordToken, account.ResetPasswordExpires,
		account.LastLogin, account.CreatedAt, account.UpdatedAt)
	return wrapError(err)
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by its normalized email address.
// The returned record includes the password hash for credential checks.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// GetAccountByVerificationToken retrieves the account holding a matching,
// non-expired verification token.
func (r *Repository) GetAccountByVerificationToken(ctx context.Context, token string, now time.Time) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE verification_token = ? AND verification_token_expires > ?`,
		token, now.UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// GetAccountByResetToken retrieves the account holding a matching, non-expired
// reset token. Only verified accounts qualify.
func (r *Repository) GetAccountByResetToken(ctx context.Context, token string, now time.Time) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE reset_password_token = ? AND reset_password_expires > ? AND email_verified = 1`,
		token, now.UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// ListActiveAccounts returns all active accounts, newest first.
func (r *Repository) ListActiveAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT `+accountColumns+` FROM accounts WHERE is_active = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapError(err)
	}
	return accounts, nil
}

// SetVerificationToken stores a fresh verification token and its expiry.
func (r *Repository) SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET verification_token = ?, verification_token_expires = ?, updated_at = ?
		 WHERE id = ?`,
		token, expires.UTC(), time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// MarkEmailVerified flips the verified flag and consumes the verification
// token in a single conditional update. ErrNotFound means the token was
// already consumed or the account is already verified.
func (r *Repository) MarkEmailVerified(ctx context.Context, id, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET email_verified = 1, verification_token = NULL, verification_token_expires = NULL, updated_at = ?
		 WHERE id = ? AND verification_token = ? AND email_verified = 0`,
		time.Now().UTC(), id, token)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// SetResetToken stores a fresh password-reset token and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET reset_password_token = ?, reset_password_expires = ?, updated_at = ?
		 WHERE id = ?`,
		token, expires.UTC(), time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// UpdatePassword replaces the password hash and consumes the reset token in a
// single conditional update. ErrNotFound means the token no longer matches.
func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET password_hash = ?, reset_password_token = NULL, reset_password_expires = NULL, updated_at = ?
		 WHERE id = ? AND reset_password_token = ? AND email_verified = 1`,
		passwordHash, time.Now().UTC(), id, token)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// UpdateLastLogin records a successful login timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET last_login = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// UpdateProfileParams holds the mutable profile fields. Email and password
// are intentionally not updatable through this path.
type UpdateProfileParams struct {
	FirstName string
	LastName  string
	Type      models.AccountType
	Role      models.Role
}

// UpdateProfile updates the mutable profile fields of an account.
func (r *Repository) UpdateProfile(ctx context.Context, id string, params UpdateProfileParams) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET first_name = ?, last_name = ?, type = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		params.FirstName, params.LastName, params.Type, params.Role, time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// DeactivateAccount clears the active flag.
func (r *Repository) DeactivateAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// DeleteAccount removes an account permanently.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return wrapError(err)
	}
	return requireRows(res.RowsAffected())
}

// utcPtr normalizes an optional timestamp so stored TEXT values compare
// consistently with the UTC-bound expiry predicates.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func requireRows(n int64, err error) error {
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
