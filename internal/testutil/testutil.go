// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"github.com/bmv-platform/identity/internal/database"
	"github.com/bmv-platform/identity/internal/models"
	"github.com/bmv-platform/identity/internal/repository"
	"github.com/bmv-platform/identity/internal/services/password"
)

// TestPassword is the plaintext behind every fixture account.
const TestPassword = "sup3r-secret-pw"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAccount creates an active account with TestPassword as credential.
// Unverified accounts get a pending verification token valid for 24 hours.
func NewTestAccount(t *testing.T, repo *repository.Repository, email string, verified bool) *models.Account {
	t.Helper()
	ctx := context.Background()

	hash, err := password.Hash(TestPassword)
	require.NoError(t, err)

	account := &models.Account{
		Identification: "id-" + uuid.NewString()[:9],
		Email:          models.NormalizeEmail(email),
		PasswordHash:   hash,
		FirstName:      "Test",
		LastName:       "Account",
		Type:           models.TypeProfessional,
		Role:           models.RoleClient,
		IsActive:       true,
		EmailVerified:  verified,
	}
	if !verified {
		token := "verify-" + email
		expires := time.Now().UTC().Add(24 * time.Hour)
		account.VerificationToken = &token
		account.VerificationTokenExpires = &expires
	}

	require.NoError(t, repo.CreateAccount(ctx, account))
	return account
}

// NotificationCall records a single dispatched notification.
type NotificationCall struct {
	To    string
	Name  string
	Token string
}

// FakeNotifier records notification dispatches and can be primed to fail.
type FakeNotifier struct {
	mu sync.Mutex

	VerificationCalls []NotificationCall
	WelcomeCalls      []NotificationCall
	ResetCalls        []NotificationCall

	FailVerification error
	FailWelcome      error
	FailReset        error
}

func (f *FakeNotifier) SendVerification(_ context.Context, to, firstName, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailVerification != nil {
		return f.FailVerification
	}
	f.VerificationCalls = append(f.VerificationCalls, NotificationCall{To: to, Name: firstName, Token: token})
	return nil
}

func (f *FakeNotifier) SendWelcome(_ context.Context, to, firstName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWelcome != nil {
		return f.FailWelcome
	}
	f.WelcomeCalls = append(f.WelcomeCalls, NotificationCall{To: to, Name: firstName})
	return nil
}

func (f *FakeNotifier) SendPasswordReset(_ context.Context, to, firstName, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReset != nil {
		return f.FailReset
	}
	f.ResetCalls = append(f.ResetCalls, NotificationCall{To: to, Name: firstName, Token: token})
	return nil
}

// TotalCalls returns the number of notifications dispatched across all kinds.
func (f *FakeNotifier) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.VerificationCalls) + len(f.WelcomeCalls) + len(f.ResetCalls)
}
