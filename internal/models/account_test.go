// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bmv-platform/identity/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountJSONHidesSecrets(t *testing.T) {
	token := "aaaa"
	expires := time.Now().Add(time.Hour)
	account := models.Account{
		ID:                       "acc-1",
		Email:                    "user@example.com",
		PasswordHash:             "$2a$12$secret",
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
		ResetPasswordToken:       &token,
		ResetPasswordExpires:     &expires,
	}

	data, err := json.Marshal(account)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password_hash")
	assert.NotContains(t, string(data), "verification_token")
	assert.NotContains(t, string(data), "reset_password_token")
	assert.Contains(t, string(data), "user@example.com")
}

func TestValidAccountType(t *testing.T) {
	assert.True(t, models.ValidAccountType(models.TypeProfessional))
	assert.True(t, models.ValidAccountType(models.TypeCompany))
	assert.False(t, models.ValidAccountType("enterprise"))
	assert.False(t, models.ValidAccountType(""))
}

func TestValidRole(t *testing.T) {
	assert.True(t, models.ValidRole(models.RoleClient))
	assert.True(t, models.ValidRole(models.RoleAdministrator))
	assert.True(t, models.ValidRole(models.RoleOperator))
	assert.False(t, models.ValidRole("root"))
}

func TestHasValidVerificationToken(t *testing.T) {
	now := time.Now()
	token := "tok"

	var account models.Account
	assert.False(t, account.HasValidVerificationToken(now))

	future := now.Add(time.Hour)
	account.VerificationToken = &token
	account.VerificationTokenExpires = &future
	assert.True(t, account.HasValidVerificationToken(now))

	past := now.Add(-time.Minute)
	account.VerificationTokenExpires = &past
	assert.False(t, account.HasValidVerificationToken(now))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", models.NormalizeEmail("  User@Example.COM "))
}

func TestFullName(t *testing.T) {
	account := models.Account{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", account.FullName())

	account.LastName = ""
	assert.Equal(t, "Ada", account.FullName())
}
