// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// AccountType classifies the kind of entity behind an account.
type AccountType string

const (
	TypeProfessional AccountType = "professional"
	TypeCompany      AccountType = "company"
)

// Role is the stored role of an account. Roles are returned to callers but
// no policy is evaluated on them.
type Role string

const (
	RoleClient        Role = "client"
	RoleAdministrator Role = "administrator"
	RoleOperator      Role = "operator"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case TypeProfessional, TypeCompany:
		return true
	default:
		return false
	}
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleClient, RoleAdministrator, RoleOperator:
		return true
	default:
		return false
	}
}

// Account is the central entity of the identity service. The password hash
// and the side-channel tokens never serialize outward.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID             string      `db:"id" json:"id"`
	Identification string      `db:"identification" json:"identification"`
	Email          string      `db:"email" json:"email"`
	PasswordHash   string      `db:"password_hash" json:"-"`
	FirstName      string      `db:"first_name" json:"first_name"`
	LastName       string      `db:"last_name" json:"last_name"`
	Type           AccountType `db:"type" json:"type"`
	Role           Role        `db:"role" json:"role"`
	IsActive       bool        `db:"is_active" json:"is_active"`
	EmailVerified  bool        `db:"email_verified" json:"email_verified"`

	VerificationToken        *string    `db:"verification_token" json:"-"`
	VerificationTokenExpires *time.Time `db:"verification_token_expires" json:"-"`
	ResetPasswordToken       *string    `db:"reset_password_token" json:"-"`
	ResetPasswordExpires     *time.Time `db:"reset_password_expires" json:"-"`

	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns first and last name joined for display and mail salutations.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// HasValidVerificationToken reports whether a pending verification token
// exists and has not expired at the given instant.
func (a *Account) HasValidVerificationToken(now time.Time) bool {
	return a.VerificationToken != nil &&
		a.VerificationTokenExpires != nil &&
		a.VerificationTokenExpires.After(now)
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeIdentification lowercases and trims an identification string.
func NormalizeIdentification(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
