// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/bmv-platform/identity/internal/models"
)

const (
	minPasswordLength    = 8
	minIdentificationLen = 10
	maxIdentificationLen = 13
	maxNameLength        = 50
)

// Validation happens here, before anything reaches the lifecycle service.

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(models.NormalizeEmail(email)); err != nil {
		return fmt.Errorf("please provide a valid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func validateIdentification(identification string) error {
	length := utf8.RuneCountInString(models.NormalizeIdentification(identification))
	if length < minIdentificationLen || length > maxIdentificationLen {
		return fmt.Errorf("identification must be between %d and %d characters", minIdentificationLen, maxIdentificationLen)
	}
	return nil
}

func validateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(value) > maxNameLength {
		return fmt.Errorf("%s cannot exceed %d characters", field, maxNameLength)
	}
	return nil
}

func validateRegister(req registerRequest) error {
	if err := validateIdentification(req.Identification); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if err := validateName("first name", req.FirstName); err != nil {
		return err
	}
	if err := validateName("last name", req.LastName); err != nil {
		return err
	}
	if !models.ValidAccountType(models.AccountType(req.Type)) {
		return fmt.Errorf("type must be one of: professional, company")
	}
	if !models.ValidRole(models.Role(req.Role)) {
		return fmt.Errorf("role must be one of: client, administrator, operator")
	}
	return nil
}
