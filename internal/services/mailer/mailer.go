// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package mailer renders and delivers the notification messages of the
// account lifecycle: verification, welcome, and password reset.
package mailer

import (
	"context"
	"fmt"
	"strings"
)

// Sender delivers a single message. Implementations own the transport; the
// lifecycle service only depends on this contract.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service renders the lifecycle templates and hands them to a Sender.
type Service struct {
	sender  Sender
	baseURL string
}

// NewService creates a mailer service. baseURL is the public URL the token
// links point at.
func NewService(sender Sender, baseURL string) *Service {
	return &Service{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// SendVerification delivers the email-verification message.
func (s *Service) SendVerification(ctx context.Context, to, firstName, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	subject, body, err := renderVerification(firstName, verifyURL)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, to, subject, body)
}

// SendWelcome delivers the post-verification welcome message.
func (s *Service) SendWelcome(ctx context.Context, to, firstName string) error {
	subject, body, err := renderWelcome(firstName)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, to, subject, body)
}

// SendPasswordReset delivers the password-reset message.
func (s *Service) SendPasswordReset(ctx context.Context, to, firstName, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	subject, body, err := renderPasswordReset(firstName, resetURL)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, to, subject, body)
}
