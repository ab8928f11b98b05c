// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and verifies signed session tokens and generates
// opaque side-channel tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification. Expired,
// mis-signed, and malformed tokens fail identically to avoid oracle leakage.
var ErrInvalidToken = errors.New("token: invalid token")

// DefaultOpaqueLength is the number of random bytes behind a side-channel
// token, yielding 64 hex characters.
const DefaultOpaqueLength = 32

// SessionClaims carries the account identity inside a session token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Codec mints and verifies HMAC-signed session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a Codec signing with the given secret. Sessions expire
// after ttl.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// MintSession issues a signed session token for an account.
func (c *Codec) MintSession(accountID, email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// VerifySession validates signature and expiry together and returns the
// embedded claims. Any failure is ErrInvalidToken.
func (c *Codec) VerifySession(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// NewOpaque generates a cryptographically secure random token of byteLength
// bytes, hex encoded.
func NewOpaque(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultOpaqueLength
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
