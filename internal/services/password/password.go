// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package password provides one-way password hashing and verification.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor applied to every stored credential.
const Cost = 12

// dummyHash is used for constant-time login to prevent timing attacks when
// the looked-up account does not exist.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), Cost)

// Hash derives a bcrypt digest from a plaintext password.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the stored digest. A mismatch is
// a boolean false, never an error.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyDummy burns a bcrypt comparison against a fixed digest so the
// unknown-email and wrong-password paths take comparable time.
func VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
}
