// Package auth provides password hashing, JWT access tokens, and request
// validation rules for the HTTP layer.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/docupilot/docupilot/internal/apperr"
)

// bcryptCost matches the rounds used for all stored password hashes.
const bcryptCost = 12

// HashPassword hashes a password with bcrypt. bcrypt rejects inputs over
// 72 bytes, surfaced here as a validation error rather than a hash failure.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", fmt.Errorf("%w: password exceeds 72 bytes", apperr.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
