package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost must stay at 12 so stored digests keep verifying.
const bcryptCost = 12

// HashPassword generates a salted bcrypt digest for the provided password.
// The salt is randomized per call, so hashing the same password twice yields
// different digests.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// CheckPassword reports whether the password matches the stored digest.
// Any failure, including a malformed digest, is treated as a verification
// failure rather than an error.
func CheckPassword(digest, password string) bool {
	if digest == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
