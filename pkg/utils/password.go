package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the original deployment's salt generation settings.
// Raising it invalidates nothing (cost is stored per hash) but slows signup.
const bcryptCost = 12

// HashPassword hashes a password using bcrypt with a per-hash random salt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored bcrypt hash.
// The comparison is constant-time. A mismatch is (false, nil), not an error.
func VerifyPassword(password, hashedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
