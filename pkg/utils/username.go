package utils

import (
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 255
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_@.+-]+$`)

// ValidateUsername validates username format.
// Usernames double as email addresses, so the permitted set is loose:
// letters, digits and _@.+- between 3 and 255 characters.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	}
	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username is too long"}
	}
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "Username contains invalid characters"}
	}
	return nil
}

// NormalizeUsername trims surrounding whitespace before storage and lookup.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
