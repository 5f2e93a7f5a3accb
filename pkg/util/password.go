package util

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// PasswordViolation identifies one missing strength requirement.
type PasswordViolation string

const (
	ViolationLength    PasswordViolation = "length"    // fewer than 8 characters
	ViolationUppercase PasswordViolation = "uppercase" // no A-Z
	ViolationLowercase PasswordViolation = "lowercase" // no a-z
	ViolationDigit     PasswordViolation = "digit"     // no 0-9
	ViolationSpecial   PasswordViolation = "special"   // no punctuation/symbol
)

const minPasswordLength = 8

// ValidatePassword checks every strength category independently and
// returns one violation per missing category, so callers can report all
// problems at once instead of just the first. An empty result means the
// password is acceptable.
func ValidatePassword(password string) []PasswordViolation {
	var violations []PasswordViolation

	if len(password) < minPasswordLength {
		violations = append(violations, ViolationLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, ViolationUppercase)
	}
	if !hasLower {
		violations = append(violations, ViolationLowercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationDigit)
	}
	if !hasSpecial {
		violations = append(violations, ViolationSpecial)
	}

	return violations
}
