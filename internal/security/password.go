package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost defines the bcrypt work factor.
const bcryptCost = 12

// PIN length bounds for station access codes.
const (
	minPINLength = 4
	maxPINLength = 12
)

// ErrWeakPIN is returned when a station PIN does not meet the format rules.
var ErrWeakPIN = errors.New("pin must be 4 to 12 digits")

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPIN validates and hashes a station access PIN.
func HashPIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if errValidate := ValidatePIN(pin); errValidate != nil {
		return "", errValidate
	}
	return HashPassword(pin)
}

// CheckPIN compares a stored PIN hash with the submitted PIN.
// An empty hash never matches.
func CheckPIN(hash, pin string) bool {
	if strings.TrimSpace(hash) == "" {
		return false
	}
	return CheckPassword(hash, strings.TrimSpace(pin))
}

// ValidatePIN checks that pin is numeric and within length bounds.
func ValidatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return ErrWeakPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrWeakPIN
		}
	}
	return nil
}
