// Package password hashes account passwords with bcrypt.
package password

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslf/lostfound-api/internal/pkg/apperror"
)

const (
	cost = 12

	MinLength = 8
	// bcrypt ignores input past 72 bytes
	MaxLength = 72
)

var (
	ErrTooShort = apperror.Validation("password must be at least 8 characters")
	ErrTooLong  = apperror.Validation("password must not exceed 72 bytes")
)

// Check enforces the length policy
func Check(password string) error {
	if len([]rune(password)) < MinLength {
		return ErrTooShort
	}
	if len(password) > MaxLength {
		return ErrTooLong
	}
	return nil
}

// Hash checks the policy and hashes password
func Hash(password string) (string, error) {
	if err := Check(password); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

// Verify compares password with hash
func Verify(password, hash string) bool {
	if len(password) > MaxLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
