// Package passwd hashes and checks user passwords with bcrypt.
package passwd

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the number of bytes bcrypt reads from a password.
const MaxLength = 72

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrPasswordTooLong = errors.New("password is longer than 72 bytes")
)

// Hash returns a salted bcrypt hash of raw. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func Hash(raw string, cost int) (string, error) {
	if raw == "" {
		return "", ErrEmptyPassword
	}
	if len(raw) > MaxLength {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether raw matches hash.
func Verify(hash, raw string) bool {
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
