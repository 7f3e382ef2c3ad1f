package credential

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Hash returns the bcrypt hash of a plain text password.
func Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
}

// Verify reports whether password matches hash.
func Verify(password string, hash []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}
