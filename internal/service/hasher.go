package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/passgate/internal/domain"
)

// Hasher hashes and verifies passwords and one-time passcodes with bcrypt.
// Every call to Hash uses a fresh salt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given bcrypt cost.
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret must not be empty", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash.
func (h *Hasher) Verify(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
