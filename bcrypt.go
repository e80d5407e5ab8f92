package authflow

import (
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost factor for password digests.
const DefaultHashCost = 10

// Hasher wraps bcrypt with a configurable cost factor.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher; out-of-range costs fall back to
// DefaultHashCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &Hasher{cost: cost}
}

// HashPassword generates a one-way digest of the plaintext.
func (h *Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidInput.WithMetadata(map[string]any{"password": "must not be empty"})
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(digest), nil
}

// Compare validates the plaintext against a stored digest. A mismatch
// returns ErrInvalidCredentials so callers stay enumeration-safe by default.
func (h *Hasher) Compare(password, digest string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password and digest")
	}
	return nil
}
