package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovchar/tradejournal/internal/autherrors"
)

const cost = 12

// HashPassword salts and hashes with a fixed work factor. The salt is embedded
// in the output, so verification needs nothing beyond the stored value.
func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", autherrors.ErrHashing, err)
	}
	return string(hashBytes), nil
}

// CheckPassword never errors: a malformed stored hash reads as a mismatch.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
