// Package csrf contains the synchronizer token primitives.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"
)

const (
	HeaderName = "X-CSRF-Token"
	TokenBytes = 32
)

// Generate returns 256 random bits as lowercase hex.
func Generate() (string, error) {
	buf := make([]byte, TokenBytes)
	_, err := rand.Read(buf)
	if err != nil {
		return "", errors.WithMessage(err, "read random bytes")
	}
	return hex.EncodeToString(buf), nil
}

// Equal compares tokens in constant time. Tokens of different length are rejected before comparison.
func Equal(expected string, actual string) bool {
	if expected == "" || len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
