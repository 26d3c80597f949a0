package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 32

// Generate returns a random Base64 RawURL token of DefaultLength bytes.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength returns a random Base64 RawURL token of length bytes.
func GenerateWithLength(length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes returns length random bytes.
func GenerateBytes(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("token: invalid length %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
