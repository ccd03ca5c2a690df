// Package crypto derives encryption keys from passwords and seals the
// document payload with an authenticated cipher.
package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32
	// SaltSize is the expected salt length in bytes.
	SaltSize = 16
	// DefaultIterations is the default PBKDF2 iteration count.
	DefaultIterations = 100_000
	// MinIterations is the floor below which iteration counts are clamped.
	MinIterations = 100_000
)

// Key is a derived 256-bit symmetric key. It is never persisted; it lives
// only for the duration of an unlocked session.
type Key [KeySize]byte

// DeriveKey derives a key from password and salt using PBKDF2-SHA256.
// The same (password, salt, iterations) always yields the same key.
// Iteration counts below MinIterations are raised to it.
func DeriveKey(password string, salt []byte, iterations int) Key {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	var k Key
	copy(k[:], pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New))
	return k
}

// Encode returns the URL-safe base64 form of the key.
func (k Key) Encode() string {
	return base64.URLEncoding.EncodeToString(k[:])
}

// DecodeKey parses a key previously produced by Encode.
func DecodeKey(s string) (Key, error) {
	var k Key
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("decode key: %w", err)
	}
	if len(b) != KeySize {
		return k, fmt.Errorf("decode key: got %d bytes, want %d", len(b), KeySize)
	}
	copy(k[:], b)
	return k, nil
}
