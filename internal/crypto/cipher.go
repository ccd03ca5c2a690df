package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrDecryption is returned when ciphertext fails authentication: wrong key,
// corrupted or truncated data, or a plaintext/ciphertext mode mismatch.
var ErrDecryption = errors.New("crypto: decryption failed")

// Box performs authenticated encryption of whole payloads. A passthrough Box
// (password mode disabled) returns inputs unchanged in both directions.
type Box struct {
	aead cipher.AEAD
}

// NewBox constructs a Box sealing with AES-256-GCM under key.
func NewBox(key Key) (*Box, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Passthrough returns a Box that performs no encryption.
func Passthrough() *Box { return &Box{} }

// Sealed reports whether the Box actually encrypts.
func (b *Box) Sealed() bool { return b.aead != nil }

// Encrypt seals plaintext as nonce||ciphertext with a fresh random nonce.
// In passthrough mode the input is returned unchanged.
func (b *Box) Encrypt(plaintext []byte) ([]byte, error) {
	if b.aead == nil {
		return plaintext, nil
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return b.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a payload produced by Encrypt. It returns ErrDecryption when
// the payload is too short or the authentication tag does not verify.
func (b *Box) Decrypt(data []byte) ([]byte, error) {
	if b.aead == nil {
		return data, nil
	}
	if len(data) < b.aead.NonceSize() {
		return nil, ErrDecryption
	}
	nonce, ciphertext := data[:b.aead.NonceSize()], data[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
