// Package keyring stores the master-password verifier in the platform secret
// store. The verifier is used only to answer "is a password set" and "is this
// the right password"; the encryption key is always re-derived from the
// password and the salt, never taken from here.
package keyring

import (
	"errors"
	"fmt"

	ring "github.com/99designs/keyring"
)

const (
	// ServiceName identifies the application in the platform secret store.
	ServiceName = "turbo-notes"
	// accountKey is the entry the verifier lives under.
	accountKey = "master_password"
)

// ErrNotFound is returned by Get when no verifier has been stored.
var ErrNotFound = errors.New("keyring: verifier not found")

// Store abstracts the secret store holding the password verifier.
type Store interface {
	// Get returns the stored verifier, or ErrNotFound if never set.
	Get() (string, error)
	// Set stores the verifier, overwriting any prior value.
	Set(password string) error
	// Delete removes the verifier. Deleting an absent verifier is not an
	// error.
	Delete() error
}

// System is a Store backed by the OS secret store (Keychain on macOS,
// libsecret on Linux, Credential Manager on Windows).
type System struct {
	ring ring.Keyring
}

// OpenSystem opens the platform secret store under the given service name.
// An empty service falls back to ServiceName.
func OpenSystem(service string) (*System, error) {
	if service == "" {
		service = ServiceName
	}
	r, err := ring.Open(ring.Config{ServiceName: service})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &System{ring: r}, nil
}

// Get implements Store.
func (s *System) Get() (string, error) {
	item, err := s.ring.Get(accountKey)
	if errors.Is(err, ring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return string(item.Data), nil
}

// Set implements Store.
func (s *System) Set(password string) error {
	err := s.ring.Set(ring.Item{
		Key:   accountKey,
		Data:  []byte(password),
		Label: ServiceName + " master password",
	})
	if err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *System) Delete() error {
	err := s.ring.Remove(accountKey)
	if errors.Is(err, ring.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
