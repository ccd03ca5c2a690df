// Package service implements the document store: a single JSON document of
// notes and tasks held in memory, persisted whole on every mutation, and
// optionally password-encrypted at rest.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rijulsr/turbo-notes/internal/crypto"
	"github.com/rijulsr/turbo-notes/internal/keyring"
	"github.com/rijulsr/turbo-notes/internal/models"
)

var (
	// ErrAuthentication is returned when the entered password does not match
	// the stored verifier.
	ErrAuthentication = errors.New("service: password mismatch")

	// ErrMalformedDocument is returned when the document bytes read (and, in
	// encrypted mode, successfully decrypted) are not a valid document. The
	// store never substitutes an empty document for corrupted data.
	ErrMalformedDocument = errors.New("service: malformed document")

	// ErrLocked is returned by operations invoked before a successful
	// SetupOrUnlock.
	ErrLocked = errors.New("service: store is locked")

	// ErrPasswordSet is returned by EnablePassword when a verifier already
	// exists; ChangePassword is the operation for that state.
	ErrPasswordSet = errors.New("service: password already enabled")

	// ErrWeakPassword is returned when a new password is shorter than
	// MinPasswordLen.
	ErrWeakPassword = errors.New("service: password too short")
)

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 6

// PromptFunc supplies a password interactively. The store calls it at most
// once per operation; retry loops belong to the caller.
type PromptFunc func() (string, error)

// CredentialStore is the platform secret store holding the password
// verifier. Implemented by internal/keyring.
type CredentialStore interface {
	// Get returns the verifier, or keyring.ErrNotFound if never set.
	Get() (string, error)
	// Set stores the verifier, overwriting any prior value.
	Set(password string) error
	// Delete removes the verifier; absent is not an error.
	Delete() error
}

// SaltRepository persists the key-derivation salt. Implemented by
// internal/storage.
type SaltRepository interface {
	// GetOrCreate returns the salt, generating it on first use.
	GetOrCreate() ([]byte, error)
	// Delete removes the salt file; absent is not an error.
	Delete() error
	// Exists reports whether the salt file is present.
	Exists() bool
}

// DocumentRepository reads and writes the raw document bytes. Implemented by
// internal/storage.
type DocumentRepository interface {
	// Read returns the document bytes, or (nil, nil) when the file does not
	// exist yet.
	Read() ([]byte, error)
	// Write atomically replaces the document bytes.
	Write(data []byte) error
	// Exists reports whether the document file is present.
	Exists() bool
}

// Store owns the in-memory document and coordinates the salt file, the
// credential verifier and the cipher across mode transitions. It is a plain
// instance: one process, one Store, no globals.
type Store struct {
	log        *zap.Logger
	creds      CredentialStore
	salts      SaltRepository
	file       DocumentRepository
	iterations int

	box      *crypto.Box
	doc      *models.Document
	unlocked bool
}

// New constructs a locked Store. iterations below the crypto package floor
// are raised to it during key derivation.
func New(log *zap.Logger, creds CredentialStore, salts SaltRepository, file DocumentRepository, iterations int) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		log:        log,
		creds:      creds,
		salts:      salts,
		file:       file,
		iterations: iterations,
	}
}

// Mode returns the document's tri-state password flag. Before unlock it
// reports Undecided.
func (s *Store) Mode() models.PasswordMode {
	if s.doc == nil {
		return models.ModeUndecided
	}
	return s.doc.PasswordEnabled
}

// Unlocked reports whether the store holds a loaded document.
func (s *Store) Unlocked() bool { return s.unlocked }

// Document returns the in-memory document. It is nil until the store is
// unlocked.
func (s *Store) Document() *models.Document { return s.doc }

// verifier returns the stored password verifier and whether one exists.
func (s *Store) verifier() (string, bool, error) {
	pw, err := s.creds.Get()
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read verifier: %w", err)
	}
	return pw, true, nil
}

// SetupOrUnlock transitions the store to an unlocked state. With no verifier
// stored it loads the document as plain JSON (an empty document on first
// run). With a verifier stored it calls prompt once, checks the entered
// password against the verifier, derives the key and loads the encrypted
// document. It returns false with ErrAuthentication on a wrong password and
// leaves the store locked; the caller decides whether to re-prompt.
func (s *Store) SetupOrUnlock(ctx context.Context, prompt PromptFunc) (bool, error) {
	pw, present, err := s.verifier()
	if err != nil {
		return false, err
	}

	if !present {
		firstRun := !s.file.Exists()
		s.box = crypto.Passthrough()
		if err := s.Load(ctx); err != nil {
			s.box = nil
			return false, err
		}
		s.unlocked = true
		if firstRun {
			s.doc.PasswordEnabled = models.ModeUndecided
		} else if s.doc.PasswordEnabled == models.ModeEnabled {
			// No verifier but the document claims encryption: it parsed as
			// plain JSON, so trust the bytes over the stale flag.
			s.doc.PasswordEnabled = models.ModeDisabled
		}
		s.log.Debug("store unlocked",
			zap.String("mode", s.doc.PasswordEnabled.String()),
			zap.Bool("first_run", firstRun))
		return true, nil
	}

	if prompt == nil {
		return false, errors.New("service: password required but no prompt provided")
	}
	entered, err := prompt()
	if err != nil {
		return false, fmt.Errorf("prompt password: %w", err)
	}
	if entered != pw {
		s.log.Warn("unlock rejected")
		return false, ErrAuthentication
	}

	if err := s.buildBox(entered); err != nil {
		return false, err
	}
	if err := s.Load(ctx); err != nil {
		s.box = nil
		return false, err
	}
	s.unlocked = true
	s.doc.PasswordEnabled = models.ModeEnabled
	s.log.Debug("store unlocked", zap.String("mode", "enabled"))
	return true, nil
}

// buildBox derives the key for password under the persisted salt and
// installs a sealing cipher.
func (s *Store) buildBox(password string) error {
	salt, err := s.salts.GetOrCreate()
	if err != nil {
		return err
	}
	key := crypto.DeriveKey(password, salt, s.iterations)
	box, err := crypto.NewBox(key)
	if err != nil {
		return err
	}
	s.box = box
	return nil
}

// Load reads the document from disk through the current cipher. A missing
// file yields a fresh empty document. Ciphertext encountered in plain mode
// surfaces as ErrMalformedDocument; plaintext (or a wrong key) in encrypted
// mode surfaces as crypto.ErrDecryption. Corrupted data is never replaced
// with an empty document.
func (s *Store) Load(_ context.Context) error {
	if s.box == nil {
		return ErrLocked
	}
	raw, err := s.file.Read()
	if err != nil {
		return err
	}
	if raw == nil {
		s.doc = models.NewDocument()
		return nil
	}
	plain, err := s.box.Decrypt(raw)
	if err != nil {
		return err
	}
	doc := &models.Document{}
	if err := json.Unmarshal(plain, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.Notes == nil {
		doc.Notes = []models.Note{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []models.Task{}
	}
	if doc.Categories == nil {
		doc.Categories = append([]string(nil), models.DefaultCategories...)
	}
	s.doc = doc
	return nil
}

// Save serializes the document, stamps LastAccessed, encrypts when a sealing
// cipher is active and atomically rewrites the file.
func (s *Store) Save(_ context.Context) error {
	if !s.unlocked || s.box == nil {
		return ErrLocked
	}
	now := time.Now()
	s.doc.LastAccessed = &now

	plain, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data, err := s.box.Encrypt(plain)
	if err != nil {
		return err
	}
	if err := s.file.Write(data); err != nil {
		return err
	}
	s.log.Debug("document saved",
		zap.Bool("encrypted", s.box.Sealed()),
		zap.Int("notes", len(s.doc.Notes)),
		zap.Int("tasks", len(s.doc.Tasks)))
	return nil
}

// ChooseNoPassword resolves the first-run prompt as "no password": the
// document flag becomes Disabled and the file is written plain. Terminal
// until EnablePassword is called later.
func (s *Store) ChooseNoPassword(ctx context.Context) error {
	if !s.unlocked {
		return ErrLocked
	}
	if err := s.creds.Delete(); err != nil {
		return err
	}
	s.box = crypto.Passthrough()
	s.doc.PasswordEnabled = models.ModeDisabled
	if err := s.Save(ctx); err != nil {
		return err
	}
	s.log.Info("password mode disabled by choice")
	return nil
}

// EnablePassword turns password mode on with a brand-new password. It
// obtains the salt (creating it on first use), derives the key, re-saves the
// document encrypted and only then stores the verifier, so a failed save
// never leaves a verifier pointing at plain on-disk bytes. Fails with
// ErrPasswordSet when a verifier already exists.
func (s *Store) EnablePassword(ctx context.Context, password string) error {
	if !s.unlocked {
		return ErrLocked
	}
	if len(password) < MinPasswordLen {
		return ErrWeakPassword
	}
	if _, present, err := s.verifier(); err != nil {
		return err
	} else if present {
		return ErrPasswordSet
	}

	prevBox, prevMode := s.box, s.doc.PasswordEnabled
	if err := s.buildBox(password); err != nil {
		s.box = prevBox
		return err
	}
	s.doc.PasswordEnabled = models.ModeEnabled
	if err := s.Save(ctx); err != nil {
		s.box = prevBox
		s.doc.PasswordEnabled = prevMode
		return err
	}
	if err := s.creds.Set(password); err != nil {
		return err
	}
	s.log.Info("password mode enabled")
	return nil
}

// DisablePassword turns password mode off. It verifies the current password,
// rewrites the document plain, clears the verifier, deletes the salt file
// and discards the cipher.
func (s *Store) DisablePassword(ctx context.Context, current string) error {
	if !s.unlocked {
		return ErrLocked
	}
	pw, present, err := s.verifier()
	if err != nil {
		return err
	}
	if !present || current != pw {
		return ErrAuthentication
	}

	prevBox := s.box
	s.box = crypto.Passthrough()
	s.doc.PasswordEnabled = models.ModeDisabled
	if err := s.Save(ctx); err != nil {
		s.box = prevBox
		s.doc.PasswordEnabled = models.ModeEnabled
		return err
	}
	if err := s.creds.Delete(); err != nil {
		return err
	}
	if err := s.salts.Delete(); err != nil {
		return err
	}
	s.log.Info("password mode disabled")
	return nil
}

// ChangePassword replaces the password. The new key is derived under the
// existing salt; the salt is not rotated on password change. The document is
// re-encrypted and re-saved under the new key.
func (s *Store) ChangePassword(ctx context.Context, old, newPassword string) error {
	if !s.unlocked {
		return ErrLocked
	}
	if len(newPassword) < MinPasswordLen {
		return ErrWeakPassword
	}
	pw, present, err := s.verifier()
	if err != nil {
		return err
	}
	if !present || old != pw {
		return ErrAuthentication
	}

	prevBox := s.box
	if err := s.buildBox(newPassword); err != nil {
		return err
	}
	if err := s.Save(ctx); err != nil {
		s.box = prevBox
		return err
	}
	if err := s.creds.Set(newPassword); err != nil {
		return err
	}
	s.log.Info("password changed")
	return nil
}
