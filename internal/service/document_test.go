package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rijulsr/turbo-notes/internal/crypto"
	"github.com/rijulsr/turbo-notes/internal/keyring"
	"github.com/rijulsr/turbo-notes/internal/models"
	"github.com/rijulsr/turbo-notes/internal/storage"
)

// env bundles a store with its backing files and verifier so tests can
// simulate process restarts by rebuilding the store over the same state.
type env struct {
	dir   string
	creds *keyring.Memory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return &env{dir: t.TempDir(), creds: keyring.NewMemory()}
}

// store builds a fresh Store over the environment, as a new process would.
func (e *env) store() *Store {
	return New(
		zap.NewNop(),
		e.creds,
		storage.NewSaltStore(filepath.Join(e.dir, "salt.key")),
		storage.NewDocumentFile(filepath.Join(e.dir, "notes_data.enc")),
		crypto.MinIterations,
	)
}

func (e *env) documentPath() string { return filepath.Join(e.dir, "notes_data.enc") }
func (e *env) saltPath() string     { return filepath.Join(e.dir, "salt.key") }

func password(pw string) PromptFunc {
	return func() (string, error) { return pw, nil }
}

// failingRepo wraps a DocumentRepository and fails writes on demand, so
// tests can interrupt a mode transition mid-save.
type failingRepo struct {
	DocumentRepository
	failWrites bool
}

func (f *failingRepo) Write(data []byte) error {
	if f.failWrites {
		return &storage.IOError{Op: "write", Path: "notes_data.enc", Err: errors.New("disk full")}
	}
	return f.DocumentRepository.Write(data)
}

// storeWith builds a store over the environment with a custom document
// repository.
func (e *env) storeWith(file DocumentRepository) *Store {
	return New(
		zap.NewNop(),
		e.creds,
		storage.NewSaltStore(e.saltPath()),
		file,
		crypto.MinIterations,
	)
}

func TestSetupOrUnlock_FreshInstall(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := e.store()

	ok, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, s.Unlocked())

	doc := s.Document()
	require.NotNil(t, doc)
	assert.Empty(t, doc.Notes)
	assert.Empty(t, doc.Tasks)
	assert.Equal(t, models.ModeUndecided, s.Mode())
}

func TestPlainMode_CreateSaveReload(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.ChooseNoPassword(ctx))

	item, err := s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A", "content": "hello"})
	require.NoError(t, err)
	note := item.(models.Note)
	assert.NotEmpty(t, note.ID)

	// Restart.
	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)

	notes := s2.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "A", notes[0].Title)
	assert.Equal(t, "hello", notes[0].Content)
	assert.Equal(t, note.ID, notes[0].ID)
	assert.Equal(t, models.ModeDisabled, s2.Mode())

	// On-disk bytes are plain JSON in disabled mode.
	raw, err := os.ReadFile(e.documentPath())
	require.NoError(t, err)
	var onDisk models.Document
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.Len(t, onDisk.Notes, 1)
}

func TestEnablePassword_EncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A", "content": "hello"})
	require.NoError(t, err)

	require.NoError(t, s.EnablePassword(ctx, "secret1"))
	assert.Equal(t, models.ModeEnabled, s.Mode())
	assert.FileExists(t, e.saltPath())

	// Ciphertext on disk: not parseable as the document.
	raw, err := os.ReadFile(e.documentPath())
	require.NoError(t, err)
	var onDisk models.Document
	assert.Error(t, json.Unmarshal(raw, &onDisk))

	// Verifier present.
	pw, err := e.creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)
}

func TestUnlock_WrongPassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, password("wrong"))
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.False(t, ok)
	assert.False(t, s2.Unlocked())
	assert.Nil(t, s2.Document())
}

func TestUnlock_CorrectPassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A", "content": "hello"})
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindTask, models.Fields{"title": "ship", "priority": "High"})
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, password("secret1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.ModeEnabled, s2.Mode())

	// The plain→encrypted transition lost nothing.
	require.Len(t, s2.Notes(), 1)
	require.Len(t, s2.Tasks(), 1)
	assert.Equal(t, "A", s2.Notes()[0].Title)
	assert.Equal(t, models.PriorityHigh, s2.Tasks()[0].Priority)
}

func TestDisablePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A"})
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	assert.ErrorIs(t, s.DisablePassword(ctx, "wrong"), ErrAuthentication)
	assert.Equal(t, models.ModeEnabled, s.Mode())

	require.NoError(t, s.DisablePassword(ctx, "secret1"))
	assert.Equal(t, models.ModeDisabled, s.Mode())
	assert.NoFileExists(t, e.saltPath())
	_, err = e.creds.Get()
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	// The encrypted→plain transition lost nothing: a restart without any
	// password sees the same document.
	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s2.Notes(), 1)
	assert.Equal(t, "A", s2.Notes()[0].Title)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A"})
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	saltBefore, err := os.ReadFile(e.saltPath())
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, "wrong", "secret2"), ErrAuthentication)
	require.NoError(t, s.ChangePassword(ctx, "secret1", "secret2"))

	// The salt is reused across password generations.
	saltAfter, err := os.ReadFile(e.saltPath())
	require.NoError(t, err)
	assert.Equal(t, saltBefore, saltAfter)

	// Old password no longer unlocks.
	s2 := e.store()
	_, err = s2.SetupOrUnlock(ctx, password("secret1"))
	assert.ErrorIs(t, err, ErrAuthentication)

	s3 := e.store()
	ok, err := s3.SetupOrUnlock(ctx, password("secret2"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s3.Notes(), 1)
}

func TestEnablePassword_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.EnablePassword(ctx, "short"), ErrWeakPassword)

	require.NoError(t, s.EnablePassword(ctx, "secret1"))
	assert.ErrorIs(t, s.EnablePassword(ctx, "secret2"), ErrPasswordSet)
}

func TestLoad_MalformedPlainDocument(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	require.NoError(t, os.WriteFile(e.documentPath(), []byte("not json {{{"), 0o600))

	s := e.store()
	ok, err := s.SetupOrUnlock(ctx, nil)
	assert.ErrorIs(t, err, ErrMalformedDocument)
	assert.False(t, ok)
	assert.False(t, s.Unlocked())
	// No silent empty-document substitution.
	assert.Nil(t, s.Document())
}

func TestLoad_ModeMismatch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	// Encrypt a document, then clear the verifier: the plain load path now
	// sees ciphertext and must fail loudly.
	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))
	require.NoError(t, e.creds.Delete())

	s2 := e.store()
	_, err = s2.SetupOrUnlock(ctx, nil)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	// The reverse: plain file on disk but a verifier present fails
	// decryption, not JSON parsing.
	e2 := newEnv(t)
	s3 := e2.store()
	_, err = s3.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s3.ChooseNoPassword(ctx))
	require.NoError(t, e2.creds.Set("secret1"))

	s4 := e2.store()
	_, err = s4.SetupOrUnlock(ctx, password("secret1"))
	assert.ErrorIs(t, err, crypto.ErrDecryption)
}

func TestSave_RepeatedSavesDecryptIdentically(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A"})
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	require.NoError(t, s.Save(ctx))
	first, err := os.ReadFile(e.documentPath())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx))
	second, err := os.ReadFile(e.documentPath())
	require.NoError(t, err)

	// Random nonces make the ciphertexts differ, but both decrypt to the
	// same collections.
	assert.NotEqual(t, first, second)

	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, password("secret1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s2.Notes(), 1)
	assert.Equal(t, "A", s2.Notes()[0].Title)
}

func TestOperations_RequireUnlock(t *testing.T) {
	ctx := context.Background()
	s := newEnv(t).store()

	assert.ErrorIs(t, s.Load(ctx), ErrLocked)
	assert.ErrorIs(t, s.Save(ctx), ErrLocked)
	assert.ErrorIs(t, s.ChooseNoPassword(ctx), ErrLocked)
	assert.ErrorIs(t, s.EnablePassword(ctx, "secret1"), ErrLocked)
	assert.ErrorIs(t, s.DisablePassword(ctx, "secret1"), ErrLocked)
	assert.ErrorIs(t, s.ChangePassword(ctx, "a", "bbbbbb"), ErrLocked)

	_, err := s.CreateItem(ctx, models.KindNote, nil)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.UpdateItem(ctx, models.KindNote, "id", nil)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.DeleteItem(ctx, models.KindNote, "id")
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.CompleteTask(ctx, "id")
	assert.ErrorIs(t, err, ErrLocked)
}

func TestEnablePassword_SaveFailureLeavesPlainState(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	repo := &failingRepo{DocumentRepository: storage.NewDocumentFile(e.documentPath())}
	s := e.storeWith(repo)
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A"})
	require.NoError(t, err)

	repo.failWrites = true
	err = s.EnablePassword(ctx, "secret1")
	require.Error(t, err)
	var ioErr *storage.IOError
	assert.True(t, errors.As(err, &ioErr))

	// Nothing half-enabled: no verifier stored, flag and cipher unchanged,
	// and plain saves still work once the disk recovers.
	_, err = e.creds.Get()
	assert.ErrorIs(t, err, keyring.ErrNotFound)
	assert.Equal(t, models.ModeUndecided, s.Mode())
	repo.failWrites = false
	require.NoError(t, s.Save(ctx))

	// A restart without any password still opens the document.
	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s2.Notes(), 1)
	assert.Equal(t, "A", s2.Notes()[0].Title)
}

func TestChangePassword_SaveFailureKeepsOldKey(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	repo := &failingRepo{DocumentRepository: storage.NewDocumentFile(e.documentPath())}
	s := e.storeWith(repo)
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A"})
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	repo.failWrites = true
	require.Error(t, s.ChangePassword(ctx, "secret1", "secret2"))
	repo.failWrites = false

	// Verifier and on-disk ciphertext still belong to the old password.
	pw, err := e.creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)

	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, password("secret1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s2.Notes(), 1)
}

func TestDisablePassword_SaveFailureStaysEncrypted(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	repo := &failingRepo{DocumentRepository: storage.NewDocumentFile(e.documentPath())}
	s := e.storeWith(repo)
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, models.KindNote, models.Fields{"title": "A"})
	require.NoError(t, err)
	require.NoError(t, s.EnablePassword(ctx, "secret1"))

	repo.failWrites = true
	require.Error(t, s.DisablePassword(ctx, "secret1"))
	repo.failWrites = false

	// Still fully enabled: verifier and salt intact, password unlocks.
	assert.Equal(t, models.ModeEnabled, s.Mode())
	pw, err := e.creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)
	assert.FileExists(t, e.saltPath())

	s2 := e.store()
	ok, err := s2.SetupOrUnlock(ctx, password("secret1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s2.Notes(), 1)
}

func TestStorageFailure_Surfaces(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	s := e.store()
	_, err := s.SetupOrUnlock(ctx, nil)
	require.NoError(t, err)

	// Replace the document path with a directory so the write fails.
	require.NoError(t, os.Mkdir(e.documentPath(), 0o700))
	err = s.Save(ctx)
	require.Error(t, err)
	var ioErr *storage.IOError
	assert.True(t, errors.As(err, &ioErr))
}
