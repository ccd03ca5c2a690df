// Package models defines the core data structures for notes, tasks and the
// persisted document.
package models

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a collection inside the document.
type Kind string

const (
	// KindNote selects the notes collection.
	KindNote Kind = "note"
	// KindTask selects the tasks collection.
	KindTask Kind = "task"
)

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool { return k == KindNote || k == KindTask }

// Priority is a task priority level.
type Priority string

const (
	// PriorityLow marks tasks that can wait.
	PriorityLow Priority = "Low"
	// PriorityMedium is the default priority for new tasks.
	PriorityMedium Priority = "Medium"
	// PriorityHigh marks urgent tasks.
	PriorityHigh Priority = "High"
)

// PasswordMode is the tri-state password flag carried in the document
// metadata. It mirrors verifier presence in the platform secret store except
// during the first-run window, where it stays Undecided until the caller
// picks a mode.
type PasswordMode int

const (
	// ModeUndecided means the user has not chosen yet (first run).
	ModeUndecided PasswordMode = iota
	// ModeDisabled means the document is stored as plain JSON.
	ModeDisabled
	// ModeEnabled means the document is encrypted at rest.
	ModeEnabled
)

// String implements fmt.Stringer.
func (m PasswordMode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeEnabled:
		return "enabled"
	default:
		return "undecided"
	}
}

// MarshalJSON encodes the mode as null/false/true so documents written by
// earlier releases load unchanged.
func (m PasswordMode) MarshalJSON() ([]byte, error) {
	switch m {
	case ModeDisabled:
		return []byte("false"), nil
	case ModeEnabled:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null/false/true into the tri-state.
func (m *PasswordMode) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("null")):
		*m = ModeUndecided
	case bytes.Equal(b, []byte("false")):
		*m = ModeDisabled
	case bytes.Equal(b, []byte("true")):
		*m = ModeEnabled
	default:
		return fmt.Errorf("invalid password mode %q", b)
	}
	return nil
}

// Note is a free-text note.
type Note struct {
	// ID is the generated unique identifier of the note.
	ID string `json:"id"`
	// Title is the short heading shown in lists.
	Title string `json:"title"`
	// Content holds the note body.
	Content string `json:"content"`
	// Category is one of the document's category names.
	Category string `json:"category,omitempty"`
	// Tags are free-form labels attached by the user.
	Tags []string `json:"tags,omitempty"`
	// Created is the creation timestamp.
	Created time.Time `json:"created"`
	// Modified is updated on every change to the note.
	Modified time.Time `json:"modified"`
}

// Task is a to-do item with optional due date and priority.
type Task struct {
	// ID is the generated unique identifier of the task.
	ID string `json:"id"`
	// Title is the short heading shown in lists.
	Title string `json:"title"`
	// Description holds the task details.
	Description string `json:"description,omitempty"`
	// Priority is Low, Medium or High.
	Priority Priority `json:"priority"`
	// DueDate is the optional deadline; nil means none.
	DueDate *time.Time `json:"due_date,omitempty"`
	// Category is one of the document's category names.
	Category string `json:"category,omitempty"`
	// Completed marks the task as done.
	Completed bool `json:"completed"`
	// Created is the creation timestamp.
	Created time.Time `json:"created"`
	// Modified is updated on every change to the task.
	Modified time.Time `json:"modified"`
}

// Document is the single JSON object persisted on disk. It is loaded fully
// into memory, mutated in place and rewritten whole on every save.
type Document struct {
	// Notes holds all notes.
	Notes []Note `json:"notes"`
	// Tasks holds all tasks.
	Tasks []Task `json:"tasks"`
	// Categories is the list of category names offered to the user.
	Categories []string `json:"categories"`
	// LastAccessed is stamped on every save.
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	// PasswordEnabled mirrors verifier presence in the secret store.
	PasswordEnabled PasswordMode `json:"password_enabled"`
}

// DefaultCategories seeds a fresh document.
var DefaultCategories = []string{"Personal", "Work", "Ideas"}

// NewDocument returns the canonical empty document for a first run.
func NewDocument() *Document {
	return &Document{
		Notes:           []Note{},
		Tasks:           []Task{},
		Categories:      append([]string(nil), DefaultCategories...),
		PasswordEnabled: ModeUndecided,
	}
}

// NewID returns a generated unique item identifier.
func NewID() string { return uuid.NewString() }
