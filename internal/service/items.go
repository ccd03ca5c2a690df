package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rijulsr/turbo-notes/internal/models"
)

// CreateItem appends a new note or task built from fields and saves the
// document. Missing fields take their zero values (tasks default to Medium
// priority, matching prior releases).
func (s *Store) CreateItem(ctx context.Context, kind models.Kind, fields models.Fields) (any, error) {
	if !s.unlocked {
		return nil, ErrLocked
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}

	now := time.Now()
	switch kind {
	case models.KindNote:
		note := models.Note{ID: models.NewID(), Created: now, Modified: now}
		if err := note.Apply(fields); err != nil {
			return nil, err
		}
		s.doc.Notes = append(s.doc.Notes, note)
		if err := s.Save(ctx); err != nil {
			return nil, err
		}
		s.log.Debug("note created", zap.String("id", note.ID))
		return note, nil
	default:
		task := models.Task{ID: models.NewID(), Priority: models.PriorityMedium, Created: now, Modified: now}
		if err := task.Apply(fields); err != nil {
			return nil, err
		}
		s.doc.Tasks = append(s.doc.Tasks, task)
		if err := s.Save(ctx); err != nil {
			return nil, err
		}
		s.log.Debug("task created", zap.String("id", task.ID))
		return task, nil
	}
}

// UpdateItem applies fields to the item with the given id and saves the
// document. It returns (nil, nil) when no such item exists.
func (s *Store) UpdateItem(ctx context.Context, kind models.Kind, id string, fields models.Fields) (any, error) {
	if !s.unlocked {
		return nil, ErrLocked
	}
	switch kind {
	case models.KindNote:
		for i := range s.doc.Notes {
			if s.doc.Notes[i].ID != id {
				continue
			}
			if err := s.doc.Notes[i].Apply(fields); err != nil {
				return nil, err
			}
			if err := s.Save(ctx); err != nil {
				return nil, err
			}
			return s.doc.Notes[i], nil
		}
		return nil, nil
	case models.KindTask:
		for i := range s.doc.Tasks {
			if s.doc.Tasks[i].ID != id {
				continue
			}
			if err := s.doc.Tasks[i].Apply(fields); err != nil {
				return nil, err
			}
			if err := s.Save(ctx); err != nil {
				return nil, err
			}
			return s.doc.Tasks[i], nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

// DeleteItem removes the item with the given id and saves the document. It
// returns false without saving when no such item exists.
func (s *Store) DeleteItem(ctx context.Context, kind models.Kind, id string) (bool, error) {
	if !s.unlocked {
		return false, ErrLocked
	}
	switch kind {
	case models.KindNote:
		for i := range s.doc.Notes {
			if s.doc.Notes[i].ID == id {
				s.doc.Notes = append(s.doc.Notes[:i], s.doc.Notes[i+1:]...)
				if err := s.Save(ctx); err != nil {
					return false, err
				}
				s.log.Debug("note deleted", zap.String("id", id))
				return true, nil
			}
		}
		return false, nil
	case models.KindTask:
		for i := range s.doc.Tasks {
			if s.doc.Tasks[i].ID == id {
				s.doc.Tasks = append(s.doc.Tasks[:i], s.doc.Tasks[i+1:]...)
				if err := s.Save(ctx); err != nil {
					return false, err
				}
				s.log.Debug("task deleted", zap.String("id", id))
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown item kind %q", kind)
	}
}

// CompleteTask marks the task with the given id as completed and saves the
// document. It returns nil when no such task exists.
func (s *Store) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	if !s.unlocked {
		return nil, ErrLocked
	}
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID != id {
			continue
		}
		s.doc.Tasks[i].Completed = true
		s.doc.Tasks[i].Modified = time.Now()
		if err := s.Save(ctx); err != nil {
			return nil, err
		}
		s.log.Debug("task completed", zap.String("id", id))
		task := s.doc.Tasks[i]
		return &task, nil
	}
	return nil, nil
}

// Notes returns a copy of the notes collection.
func (s *Store) Notes() []models.Note {
	if s.doc == nil {
		return nil
	}
	return append([]models.Note(nil), s.doc.Notes...)
}

// Tasks returns a copy of the tasks collection.
func (s *Store) Tasks() []models.Task {
	if s.doc == nil {
		return nil
	}
	return append([]models.Task(nil), s.doc.Tasks...)
}

// PendingTasks returns the tasks not yet completed.
func (s *Store) PendingTasks() []models.Task {
	var out []models.Task
	for _, t := range s.Tasks() {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// OverdueTasks returns the pending tasks whose due date is before now.
func (s *Store) OverdueTasks(now time.Time) []models.Task {
	var out []models.Task
	for _, t := range s.PendingTasks() {
		if t.DueDate != nil && t.DueDate.Before(now) {
			out = append(out, t)
		}
	}
	return out
}

// TodayTasks returns the pending tasks due on the same calendar day as now.
func (s *Store) TodayTasks(now time.Time) []models.Task {
	y, m, d := now.Date()
	var out []models.Task
	for _, t := range s.PendingTasks() {
		if t.DueDate == nil {
			continue
		}
		dy, dm, dd := t.DueDate.Date()
		if dy == y && dm == m && dd == d {
			out = append(out, t)
		}
	}
	return out
}
