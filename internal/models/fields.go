package models

import (
	"fmt"
	"time"
)

// Fields carries caller-supplied item attributes for create and update
// operations. Unknown field names are rejected rather than dropped.
type Fields map[string]any

func (f Fields) str(name string) (string, bool, error) {
	v, ok := f[name]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("field %q: expected string, got %T", name, v)
	}
	return s, true, nil
}

// Apply sets the given fields on the note and bumps Modified.
// Accepted fields: title, content, category, tags.
func (n *Note) Apply(f Fields) error {
	for name := range f {
		switch name {
		case "title", "content", "category", "tags":
		default:
			return fmt.Errorf("unknown note field %q", name)
		}
	}
	if v, ok, err := f.str("title"); err != nil {
		return err
	} else if ok {
		n.Title = v
	}
	if v, ok, err := f.str("content"); err != nil {
		return err
	} else if ok {
		n.Content = v
	}
	if v, ok, err := f.str("category"); err != nil {
		return err
	} else if ok {
		n.Category = v
	}
	if v, ok := f["tags"]; ok {
		tags, err := toStringSlice(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", "tags", err)
		}
		n.Tags = tags
	}
	n.Modified = time.Now()
	return nil
}

// Apply sets the given fields on the task and bumps Modified.
// Accepted fields: title, description, priority, due_date, category,
// completed.
func (t *Task) Apply(f Fields) error {
	for name := range f {
		switch name {
		case "title", "description", "priority", "due_date", "category", "completed":
		default:
			return fmt.Errorf("unknown task field %q", name)
		}
	}
	if v, ok, err := f.str("title"); err != nil {
		return err
	} else if ok {
		t.Title = v
	}
	if v, ok, err := f.str("description"); err != nil {
		return err
	} else if ok {
		t.Description = v
	}
	if v, ok, err := f.str("category"); err != nil {
		return err
	} else if ok {
		t.Category = v
	}
	if v, ok, err := f.str("priority"); err != nil {
		return err
	} else if ok {
		p := Priority(v)
		if p != PriorityLow && p != PriorityMedium && p != PriorityHigh {
			return fmt.Errorf("invalid priority %q", v)
		}
		t.Priority = p
	}
	if v, ok := f["due_date"]; ok {
		due, err := toTime(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", "due_date", err)
		}
		t.DueDate = due
	}
	if v, ok := f["completed"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return fmt.Errorf("field %q: expected bool, got %T", "completed", v)
		}
		t.Completed = b
	}
	t.Modified = time.Now()
	return nil
}

func toStringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...), nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}

func toTime(v any) (*time.Time, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &vv, nil
	case *time.Time:
		return vv, nil
	case string:
		if vv == "" {
			return nil, nil
		}
		ts, err := time.Parse(time.RFC3339, vv)
		if err != nil {
			return nil, err
		}
		return &ts, nil
	default:
		return nil, fmt.Errorf("expected timestamp, got %T", v)
	}
}
