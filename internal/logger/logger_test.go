package logger

import "testing"

func TestNew_NopByDefault(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatalf("expected non-nil logger before Init")
	}
	// Safe to use without Init.
	l.Log.Info("ignored")
}

func TestInit(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l := New()
		if err := l.Init(level); err != nil {
			t.Errorf("Init(%q) failed: %v", level, err)
		}
	}

	l := New()
	if err := l.Init("loud"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
