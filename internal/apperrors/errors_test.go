package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPublicMessage_UsesSafeMessage(t *testing.T) {
	sentinel := errors.New("connection refused on 127.0.0.1:11434")
	err := ModelLoad("qwen3:14b", sentinel)
	if got := PublicMessage(err); got != "Failed to load model qwen3:14b." {
		t.Fatalf("PublicMessage() = %q", got)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped cause to be retained for internal matching")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Error() should carry the cause, got %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
		ok   bool
	}{
		{"validation", Validation("page %d is invalid", 0), KindValidation, true},
		{"already running", ErrJobAlreadyRunning, KindJobAlreadyRunning, true},
		{"wrapped already running", fmt.Errorf("start: %w", ErrJobAlreadyRunning), KindJobAlreadyRunning, true},
		{"model load", ModelLoad("m", errors.New("x")), KindModelLoad, true},
		{"page error", &PageError{Page: 3, Err: errors.New("timeout")}, KindPageTranslation, true},
		{"page error wrapping model load", &PageError{Page: 1, Err: ModelLoad("m", nil)}, KindPageTranslation, true},
		{"plain", errors.New("plain"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			if kind != tt.want || ok != tt.ok {
				t.Fatalf("KindOf() = (%q, %v), want (%q, %v)", kind, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestErrJobAlreadyRunning_Is(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrJobAlreadyRunning)
	if !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatal("expected errors.Is to match the sentinel")
	}
	if !IsKind(err, KindJobAlreadyRunning) {
		t.Fatal("expected IsKind to match")
	}
}

func TestPublicMessage_PageError(t *testing.T) {
	err := &PageError{Page: 7, Err: errors.New("model returned empty translation")}
	got := PublicMessage(err)
	want := "Translation failed on page 7: model returned empty translation"
	if got != want {
		t.Fatalf("PublicMessage() = %q, want %q", got, want)
	}
}

func TestPublicMessage_NonAppError(t *testing.T) {
	err := errors.New("plain")
	if got := PublicMessage(err); got != "plain" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "plain")
	}
	if PublicMessage(nil) != "" {
		t.Fatal("PublicMessage(nil) should be empty")
	}
}
