package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestConsoleHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewConsoleHandler(&buf, LevelDebug, false))

	t.Run("WithAttrs", func(t *testing.T) {
		buf.Reset()
		l.With("job_id", "abc-123").Info("page translated", "page", 4)

		out := buf.String()
		if !strings.Contains(out, "job_id=abc-123") {
			t.Errorf("missing persistent attr: %q", out)
		}
		if !strings.Contains(out, "page=4") {
			t.Errorf("missing record attr: %q", out)
		}
		if !strings.HasSuffix(out, "\n") {
			t.Errorf("record should end with a newline: %q", out)
		}
	})

	t.Run("NestedGroups", func(t *testing.T) {
		buf.Reset()
		l.WithGroup("model").WithGroup("tier").With("name", "fast").Info("msg")

		if out := buf.String(); !strings.Contains(out, "model.tier.name=fast") {
			t.Errorf("missing grouped attr: %q", out)
		}
	})

	t.Run("RedactsContent", func(t *testing.T) {
		buf.Reset()
		l.With("prompt", "Translate this").Info("msg", slog.Group("page", "text", "Spindle", "number", 2))

		out := buf.String()
		if strings.Contains(out, "Spindle") || strings.Contains(out, "Translate this") {
			t.Errorf("document content leaked: %q", out)
		}
		if !strings.Contains(out, "page.number=2") || !strings.Contains(out, "prompt=[REDACTED]") {
			t.Errorf("unexpected line: %q", out)
		}
	})

	t.Run("LevelFilter", func(t *testing.T) {
		buf.Reset()
		quiet := slog.New(NewConsoleHandler(&buf, LevelWarn, false))
		quiet.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("info record should be filtered at warn level: %q", buf.String())
		}
	})
}

func TestRedactAttr(t *testing.T) {
	tests := []struct {
		name   string
		attr   slog.Attr
		redact bool
	}{
		{"page text", slog.String("text", "Spindle speed"), true},
		{"source text", slog.String("source_text", "Spindle speed"), true},
		{"prompt", slog.String("prompt", "Translate..."), true},
		{"translation", slog.String("translated", "主軸"), true},
		{"glossary", slog.Any("glossary", map[string]string{"spindle": "主軸"}), true},
		{"error", slog.String("error", "model timed out"), false},
		{"page number", slog.Int("page", 3), false},
		{"tier", slog.String("tier", "balanced"), false},
		{"model", slog.String("model", "qwen3:14b"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactAttr(nil, tt.attr)
			redacted := got.Value.Kind() == slog.KindString && got.Value.String() == "[REDACTED]"
			if redacted != tt.redact {
				t.Fatalf("RedactAttr(%s) redacted=%v, want %v", tt.attr.Key, redacted, tt.redact)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_WritesJSONFile(t *testing.T) {
	var console, file bytes.Buffer
	Init(LevelDebug, &console, &file)
	t.Cleanup(func() { Init(LevelInfo, os.Stderr, nil) })

	Info("job started", "job_id", "j1", "text", "secret page")

	if !strings.Contains(console.String(), "job started") {
		t.Fatalf("console output missing message: %q", console.String())
	}

	var rec map[string]any
	if err := json.Unmarshal(file.Bytes(), &rec); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, file.String())
	}
	if rec["job_id"] != "j1" {
		t.Errorf("job_id = %v, want j1", rec["job_id"])
	}
	if rec["text"] != "[REDACTED]" {
		t.Errorf("text = %v, want redacted", rec["text"])
	}
}
