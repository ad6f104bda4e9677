// Package logger is the process-wide slog setup: short coloured lines on
// the console and, optionally, JSON lines in a log file.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	global     *slog.Logger
	isTerminal = term.IsTerminal
)

// contentKeys name attributes that may carry document text. Only sizes and
// page numbers are allowed into the logs.
var contentKeys = map[string]bool{
	"body":       true,
	"glossary":   true,
	"original":   true,
	"prompt":     true,
	"response":   true,
	"system":     true,
	"text":       true,
	"translated": true,
}

const redacted = "[REDACTED]"

// RedactAttr is a slog.ReplaceAttr function that hides document content.
// Keys ending in "_text" count as content too.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if contentKeys[key] || strings.HasSuffix(key, "_text") {
		return slog.String(a.Key, redacted)
	}
	return a
}

func init() {
	Init(LevelInfo, os.Stderr, nil)
}

// ParseLevel maps a config string to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Init replaces the global logger. When logFile is set every record is
// also written there as JSON.
func Init(level slog.Level, console io.Writer, logFile io.Writer) {
	if console == nil {
		console = os.Stderr
	}
	color := false
	if f, ok := console.(*os.File); ok {
		color = isTerminal(int(f.Fd()))
	}

	var h slog.Handler = NewConsoleHandler(console, level, color)
	if logFile != nil {
		h = tee{
			console: h,
			file:    slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level, ReplaceAttr: RedactAttr}),
		}
	}
	global = slog.New(h)
	slog.SetDefault(global)
}

func With(args ...any) *slog.Logger { return global.With(args...) }

func Debug(msg string, args ...any) { global.Debug(msg, args...) }
func Info(msg string, args ...any)  { global.Info(msg, args...) }
func Warn(msg string, args ...any)  { global.Warn(msg, args...) }
func Error(msg string, args ...any) { global.Error(msg, args...) }

var levelColors = map[slog.Level]string{
	LevelDebug: "\033[90m",
	LevelInfo:  "\033[36m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
}

// ConsoleHandler writes "15:04:05 LEVEL message key=value ..." lines.
// Attributes added with WithAttrs are rendered once, up front.
type ConsoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	color  bool
	group  string
	prefix string
}

func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) *ConsoleHandler {
	return &ConsoleHandler{mu: &sync.Mutex{}, w: w, level: level, color: color}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 128)
	buf = r.Time.AppendFormat(buf, "15:04:05")
	buf = append(buf, ' ')

	lvl := r.Level.String()
	if h.color {
		lvl = levelColors[r.Level] + lvl + "\033[0m"
	}
	buf = append(buf, lvl...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.prefix...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.group, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *ConsoleHandler) appendAttr(buf []byte, group string, a slog.Attr) []byte {
	a = RedactAttr(nil, a)
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := group + a.Key + "."
		if a.Key == "" {
			sub = group
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, sub, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	if h.color {
		buf = append(buf, "\033[90m"...)
	}
	buf = append(buf, group...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	if h.color {
		buf = append(buf, "\033[0m"...)
	}
	return append(buf, a.Value.String()...)
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	var buf []byte
	for _, a := range attrs {
		buf = h.appendAttr(buf, h.group, a)
	}
	h2.prefix += string(buf)
	return &h2
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group += name + "."
	return &h2
}

// tee sends every record to the console and to the log file.
type tee struct {
	console slog.Handler
	file    slog.Handler
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	return t.console.Enabled(ctx, level) || t.file.Enabled(ctx, level)
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if t.console.Enabled(ctx, r.Level) {
		err = t.console.Handle(ctx, r.Clone())
	}
	if t.file.Enabled(ctx, r.Level) {
		if ferr := t.file.Handle(ctx, r); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tee{console: t.console.WithAttrs(attrs), file: t.file.WithAttrs(attrs)}
}

func (t tee) WithGroup(name string) slog.Handler {
	return tee{console: t.console.WithGroup(name), file: t.file.WithGroup(name)}
}
