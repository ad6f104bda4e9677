package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindJobAlreadyRunning Kind = "job_already_running"
	KindModelLoad         Kind = "model_load"
	KindPageTranslation   Kind = "page_translation"
)

// Error is a classified failure. SafeMessage is what API clients see,
// Cause keeps the internal error for logs and errors.Is matching.
type Error struct {
	Kind        Kind
	SafeMessage string
	Cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.SafeMessage)
	if msg == "" {
		msg = defaultSafeMessage(e.Kind)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "Invalid request."
	case KindJobAlreadyRunning:
		return "A translation job is already running."
	case KindModelLoad:
		return "Failed to load translation model."
	case KindPageTranslation:
		return "Page translation failed."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

// ErrJobAlreadyRunning is returned when a job is started while another one
// is running or still cancelling.
var ErrJobAlreadyRunning = New(KindJobAlreadyRunning, "", nil)

// Validation builds a client-input error with a formatted message.
func Validation(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

// ModelLoad wraps a failure to make a model resident.
func ModelLoad(model string, cause error) error {
	return New(KindModelLoad, fmt.Sprintf("Failed to load model %s.", model), cause)
}

// PageError records which page failed during a job.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// KindOf classifies err. A PageError is always a page translation failure,
// whatever it wraps.
func KindOf(err error) (Kind, bool) {
	var pe *PageError
	if errors.As(err, &pe) {
		return KindPageTranslation, true
	}
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// PublicMessage returns a message safe to show to API clients.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PageError
	if errors.As(err, &pe) {
		return fmt.Sprintf("Translation failed on page %d: %s", pe.Page, PublicMessage(pe.Err))
	}
	var e *Error
	if errors.As(err, &e) {
		if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
			return msg
		}
		return defaultSafeMessage(e.Kind)
	}
	return err.Error()
}
