package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierTimeout     = errors.New("classifier timeout")
	ErrClassifierRejected    = errors.New("classifier rejected request")
	ErrClassifierUpstream    = errors.New("classifier upstream error")
	ErrPersistence           = errors.New("persistence error")
	ErrConversationNotFound  = errors.New("conversation not found")
)

// Error codes surfaced to HTTP callers.
const (
	CodeValidation            = "validation_error"
	CodeClassifierUnavailable = "classifier_unavailable"
	CodeClassifierTimeout     = "classifier_timeout"
	CodeClassifierRejected    = "classifier_rejected"
	CodeClassifierUpstream    = "classifier_error"
	CodeNotFound              = "not_found"
	CodeRequestCancelled      = "request_cancelled"
	CodeInternal              = "internal_error"
)

// ValidationError is bad input, with a message safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ClassifierError describes a failed call to the sentiment engine.
// Kind is one of the ErrClassifier* sentinels.
type ClassifierError struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *ClassifierError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ClassifierError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// ErrorCode maps an error to its public code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrClassifierUnavailable):
		return CodeClassifierUnavailable
	case errors.Is(err, ErrClassifierTimeout):
		return CodeClassifierTimeout
	case errors.Is(err, ErrClassifierRejected):
		return CodeClassifierRejected
	case errors.Is(err, ErrClassifierUpstream):
		return CodeClassifierUpstream
	case errors.Is(err, ErrConversationNotFound):
		return CodeNotFound
	case errors.Is(err, context.Canceled):
		return CodeRequestCancelled
	default:
		return CodeInternal
	}
}

// NormalizeText trims text and checks it against the length bound, counted
// in characters.
func NormalizeText(text string, maxLength int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewValidationError("No text provided or text is empty")
	}
	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		return "", NewValidationError("Text too long. Please keep it under %d characters.", maxLength)
	}
	return text, nil
}
