package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on category instead of
// sniffing message text.
type Kind string

const (
	KindCancelled        Kind = "cancelled"
	KindTimeout          Kind = "timeout"
	KindDuplicateRequest Kind = "duplicate_request"
	KindNetwork          Kind = "network_error"
	KindRemote           Kind = "remote_error"
	KindSchema           Kind = "schema_error"
	KindRepairFailed     Kind = "repair_failed"
)

// Error wraps a failure with its category and an optional underlying cause.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New builds a categorized error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a categorized error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Underlying: err}
}

// KindOf extracts the category of err, or "" when err carries none.
// Context cancellation maps to KindCancelled and deadline expiry to
// KindTimeout even when the error was never wrapped.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return ""
}

// IsKind reports whether err belongs to the given category.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsCancelled reports whether err represents user- or turn-initiated
// cancellation, an expected outcome rather than a failure.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}
