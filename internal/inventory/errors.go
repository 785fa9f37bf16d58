package inventory

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the stable categories that
// callers (automated agents) use to decide whether a retry makes sense.
type Kind int

const (
	// KindValidation marks malformed or out-of-range input. Caller's
	// fault — never retried automatically.
	KindValidation Kind = iota

	// KindNotFound marks a reference to an entity that does not exist.
	KindNotFound

	// KindInsufficientInventory marks an order that asks for more stock
	// than is available. No partial fulfillment.
	KindInsufficientInventory

	// KindDatabaseUnavailable marks an operation attempted while the
	// connection supervisor is not in the Connected state.
	KindDatabaseUnavailable

	// KindSchemaIncompatible marks a stored schema version this build
	// cannot serve. Requires operator action, not a caller retry.
	KindSchemaIncompatible

	// KindMigrationFailed marks a failed schema creation or migration.
	// Requires operator action, not a caller retry.
	KindMigrationFailed

	// KindUnexpected wraps anything else, with context and without
	// leaking internal detail to the caller.
	KindUnexpected
)

// String returns the stable wire tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindInsufficientInventory:
		return "InsufficientInventoryError"
	case KindDatabaseUnavailable:
		return "DatabaseUnavailableError"
	case KindSchemaIncompatible:
		return "SchemaIncompatibleError"
	case KindMigrationFailed:
		return "MigrationFailedError"
	default:
		return "UnexpectedError"
	}
}

// Retryable reports whether a caller may reasonably retry the failed
// operation later without changing its input.
func (k Kind) Retryable() bool {
	return k == KindDatabaseUnavailable || k == KindUnexpected
}

// Error is the single error type crossing the repository boundary.
// It carries a kind tag plus a human-readable message suitable for
// display to an automated agent.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is matching. The messages are placeholders;
// only the kind participates in matching.
var (
	ErrValidation            = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory, Message: "insufficient inventory"}
	ErrDatabaseUnavailable   = &Error{Kind: KindDatabaseUnavailable, Message: "database unavailable"}
	ErrSchemaIncompatible    = &Error{Kind: KindSchemaIncompatible, Message: "schema incompatible"}
	ErrMigrationFailed       = &Error{Kind: KindMigrationFailed, Message: "migration failed"}
	ErrUnexpected            = &Error{Kind: KindUnexpected, Message: "unexpected failure"}
)

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func insufficientf(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientInventory, Message: fmt.Sprintf(format, args...)}
}

func unavailablef(format string, args ...any) *Error {
	return &Error{Kind: KindDatabaseUnavailable, Message: fmt.Sprintf(format, args...)}
}

func schemaIncompatiblef(format string, args ...any) *Error {
	return &Error{Kind: KindSchemaIncompatible, Message: fmt.Sprintf(format, args...)}
}

func migrationFailed(cause error) *Error {
	return &Error{
		Kind:    KindMigrationFailed,
		Message: "schema creation or migration failed; see server logs",
		cause:   cause,
	}
}

// unexpected wraps an unrecognized failure. Typed errors pass through
// unchanged so the original kind survives helper layering.
func unexpected(context string, cause error) *Error {
	var typed *Error
	if errors.As(cause, &typed) {
		return typed
	}
	return &Error{
		Kind:    KindUnexpected,
		Message: context,
		cause:   cause,
	}
}

// ErrorKind extracts the kind from any error, mapping non-typed errors
// to KindUnexpected.
func ErrorKind(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnexpected
}
