// Package shared contains the error taxonomy shared by the data-access packages.
package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for every failure class surfaced by the data-access layer.
var (
	// ErrStorageUnavailable indicates that the database file cannot be created or opened
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUseAfterClose indicates an operation on a closed connection
	ErrUseAfterClose = errors.New("use after close")

	// ErrTransaction indicates that the storage engine rejected a commit or rollback
	ErrTransaction = errors.New("transaction error")

	// ErrSyntax indicates a malformed statement
	ErrSyntax = errors.New("syntax error")

	// ErrConstraintViolation indicates a broken primary key, uniqueness, not-null or check constraint
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTypeMismatch indicates a bound value incompatible with its target
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSchemaConflict indicates that an existing table differs from the requested shape
	ErrSchemaConflict = errors.New("schema conflict")

	// ErrProjection indicates an internal inconsistency between driver rows and column metadata
	ErrProjection = errors.New("projection error")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// Kind represents a category of error for easier classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindStorageUnavailable represents open/create failures of the database file
	KindStorageUnavailable
	// KindUseAfterClose represents operations on a closed connection
	KindUseAfterClose
	// KindTransaction represents commit-time failures
	KindTransaction
	// KindSyntax represents malformed statements
	KindSyntax
	// KindConstraintViolation represents schema constraint failures
	KindConstraintViolation
	// KindTypeMismatch represents value/column type incompatibility
	KindTypeMismatch
	// KindSchemaConflict represents shape mismatches found while ensuring a schema
	KindSchemaConflict
	// KindProjection represents broken projection invariants
	KindProjection
	// KindTimeout represents timeout errors
	KindTimeout
	// KindCanceled represents context cancellation
	KindCanceled
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindUseAfterClose:
		return "UseAfterClose"
	case KindTransaction:
		return "TransactionError"
	case KindSyntax:
		return "SyntaxError"
	case KindConstraintViolation:
		return "ConstraintViolation"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindSchemaConflict:
		return "SchemaConflict"
	case KindProjection:
		return "ProjectionError"
	case KindTimeout:
		return "Timeout"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Fatal reports whether errors of this kind indicate an internal inconsistency
// rather than bad caller input. Only projection errors are fatal.
func (k Kind) Fatal() bool {
	return k == KindProjection
}

// kindToSentinel maps error kinds to their corresponding sentinel errors.
var kindToSentinel = map[Kind]error{
	KindStorageUnavailable:  ErrStorageUnavailable,
	KindUseAfterClose:       ErrUseAfterClose,
	KindTransaction:         ErrTransaction,
	KindSyntax:              ErrSyntax,
	KindConstraintViolation: ErrConstraintViolation,
	KindTypeMismatch:        ErrTypeMismatch,
	KindSchemaConflict:      ErrSchemaConflict,
	KindProjection:          ErrProjection,
	KindTimeout:             ErrTimeout,
}

// kindPriorities defines the deterministic order for error classification.
// Higher priority (lower index) kinds are checked first in KindOf.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil},       // context.Canceled (special case)
	{KindTimeout, ErrTimeout}, // timeout errors have high priority
	{KindUseAfterClose, ErrUseAfterClose},
	{KindProjection, ErrProjection},
	{KindTransaction, ErrTransaction}, // a failed commit wins over whatever caused it
	{KindStorageUnavailable, ErrStorageUnavailable},
	{KindSchemaConflict, ErrSchemaConflict},
	{KindConstraintViolation, ErrConstraintViolation},
	{KindTypeMismatch, ErrTypeMismatch},
	{KindSyntax, ErrSyntax},
}

// KindOf returns the Kind of the given error by checking against known sentinel errors.
// It traverses the error chain using a deterministic priority order:
//
//  1. KindCanceled (context.Canceled)
//  2. KindTimeout (context.DeadlineExceeded, ErrTimeout, net timeout errors)
//  3. KindUseAfterClose, KindProjection (programming errors)
//  4. KindTransaction, KindStorageUnavailable
//  5. KindSchemaConflict, KindConstraintViolation, KindTypeMismatch, KindSyntax
//
// For errors created with errors.Join, the first matching kind in priority order is returned.
// Returns KindUnknown for unrecognized errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, priority := range kindPriorities {
		switch priority.kind {
		case KindCanceled:
			if IsCanceled(err) {
				return KindCanceled
			}
		case KindTimeout:
			if IsTimeout(err) {
				return KindTimeout
			}
		default:
			if priority.err != nil && errors.Is(err, priority.err) {
				return priority.kind
			}
		}
	}

	return KindUnknown
}

// sentinelOf returns the sentinel error for the given Kind, or nil.
func sentinelOf(kind Kind) error {
	if sentinel, exists := kindToSentinel[kind]; exists {
		return sentinel
	}
	return nil
}

// MarkKind wraps an error with the sentinel error for the given kind,
// preserving the original error through error wrapping.
// Both KindOf(MarkKind(err, kind)) == kind and errors.Is(MarkKind(err, kind), err) hold.
// If err is nil, returns the sentinel error for the kind (or nil for unsupported kinds).
// If kind is KindUnknown or KindCanceled, returns the original error unchanged.
//
// Marking an error with a kind it already has returns the error unchanged.
//
//	var sqliteErr *sqlite.Error
//	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
//	    return shared.MarkKind(err, shared.KindConstraintViolation)
//	}
func MarkKind(err error, kind Kind) error {
	if err == nil {
		return sentinelOf(kind)
	}

	switch kind {
	case KindUnknown, KindCanceled:
		return err
	}

	sentinel := sentinelOf(kind)
	if sentinel == nil {
		return err
	}

	if KindOf(err) == kind {
		return err
	}

	return fmt.Errorf("%w: %w", sentinel, err)
}

// Newf creates an error of the given kind with a formatted message.
// The result formats as "<sentinel>: <message>".
func Newf(kind Kind, format string, args ...any) error {
	sentinel := sentinelOf(kind)
	message := fmt.Sprintf(format, args...)
	if sentinel == nil {
		return errors.New(message)
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// Wrap wraps an error with additional context.
// It returns a new error that formats as "context: err".
// If err is nil, Wrap returns nil.
// If context is empty, returns the original error.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(format, args...)
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Invariant checks an internal condition and returns a projection error if it's false.
func Invariant(condition bool, message string) error {
	if condition {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrProjection, message)
}

// InvariantF checks an internal condition and returns a formatted projection error if it's false.
func InvariantF(condition bool, format string, args ...any) error {
	if condition {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrProjection, fmt.Sprintf(format, args...))
}

// IsCanceled reports whether the error indicates a canceled context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}

// IsTimeout reports whether the error indicates a timeout.
// It checks for context.DeadlineExceeded, net.Error timeouts, and ErrTimeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// IsStorageUnavailable reports whether the database file could not be opened or created.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsUseAfterClose reports whether an operation ran against a closed connection.
func IsUseAfterClose(err error) bool {
	return errors.Is(err, ErrUseAfterClose)
}

// IsTransaction reports whether a commit or rollback was rejected.
func IsTransaction(err error) bool {
	return errors.Is(err, ErrTransaction)
}

// IsSyntax reports whether the statement was malformed.
func IsSyntax(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// IsConstraintViolation reports whether a schema constraint was broken.
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// IsTypeMismatch reports whether a bound value had an incompatible type.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsSchemaConflict reports whether an existing table conflicts with a requested definition.
func IsSchemaConflict(err error) bool {
	return errors.Is(err, ErrSchemaConflict)
}

// IsProjection reports whether a projection invariant was broken.
func IsProjection(err error) bool {
	return errors.Is(err, ErrProjection)
}

// Cause returns the error underneath context wrapping and kind markers,
// usually the driver or I/O error. Kind sentinels are skipped; for joined
// errors the first branch that is not a sentinel is followed.
func Cause(err error) error {
	for {
		next := nextCause(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func nextCause(err error) error {
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if e != nil && !isSentinel(e) {
				return e
			}
		}
	case interface{ Unwrap() error }:
		return u.Unwrap()
	}
	return nil
}

func isSentinel(err error) bool {
	for _, s := range kindToSentinel {
		if err == s {
			return true
		}
	}
	return false
}
