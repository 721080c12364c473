// Package shared contains the error taxonomy used across the data-access
// packages, without any storage-specific logic.
//
// # Error Types
//
// Every failure surfaced to callers is marked with one of these sentinels:
//
//   - ErrStorageUnavailable: the database file cannot be created or opened
//   - ErrUseAfterClose: an operation ran against a closed connection
//   - ErrTransaction: the engine rejected a commit
//   - ErrSyntax: the statement is malformed
//   - ErrConstraintViolation: primary key, uniqueness, not-null or check failure
//   - ErrTypeMismatch: a bound value is incompatible with its target
//   - ErrSchemaConflict: an existing table differs from the requested shape
//   - ErrProjection: driver rows and column metadata disagree
//
// # Error Classification
//
// Use KindOf() to classify errors:
//
//	switch shared.KindOf(err) {
//	case shared.KindConstraintViolation:
//	    // duplicate row, decide whether to skip it
//	case shared.KindUseAfterClose:
//	    // programming error
//	}
//
// Or the predicates:
//
//	if shared.IsConstraintViolation(err) {
//	    // insert or skip on duplicate
//	}
//
// # Kind Priority Table
//
// When several kinds are present (for example a commit that failed because of
// a deferred foreign key), KindOf returns the highest priority kind:
//
//	Priority | Kind                    | Description
//	---------|-------------------------|----------------------------------
//	1        | KindCanceled            | Context cancellation (highest)
//	2        | KindTimeout             | Timeout/deadline errors
//	3        | KindUseAfterClose       | Operation on a closed handle
//	4        | KindProjection          | Projection invariant broken
//	5        | KindTransaction         | Commit rejected
//	6        | KindStorageUnavailable  | Open/create failure
//	7        | KindSchemaConflict      | Shape mismatch on ensure
//	8        | KindConstraintViolation | Constraint broken
//	9        | KindTypeMismatch        | Value/column type incompatibility
//	10       | KindSyntax              | Malformed statement (lowest)
//
// # Retries
//
// Nothing in this module retries. Retrying a malformed statement or a
// constraint violation without caller-level correction would loop forever,
// so the decision always belongs to the caller.
//
// # Fatal Errors
//
// KindProjection is the only kind whose Fatal() reports true. It means the
// driver returned a row whose arity does not match its column metadata and
// must be treated as an assertion failure, not as bad input.
//
// # Error Message Style Guide
//
// - Use lowercase messages: "table users not found" not "Table users not found"
// - Avoid punctuation
// - Keep messages composable: they will often be wrapped with additional context
// - Never include bound values in messages, they may carry passwords
package shared
