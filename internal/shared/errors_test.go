package shared_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbase/internal/shared"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		expected string
		isNil    bool
	}{
		{
			name:    "nil error",
			err:     nil,
			context: "some context",
			isNil:   true,
		},
		{
			name:     "simple error",
			err:      errors.New("original"),
			context:  "wrapper",
			expected: "wrapper: original",
		},
		{
			name:     "empty context",
			err:      errors.New("original"),
			context:  "",
			expected: "original",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.Wrap(tt.err, tt.context)
			if tt.isNil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result.Error())
			assert.True(t, errors.Is(result, tt.err))
		})
	}
}

func TestWrapf(t *testing.T) {
	assert.Nil(t, shared.Wrapf(nil, "table %s", "users"))

	base := errors.New("original")
	err := shared.Wrapf(base, "ensure table %s", "users")
	require.Error(t, err)
	assert.Equal(t, "ensure table users: original", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestNewf(t *testing.T) {
	err := shared.Newf(shared.KindSyntax, "expected %d args, got %d", 2, 1)
	assert.Equal(t, "syntax error: expected 2 args, got 1", err.Error())
	assert.True(t, shared.IsSyntax(err))

	plain := shared.Newf(shared.KindUnknown, "no kind")
	assert.Equal(t, "no kind", plain.Error())
	assert.Equal(t, shared.KindUnknown, shared.KindOf(plain))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want shared.Kind
	}{
		{"nil", nil, shared.KindUnknown},
		{"plain", errors.New("boom"), shared.KindUnknown},
		{"storage", shared.ErrStorageUnavailable, shared.KindStorageUnavailable},
		{"use after close", shared.ErrUseAfterClose, shared.KindUseAfterClose},
		{"transaction", shared.ErrTransaction, shared.KindTransaction},
		{"syntax", shared.ErrSyntax, shared.KindSyntax},
		{"constraint", shared.ErrConstraintViolation, shared.KindConstraintViolation},
		{"type mismatch", shared.ErrTypeMismatch, shared.KindTypeMismatch},
		{"schema conflict", shared.ErrSchemaConflict, shared.KindSchemaConflict},
		{"projection", shared.ErrProjection, shared.KindProjection},
		{"wrapped constraint", fmt.Errorf("insert user: %w", shared.ErrConstraintViolation), shared.KindConstraintViolation},
		{"canceled", context.Canceled, shared.KindCanceled},
		{"deadline", context.DeadlineExceeded, shared.KindTimeout},
		{"timeout sentinel", shared.ErrTimeout, shared.KindTimeout},
		{
			name: "commit failure wins over its constraint cause",
			err:  shared.MarkKind(shared.MarkKind(errors.New("FOREIGN KEY constraint failed"), shared.KindConstraintViolation), shared.KindTransaction),
			want: shared.KindTransaction,
		},
		{
			name: "join picks highest priority",
			err:  errors.Join(shared.ErrSyntax, shared.ErrUseAfterClose),
			want: shared.KindUseAfterClose,
		},
		{
			name: "canceled beats everything",
			err:  errors.Join(shared.ErrProjection, context.Canceled),
			want: shared.KindCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shared.KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	tests := map[shared.Kind]string{
		shared.KindUnknown:             "Unknown",
		shared.KindStorageUnavailable:  "StorageUnavailable",
		shared.KindUseAfterClose:       "UseAfterClose",
		shared.KindTransaction:         "TransactionError",
		shared.KindSyntax:              "SyntaxError",
		shared.KindConstraintViolation: "ConstraintViolation",
		shared.KindTypeMismatch:        "TypeMismatch",
		shared.KindSchemaConflict:      "SchemaConflict",
		shared.KindProjection:          "ProjectionError",
		shared.KindTimeout:             "Timeout",
		shared.KindCanceled:            "Canceled",
		shared.Kind(999):               "Unknown",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}

func TestKind_Fatal(t *testing.T) {
	assert.True(t, shared.KindProjection.Fatal())
	for _, k := range []shared.Kind{
		shared.KindStorageUnavailable,
		shared.KindUseAfterClose,
		shared.KindTransaction,
		shared.KindSyntax,
		shared.KindConstraintViolation,
		shared.KindTypeMismatch,
		shared.KindSchemaConflict,
	} {
		assert.False(t, k.Fatal(), k.String())
	}
}

func TestMarkKind(t *testing.T) {
	t.Run("nil error returns sentinel", func(t *testing.T) {
		assert.Equal(t, shared.ErrTypeMismatch, shared.MarkKind(nil, shared.KindTypeMismatch))
		assert.Nil(t, shared.MarkKind(nil, shared.KindUnknown))
	})

	t.Run("preserves original", func(t *testing.T) {
		base := errors.New("UNIQUE constraint failed: users.email")
		marked := shared.MarkKind(base, shared.KindConstraintViolation)
		assert.ErrorIs(t, marked, base)
		assert.True(t, shared.IsConstraintViolation(marked))
		assert.Equal(t, "constraint violation: UNIQUE constraint failed: users.email", marked.Error())
	})

	t.Run("idempotent", func(t *testing.T) {
		marked := shared.MarkKind(errors.New("x"), shared.KindSyntax)
		assert.Same(t, marked, shared.MarkKind(marked, shared.KindSyntax))
	})

	t.Run("unknown and canceled leave error unchanged", func(t *testing.T) {
		base := errors.New("x")
		assert.Same(t, base, shared.MarkKind(base, shared.KindUnknown))
		assert.Same(t, base, shared.MarkKind(base, shared.KindCanceled))
	})
}

func TestInvariant(t *testing.T) {
	require.NoError(t, shared.Invariant(true, "never"))
	require.NoError(t, shared.InvariantF(true, "never %d", 1))

	err := shared.Invariant(false, "row arity differs")
	assert.True(t, shared.IsProjection(err))
	assert.True(t, shared.KindOf(err).Fatal())

	err = shared.InvariantF(false, "row %d has %d values for %d columns", 3, 2, 4)
	assert.Equal(t, "projection error: row 3 has 2 values for 4 columns", err.Error())
}

func TestPredicates(t *testing.T) {
	assert.True(t, shared.IsStorageUnavailable(shared.MarkKind(errors.New("unable to open database file"), shared.KindStorageUnavailable)))
	assert.True(t, shared.IsUseAfterClose(fmt.Errorf("execute: %w", shared.ErrUseAfterClose)))
	assert.True(t, shared.IsTransaction(shared.ErrTransaction))
	assert.True(t, shared.IsTypeMismatch(shared.ErrTypeMismatch))
	assert.True(t, shared.IsSchemaConflict(shared.ErrSchemaConflict))
	assert.False(t, shared.IsSyntax(nil))
	assert.False(t, shared.IsCanceled(nil))
	assert.False(t, shared.IsTimeout(nil))
}

func TestIsTimeout_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	assert.True(t, shared.IsTimeout(ctx.Err()))
	assert.Equal(t, shared.KindTimeout, shared.KindOf(fmt.Errorf("query: %w", ctx.Err())))
}

func TestCause(t *testing.T) {
	assert.Nil(t, shared.Cause(nil))

	root := errors.New("disk I/O error")
	err := shared.Wrap(shared.MarkKind(root, shared.KindStorageUnavailable), "open tutorial.db")
	assert.Equal(t, root, shared.Cause(err))

	single := errors.New("alone")
	assert.Equal(t, single, shared.Cause(single))

	marked := shared.Wrap(shared.ErrUseAfterClose, "close")
	assert.Equal(t, shared.ErrUseAfterClose, shared.Cause(marked))

	a := errors.New("a")
	joined := fmt.Errorf("shutdown: %w", errors.Join(shared.MarkKind(a, shared.KindTransaction), errors.New("b")))
	assert.Equal(t, a, shared.Cause(joined))
}

// sliceError is a non-comparable error type.
type sliceError []string

func (e sliceError) Error() string { return strings.Join(e, "; ") }

func TestCause_NonComparableError(t *testing.T) {
	leaf := sliceError{"x", "y"}
	err := shared.Wrap(shared.MarkKind(leaf, shared.KindSyntax), "query")

	assert.NotPanics(t, func() {
		assert.Equal(t, leaf, shared.Cause(err))
	})
	assert.NotPanics(t, func() {
		shared.Cause(errors.Join(leaf, sliceError{"z"}))
	})
}
