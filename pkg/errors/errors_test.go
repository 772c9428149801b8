// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and code matching

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "missing_apply",
			code:    errors.ErrMissingApply,
			message: "patch archive has no apply list",
			wantStr: "[MISSING_APPLY] patch archive has no apply list",
		},
		{
			name:    "unsupported_source",
			code:    errors.ErrUnsupportedSource,
			message: "no strategy",
			wantStr: "[UNSUPPORTED_SOURCE] no strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrPatchMemberNotFound, "entry %q not found in %s", "noop-a.diff", "patches.tgz")
	assert.Equal(t, `entry "noop-a.diff" not found in patches.tgz`, err.Message)
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("permission denied")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrFileSystem, "copy failed")

		require.NotNil(t, err)
		assert.Equal(t, errors.ErrFileSystem, err.Code)
		assert.Same(t, baseErr, err.Wrapped)
		assert.Equal(t, "[FILESYSTEM] copy failed: permission denied", err.Error())
		assert.True(t, stderrors.Is(err, baseErr))
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.ErrFileSystem, "copy failed"))
		assert.Nil(t, errors.Wrapf(nil, errors.ErrFileSystem, "copy %s", "x"))
	})
}

func TestWithDetails(t *testing.T) {
	err := errors.New(errors.ErrStructuralConflict, "cannot move").
		WithDetail("source", "/src/a").
		WithDetails(map[string]interface{}{"destination": "/dst/a"})

	assert.Equal(t, "/src/a", err.Details["source"])
	assert.Equal(t, "/dst/a", err.Details["destination"])
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrPatchApply, "hunk 1 failed")
	err2 := errors.New(errors.ErrPatchApply, "")
	err3 := errors.New(errors.ErrMissingApply, "")

	assert.True(t, stderrors.Is(err1, err2))
	assert.False(t, stderrors.Is(err1, err3))

	wrapped := fmt.Errorf("stage failed: %w", err1)
	assert.True(t, stderrors.Is(wrapped, err2))
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{
			name:     "matching_code",
			err:      errors.New(errors.ErrChecksum, "mismatch"),
			code:     errors.ErrChecksum,
			expected: true,
		},
		{
			name:     "different_code",
			err:      errors.New(errors.ErrChecksum, "mismatch"),
			code:     errors.ErrInternal,
			expected: false,
		},
		{
			name:     "wrapped_in_fmt",
			err:      fmt.Errorf("outer: %w", errors.New(errors.ErrUnsafePath, "escape")),
			code:     errors.ErrUnsafePath,
			expected: true,
		},
		{
			name:     "standard_error",
			err:      stderrors.New("plain"),
			code:     errors.ErrNotFound,
			expected: false,
		},
		{
			name:     "nil_error",
			err:      nil,
			code:     errors.ErrNotFound,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.IsErrorCode(tt.err, tt.code))
		})
	}
}

func TestGetErrorCodeAndDetails(t *testing.T) {
	err := errors.New(errors.ErrPatchApply, "rejected").WithDetail("strip", 1)

	assert.Equal(t, errors.ErrPatchApply, errors.GetErrorCode(err))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
	assert.Equal(t, 1, errors.GetErrorDetails(err)["strip"])
	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}

func TestPassthrough(t *testing.T) {
	coded := errors.New(errors.ErrPatchApply, "rejected")
	assert.Same(t, coded, errors.Passthrough(coded, errors.ErrFileSystem, "ignored").(*errors.StagerError))

	plain := stderrors.New("disk full")
	got := errors.Passthrough(plain, errors.ErrFileSystem, "write failed")
	assert.True(t, errors.IsErrorCode(got, errors.ErrFileSystem))
	assert.True(t, stderrors.Is(got, plain))

	assert.Nil(t, errors.Passthrough(nil, errors.ErrFileSystem, "x"))
}
