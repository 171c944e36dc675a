package gate_test

import (
	"errors"
	"testing"

	gate "github.com/goliatone/go-content-gate"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      gate.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      gate.ErrRuleNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gate.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      gate.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid signature"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gate.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsDenialError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Missing credential is a denial",
			err:      gate.ErrMissingCredential,
			expected: true,
		},
		{
			name:     "Invalid password is a denial",
			err:      gate.ErrInvalidPassword,
			expected: true,
		},
		{
			name:     "Email not allowed is a denial",
			err:      gate.ErrEmailNotAllowed,
			expected: true,
		},
		{
			name:     "Expired token is not a denial",
			err:      gate.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Storage fault is not a denial",
			err:      gate.ErrStorageUnavailable,
			expected: false,
		},
		{
			name:     "Plain error is not a denial",
			err:      errors.New("boom"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gate.IsDenialError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDenialMessagesDoNotLeakWhichCheckFailed(t *testing.T) {
	// A wrong password and an unlisted email must read identically, so
	// a caller cannot probe which credential mode got closer.
	assert.Equal(t, gate.ErrInvalidPassword.Message, gate.ErrEmailNotAllowed.Message)
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, goerrors.CategoryAuth, gate.ErrMissingCredential.Category)
	assert.Equal(t, goerrors.CategoryAuth, gate.ErrTokenExpired.Category)
	assert.Equal(t, goerrors.CategoryAuth, gate.ErrTokenMismatch.Category)
	assert.Equal(t, goerrors.CategoryNotFound, gate.ErrRuleNotFound.Category)
	assert.Equal(t, goerrors.CategoryConflict, gate.ErrRuleConflict.Category)
	assert.Equal(t, goerrors.CategoryExternal, gate.ErrStorageUnavailable.Category)
	assert.Equal(t, goerrors.CategoryValidation, gate.ErrNoEmptyString.Category)
}
