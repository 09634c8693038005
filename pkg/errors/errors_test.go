package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

var (
	errInner     = errors.New("inner")
	errRootCause = errors.New("root cause")
	errPlain     = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, coreerr.ExitSuccess},
		{"general error", coreerr.ErrGeneral, coreerr.ExitGeneral},
		{"parse error", coreerr.ErrParse, coreerr.ExitInput},
		{"missing param", coreerr.ErrMissingParam, coreerr.ExitInput},
		{"invalid path", coreerr.ErrInvalidPath, coreerr.ExitInput},
		{"unsupported chain", coreerr.ErrUnsupportedChain, coreerr.ExitInput},
		{"insufficient funds", coreerr.ErrInsufficientFunds, coreerr.ExitFunds},
		{"unknown config key", coreerr.ErrUnknownConfigKey, coreerr.ExitNotFound},
		{"plain error", errPlain, coreerr.ExitGeneral},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, coreerr.ExitCode(tt.err))
		})
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	t.Parallel()
	sentinels := []*coreerr.CoreError{
		coreerr.ErrParse,
		coreerr.ErrMissingParam,
		coreerr.ErrInvalidPath,
		coreerr.ErrUnsupportedChain,
		coreerr.ErrInsufficientFunds,
		coreerr.ErrInvalidAddress,
		coreerr.ErrDustOutput,
	}
	for _, s := range sentinels {
		s := s
		t.Run(s.Code, func(t *testing.T) {
			t.Parallel()
			wrapped := coreerr.Wrap(s, "building %s", "tx")
			require.ErrorIs(t, wrapped, s)
			assert.Contains(t, wrapped.Error(), "building tx")
		})
	}
}

func TestNewf(t *testing.T) {
	t.Parallel()
	err := coreerr.Newf(coreerr.ErrParse, "unknown namespace %q", "foo")
	require.ErrorIs(t, err, coreerr.ErrParse)
	assert.Equal(t, `unknown namespace "foo"`, err.Error())
	assert.Equal(t, coreerr.ExitInput, err.ExitCode)
	assert.NotErrorIs(t, err, coreerr.ErrMissingParam)
}

func TestWithCause(t *testing.T) {
	t.Parallel()
	err := coreerr.WithCause(coreerr.ErrInvalidAddress, errInner)
	require.ErrorIs(t, err, coreerr.ErrInvalidAddress)
	require.ErrorIs(t, err, errInner)
	assert.Equal(t, "invalid address format: inner", err.Error())
}

func TestWithDetails(t *testing.T) {
	t.Parallel()
	details := map[string]string{"expected": "5", "actual": "4"}
	err := coreerr.WithDetails(coreerr.ErrInvalidPath, details)

	var ce *coreerr.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, details, ce.Details)
	assert.Equal(t, "invalid derivation path (actual: 4) (expected: 5)", err.Error())

	actual, ok := coreerr.DetailOf(err, "actual")
	assert.True(t, ok)
	assert.Equal(t, "4", actual)

	_, ok = coreerr.DetailOf(errPlain, "actual")
	assert.False(t, ok)
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()
	err := coreerr.WithDetails(coreerr.ErrParse, map[string]string{"key": "value"})
	err = coreerr.WithSuggestion(err, "did you mean eip155?")

	var ce *coreerr.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "value", ce.Details["key"])
	assert.Equal(t, "did you mean eip155?", ce.Suggestion)
}

func TestCoreError_Error(t *testing.T) {
	t.Parallel()

	t.Run("message only", func(t *testing.T) {
		t.Parallel()
		err := &coreerr.CoreError{Code: "TEST", Message: "something failed"}
		assert.Equal(t, "something failed", err.Error())
	})

	t.Run("with details and cause", func(t *testing.T) {
		t.Parallel()
		err := &coreerr.CoreError{
			Code:    "TEST",
			Message: "outer",
			Details: map[string]string{"key": "val"},
			Cause:   errInner,
		}
		assert.Equal(t, "outer (key: val): inner", err.Error())
	})
}

func TestCoreError_Is(t *testing.T) {
	t.Parallel()

	a := &coreerr.CoreError{Code: "SAME_CODE", Message: "a"}
	b := &coreerr.CoreError{Code: "SAME_CODE", Message: "b"}
	c := &coreerr.CoreError{Code: "OTHER", Message: "c"}
	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
	assert.False(t, a.Is(errPlain))
}

func TestCoreError_Unwrap(t *testing.T) {
	t.Parallel()
	err := &coreerr.CoreError{Code: "TEST", Message: "wrapper", Cause: errRootCause}
	assert.Equal(t, errRootCause, err.Unwrap())
}

func TestCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "INSUFFICIENT_FUNDS", coreerr.Code(coreerr.Wrap(coreerr.ErrInsufficientFunds, "select")))
	assert.Equal(t, "GENERAL_ERROR", coreerr.Code(errPlain))
	assert.Equal(t, "GENERAL_ERROR", coreerr.Code(nil))
}

func TestHelpersWithNil(t *testing.T) {
	t.Parallel()
	require.NoError(t, coreerr.Wrap(nil, "context"))
	require.NoError(t, coreerr.WithDetails(nil, map[string]string{"a": "b"}))
	require.NoError(t, coreerr.WithSuggestion(nil, "hint"))
}

func TestHelpersWithPlainError(t *testing.T) {
	t.Parallel()
	wrapped := coreerr.Wrap(errPlain, "context")
	require.ErrorIs(t, wrapped, errPlain)
	assert.Equal(t, "GENERAL_ERROR", coreerr.Code(wrapped))

	detailed := coreerr.WithDetails(errPlain, map[string]string{"a": "b"})
	require.ErrorIs(t, detailed, errPlain)
}
