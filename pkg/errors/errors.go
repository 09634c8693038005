// Package errors provides the structured error model for chaincore.
// Every identifier, path and construction failure is a *CoreError whose
// Code names one kind from a closed set; errors.Is matches on that code.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes used by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitNotFound = 4 // Resource not found
	ExitFunds    = 5 // Insufficient funds
)

// CoreError is the structured error type for chaincore.
type CoreError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *CoreError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *CoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CoreError.
func (e *CoreError) Is(target error) bool {
	var t *CoreError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &CoreError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &CoreError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &CoreError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	// Identifier and derivation path errors.
	ErrParse = &CoreError{
		Code:     "PARSE_ERROR",
		Message:  "malformed identifier",
		ExitCode: ExitInput,
	}

	ErrMissingParam = &CoreError{
		Code:     "MISSING_PARAM",
		Message:  "required parameter missing",
		ExitCode: ExitInput,
	}

	ErrInvalidPath = &CoreError{
		Code:     "INVALID_PATH",
		Message:  "invalid derivation path",
		ExitCode: ExitInput,
	}

	ErrUnsupportedChain = &CoreError{
		Code:     "UNSUPPORTED_CHAIN",
		Message:  "chain or asset not supported",
		ExitCode: ExitInput,
	}

	// Construction errors.
	ErrInsufficientFunds = &CoreError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds for transaction",
		ExitCode: ExitFunds,
	}

	ErrInvalidAddress = &CoreError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &CoreError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrDustOutput = &CoreError{
		Code:     "DUST_OUTPUT",
		Message:  "output amount below dust limit",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &CoreError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}

	ErrInvalidGasSpeed = &CoreError{
		Code:     "INVALID_GAS_SPEED",
		Message:  "invalid gas speed",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigInvalid = &CoreError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &CoreError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown configuration key",
		ExitCode: ExitNotFound,
	}
)

// New creates a new CoreError with the given code and message.
func New(code, message string) *CoreError {
	return &CoreError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Newf derives an error of the same kind as base with a specific message.
// The result still matches base through errors.Is.
func Newf(base *CoreError, format string, args ...any) *CoreError {
	return &CoreError{
		Code:     base.Code,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: base.ExitCode,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ce *CoreError
	if errors.As(err, &ce) {
		return &CoreError{
			Code:       ce.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ce.Message),
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CoreError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause attaches an underlying error to a copy of base.
func WithCause(base *CoreError, cause error) error {
	return &CoreError{
		Code:       base.Code,
		Message:    base.Message,
		Details:    base.Details,
		Suggestion: base.Suggestion,
		Cause:      cause,
		ExitCode:   base.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ce *CoreError
	if errors.As(err, &ce) {
		return &CoreError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CoreError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ce *CoreError
	if errors.As(err, &ce) {
		return &CoreError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    ce.Details,
			Suggestion: suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CoreError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// DetailOf returns the named detail of a CoreError, if any.
func DetailOf(err error, key string) (string, bool) {
	var ce *CoreError
	if !errors.As(err, &ce) || ce.Details == nil {
		return "", false
	}
	v, ok := ce.Details[key]
	return v, ok
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
