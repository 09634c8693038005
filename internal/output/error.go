package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return formatErrorJSON(w, err)
	}
	return formatErrorText(w, err)
}

// detailOf converts any error into its structured form.
func detailOf(err error) ErrorDetail {
	var ce *coreerr.CoreError
	if errors.As(err, &ce) {
		message := ce.Message
		if ce.Cause != nil {
			message = fmt.Sprintf("%s: %v", message, ce.Cause)
		}
		return ErrorDetail{
			Code:       ce.Code,
			Message:    message,
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			ExitCode:   ce.ExitCode,
		}
	}
	return ErrorDetail{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		ExitCode: coreerr.ExitGeneral,
	}
}

// formatErrorJSON outputs error in JSON format.
func formatErrorJSON(w io.Writer, err error) error {
	return writeJSON(w, ErrorOutput{Error: detailOf(err)})
}

// formatErrorText outputs error in text format. Details are sorted by key.
func formatErrorText(w io.Writer, err error) error {
	detail := detailOf(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", detail.Message))

	if len(detail.Details) > 0 {
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, detail.Details[k]))
		}
	}

	if detail.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", detail.Suggestion))
	}

	_, writeErr := w.Write([]byte(sb.String()))
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
