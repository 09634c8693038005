// Package output renders command results and errors as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how results are written.
type Format string

// Output format constants.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// ParseFormat maps a flag or config value to a Format. Anything other than
// text or json selects auto detection.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON
	case FormatText:
		return FormatText
	default:
		return FormatAuto
	}
}

// DetectFormat resolves FormatAuto: text when w is a terminal, JSON when
// the output is piped into another program.
func DetectFormat(w io.Writer, explicit Format) Format {
	if explicit != FormatAuto {
		return explicit
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: Fd fits an int on supported platforms
		return FormatText
	}
	return FormatJSON
}

// TextRenderer is implemented by results with a custom text layout.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Formatter writes command results in a single format.
type Formatter struct {
	format Format
	w      io.Writer
}

// NewFormatter returns a formatter writing format to w.
func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: format, w: w}
}

// Format returns the resolved output format.
func (f *Formatter) Format() Format {
	return f.format
}

// Writer returns the destination writer.
func (f *Formatter) Writer() io.Writer {
	return f.w
}

// IsJSON reports whether results are written as JSON.
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Print writes v as indented JSON, or as text through its RenderText
// method when it has one.
func (f *Formatter) Print(v any) error {
	if f.IsJSON() {
		return writeJSON(f.w, v)
	}
	var err error
	switch val := v.(type) {
	case TextRenderer:
		return val.RenderText(f.w)
	case string:
		_, err = fmt.Fprintln(f.w, val)
	case fmt.Stringer:
		_, err = fmt.Fprintln(f.w, val.String())
	default:
		_, err = fmt.Fprintf(f.w, "%v\n", val)
	}
	return err
}

// List writes items as a JSON array, or one per line as text.
func (f *Formatter) List(items []string) error {
	if f.IsJSON() {
		if items == nil {
			items = []string{}
		}
		return writeJSON(f.w, items)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(f.w, item); err != nil {
			return err
		}
	}
	return nil
}

// WriteFields renders label/value pairs, such as "Address:" and its value,
// as an aligned two column block. A trailing unpaired label is ignored.
func WriteFields(w io.Writer, pairs ...string) error {
	table := NewTable()
	table.SetNoHeader(true)
	for i := 0; i+1 < len(pairs); i += 2 {
		table.AddRow(pairs[i], pairs[i+1])
	}
	return table.Render(w)
}

// writeJSON encodes v indented. HTML escaping is off so memos, call data
// and identifiers containing <, > or & are written as given.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
