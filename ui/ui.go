package ui

import (
	"encoding/json"
	"io"
)

// Severity classifies the visual weight of a piece of inline text. The print
// layer maps each value to a terminal style; JSON and tests see plain text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain
	SeveritySuccess                  // green
	SeverityWarn                     // yellow
	SeverityError                    // red
	SeverityCritical                 // bold
)

// StyledText pairs a plain string with a Severity annotation. It marshals to
// JSON as the plain Text string.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UI is all the terminal output of saddle commands. Production code uses
// TerminalUI; tests use RecordingUI and inspect what was printed.
//
// Use [UI.Indent] to print a nested block, e.g. the attempts of a failed
// parameter under the parameter name.
type UI interface {
	// Style returns the text from t coloured according to its Severity, or
	// the plain text when colours are disabled.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)

	// Error writes a failure in red. It does not exit.
	Error(format string, args ...any)

	// Critical writes data the user must not miss, such as the account a
	// deployment is about to sign with.
	Critical(format string, args ...any)

	// Section writes a separator centred around title:
	// "===== Resolving development ====="
	Section(title string)

	// KeyValue renders an aligned 2-column block.
	KeyValue(rows [][2]string)

	// Table renders a bordered table with a header row.
	Table(headers []string, rows [][]string)

	// TableWithGroups renders a bordered table whose row groups are split by
	// a divider line, e.g. one group per parameter.
	TableWithGroups(headers []string, groups [][][]string)

	// Spinner starts a spinner with msg and returns the function that stops
	// it. It is a no-op outside a terminal.
	Spinner(msg string) func()

	// Indent returns a child UI one level deeper sharing the same output.
	Indent() UI

	// Writer returns an io.Writer that prefixes every line with the current
	// indentation, for encoders that write directly.
	Writer() io.Writer
}
