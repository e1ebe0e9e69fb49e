// Package danaerr defines Dana's uniform error type: every failure surfaced
// by the parser, interpreter, state store, transcoder or LLM layer is
// wrapped in an *Error carrying a message, an optional cause, and an
// optional source Location, so the REPL can render all of them the same way.
package danaerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names one of the five error kinds spec §4.11/§7 distinguishes by
// construction site.
type Kind string

const (
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
	KindInterpret  Kind = "interpret"
	KindState      Kind = "state"
	KindRuntime    Kind = "runtime"
)

// Location pinpoints the offending source position for error display.
type Location struct {
	Line       int
	Column     int
	SourceText string // the full source line the error occurred on
}

// Format renders the source line followed by a caret line pointing at Column,
// matching the original REPL's error presentation.
func (l Location) Format() string {
	if l.SourceText == "" {
		return ""
	}
	col := l.Column
	if col < 1 {
		col = 1
	}
	pad := strings.Repeat(" ", col-1)
	return fmt.Sprintf("%s\n%s^", l.SourceText, pad)
}

// Error is Dana's uniform error type.
type Error struct {
	Kind     Kind
	Message  string
	Cause    error
	Location *Location
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) WithLocation(loc Location) *Error {
	e.Location = &loc
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Location != nil {
		if frame := e.Location.Format(); frame != "" {
			b.WriteString(frame)
			b.WriteString("\n")
		}
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Display renders the user-facing "Error: ..." block the REPL prints,
// per spec §7: source line + caret first, diagnostic after, blank line
// separator left to the caller.
func (e *Error) Display() string {
	return "Error: " + e.Error()
}

// Is reports whether err is a *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == kind
}
