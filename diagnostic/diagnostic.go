// Copyright © 2024 The ELPS authors

// Package diagnostic renders annotated error messages for the rlisp
// command line.  A diagnostic names the source line it is about, which is
// printed beneath the message with its text underlined, followed by notes
// such as the frames of a lisp stack trace.
package diagnostic

import (
	"errors"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/parser"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

// Possible Severity values.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is a single problem report.
type Diagnostic struct {
	Severity Severity
	Message  string
	// File and Line locate the problem.  Line is 1-based; zero means the
	// diagnostic has no source location.
	File  string
	Line  int
	Notes []string
}

// FromError converts err into a diagnostic.  Syntax errors are located at
// their source line.  Lisp errors carry their call stack as notes, most
// recent call first.
func FromError(err error) Diagnostic {
	var serr *parser.SyntaxError
	if errors.As(err, &serr) {
		return Diagnostic{
			Severity: SeverityError,
			Message:  serr.Msg,
			File:     serr.File,
			Line:     serr.Line,
		}
	}
	d := Diagnostic{Severity: SeverityError, Message: err.Error()}
	var lerr *lisp.ErrorVal
	if errors.As(err, &lerr) {
		d.Message = lerr.Name + ": " + lerr.Message
		for i := len(lerr.Stack) - 1; i >= 0; i-- {
			d.Notes = append(d.Notes, "in "+lerr.Stack[i])
		}
	}
	return d
}
