// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Renderer formats diagnostics as annotated source snippets:
//
//	error: unexpected source text possibly starting: )
//	  --> prog.lisp:3
//	   |
//	 3 |  (print x))
//	   |  ^^^^^^^^^^
//	   = note: in f
type Renderer struct {
	Color ColorMode

	// Source returns the contents of a file.  When nil, files are read
	// from disk.  Sources that cannot be read are not shown.
	Source func(file string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, w)
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	ew.printf("%s%s%s: %s%s%s\n", severityColor(d.Severity, p), d.Severity, p.reset, p.bold, d.Message, p.reset)
	if d.File != "" {
		r.writeSpan(ew, d, p)
	}
	for _, note := range d.Notes {
		ew.printf("   %s=%s note: %s\n", p.boldCyan, p.reset, note)
	}
	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

func severityColor(s Severity, p palette) string {
	switch s {
	case SeverityWarning:
		return p.yellow
	case SeverityNote:
		return p.boldCyan
	}
	return p.boldRed
}

// errWriter remembers the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (r *Renderer) writeSpan(ew *errWriter, d Diagnostic, p palette) {
	loc := d.File
	if d.Line > 0 {
		loc += ":" + strconv.Itoa(d.Line)
	}
	ew.printf("  %s-->%s %s\n", p.boldBlue, p.reset, loc)

	text, ok := r.sourceLine(d.File, d.Line)
	if !ok {
		return
	}
	num := strconv.Itoa(d.Line)
	pad := strings.Repeat(" ", len(num))
	text = strings.ReplaceAll(text, "\t", "    ")
	trimmed := strings.TrimLeft(text, " ")
	indent := len(text) - len(trimmed)
	trimmed = strings.TrimRight(trimmed, " ")
	ew.printf(" %s%s |%s\n", p.boldBlue, pad, p.reset)
	ew.printf(" %s%s |%s  %s\n", p.boldBlue, num, p.reset, text)
	if len(trimmed) > 0 {
		ew.printf(" %s%s |%s  %s%s%s%s\n", p.boldBlue, pad, p.reset,
			strings.Repeat(" ", indent), p.boldRed, strings.Repeat("^", len([]rune(trimmed))), p.reset)
	}
}

func (r *Renderer) sourceLine(file string, line int) (string, bool) {
	if line <= 0 {
		return "", false
	}
	read := r.Source
	if read == nil {
		read = func(name string) ([]byte, error) {
			return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
		}
	}
	data, err := read(file)
	if err != nil {
		return "", false
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 1; scanner.Scan(); i++ {
		if i == line {
			return scanner.Text(), true
		}
	}
	return "", false
}
