// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/rlisp/diagnostic"
	"github.com/luthersystems/rlisp/parser"
	"github.com/spf13/cobra"
)

const stdinName = "<stdin>"

var (
	lintJSON     bool
	lintExcludes []string
)

// lintDiagnostic is a problem found in a source file.
type lintDiagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [files...]",
	Short: "Check rlisp source files for syntax errors",
	Long: `Check rlisp source files for syntax errors without evaluating them.

With no files, reads from stdin.  A directory argument ending in "/..."
checks every .lisp file beneath the directory.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

Examples:
  rlisp lint file.lisp
  rlisp lint --exclude=build ./...
  rlisp lint --json file.lisp
  cat file.lisp | rlisp lint`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(lintExit(os.Stdin, os.Stdout, os.Stderr, args))
	},
}

// lintExit runs the lint command and returns its exit code.
func lintExit(stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	sources := make(map[string][]byte)
	diags, err := lintMain(stdin, args, sources)
	if err != nil {
		fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort
		return 2
	}
	if len(diags) == 0 {
		return 0
	}
	if err := writeLintDiagnostics(stdout, stderr, diags, sources); err != nil {
		fmt.Fprintln(stderr, err) //nolint:errcheck // best-effort
		return 2
	}
	return 1
}

// lintMain checks the files named by args, or stdin when args is empty.
// Source read from stdin is stored in sources.
func lintMain(stdin io.Reader, args []string, sources map[string][]byte) ([]lintDiagnostic, error) {
	if len(args) == 0 {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		sources[stdinName] = src
		return lintSource(stdinName, src)
	}
	files, err := expandArgs(args, lintExcludes)
	if err != nil {
		return nil, err
	}
	var all []lintDiagnostic
	for _, path := range files {
		src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			return nil, err
		}
		diags, err := lintSource(path, src)
		if err != nil {
			return nil, err
		}
		all = append(all, diags...)
	}
	return all, nil
}

func lintSource(name string, src []byte) ([]lintDiagnostic, error) {
	_, err := parser.Parse(name, src)
	if err == nil {
		return nil, nil
	}
	var serr *parser.SyntaxError
	if !errors.As(err, &serr) {
		return nil, err
	}
	return []lintDiagnostic{{File: serr.File, Line: serr.Line, Message: serr.Msg}}, nil
}

// writeLintDiagnostics writes diags as JSON to stdout or as annotated
// source to stderr.  Source text read from stdin is passed in sources.
func writeLintDiagnostics(stdout, stderr io.Writer, diags []lintDiagnostic, sources map[string][]byte) error {
	if lintJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diags)
	}
	r := &diagnostic.Renderer{
		Source: func(file string) ([]byte, error) {
			if src, ok := sources[file]; ok {
				return src, nil
			}
			return os.ReadFile(file) //nolint:gosec // CLI tool reads user-specified files
		},
	}
	rendered := make([]diagnostic.Diagnostic, len(diags))
	for i, d := range diags {
		rendered[i] = diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Message:  d.Message,
			File:     d.File,
			Line:     d.Line,
		}
	}
	return r.RenderAll(stderr, rendered)
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintJSON, "json", false,
		"Output diagnostics as JSON.")
	lintCmd.Flags().StringArrayVar(&lintExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}
