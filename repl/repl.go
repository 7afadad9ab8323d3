// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib"
	"github.com/luthersystems/rlisp/parser"
)

// DefaultHistoryFile is the name of the history file in the home directory.
const DefaultHistoryFile = ".rlisp_history"

type config struct {
	stdin       io.ReadCloser
	stdout      io.Writer
	stderr      io.Writer
	historyFile string
	noHistory   bool
	runtimeOpts []lisp.Config
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output of the REPL.  Results and errors
// are written to stderr.
func WithStderr(stderr io.Writer) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithStdout allows overriding the output of print functions.
func WithStdout(stdout io.Writer) Option {
	return func(c *config) {
		c.stdout = stdout
	}
}

// WithHistoryFile sets the file line history is persisted to.  An empty
// path disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.historyFile = path
		c.noHistory = path == ""
	}
}

// WithRuntimeConfig adds configuration for the runtime created by RunRepl.
func WithRuntimeConfig(cfg ...lisp.Config) Option {
	return func(c *config) {
		c.runtimeOpts = append(c.runtimeOpts, cfg...)
	}
}

// RunRepl runs a simple repl in a runtime with the standard library loaded.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	rtOpts := []lisp.Config{lisp.WithReader(parser.NewReader())}
	if cfg.stderr != nil {
		rtOpts = append(rtOpts, lisp.WithStderr(cfg.stderr))
	}
	if cfg.stdout != nil {
		rtOpts = append(rtOpts, lisp.WithStdout(cfg.stdout))
	}
	rtOpts = append(rtOpts, cfg.runtimeOpts...)

	rt, err := lisp.NewRuntime(rtOpts...)
	if err != nil {
		return fmt.Errorf("language initialization failure: %w", err)
	}
	if err := rt.GoError(lisplib.LoadLibrary(rt)); err != nil {
		return fmt.Errorf("stdlib initialization failure: %w", err)
	}
	return RunRuntime(rt, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunRuntime runs a simple repl that evaluates input in rt.  Input is read
// until its parentheses balance, so a form may span several lines.  The
// repl returns when its input is exhausted.
func RunRuntime(rt *lisp.Runtime, prompt, cont string, opts ...Option) error {
	cfg := newConfig(opts...)
	if cfg.stderr != nil {
		rt.Stderr = cfg.stderr
	}

	history := cfg.historyFile
	if history == "" && !cfg.noHistory {
		history = historyPath()
	}
	ensureHistoryFilePermissions(history)

	rlCfg := &readline.Config{
		Stdout:            rt.Stderr,
		Stderr:            rt.Stderr,
		Prompt:            prompt,
		HistoryFile:       history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{rt: rt},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(cont)
		}
		line, err := rl.ReadSlice()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			continue
		}
		if err != nil {
			if buf.Len() > 0 {
				evalPrint(rt, buf.String())
			}
			return nil
		}
		if len(bytes.TrimSpace(line)) == 0 && buf.Len() == 0 {
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
		if depth(buf.String()) > 0 {
			continue
		}
		evalPrint(rt, buf.String())
		buf.Reset()
	}
}

func evalPrint(rt *lisp.Runtime, src string) {
	out, err := rt.Rep([]byte(src))
	if err != nil {
		renderError(rt.Stderr, err)
		return
	}
	if out != "" {
		fmt.Fprintln(rt.Stderr, out) //nolint:errcheck // best-effort REPL output
	}
}

// renderError prints err with the lisp call stack it was raised in.
func renderError(w io.Writer, err error) {
	fmt.Fprintf(w, "ERROR: %v\n", err) //nolint:errcheck // best-effort error display
	var lerr *lisp.ErrorVal
	if !errors.As(err, &lerr) {
		return
	}
	for i := len(lerr.Stack) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "  in %s\n", lerr.Stack[i]) //nolint:errcheck // best-effort error display
	}
}

// depth returns the number of unclosed parentheses in src.  Parentheses
// inside strings and comments are not counted.
func depth(src string) int {
	n := 0
	inString, escaped, inComment := false, false, false
	for _, c := range src {
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == ';':
			inComment = true
		case c == '(':
			n++
		case c == ')':
			n--
		}
	}
	if inString {
		// An unterminated string continues on the next line.
		return n + 1
	}
	return n
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultHistoryFile)
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600) //#nosec G304
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}
