// Copyright © 2018 The ELPS authors

// Package rlisptest runs lisp expressions in tests.
package rlisptest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib"
	"github.com/luthersystems/rlisp/parser"
)

// NewRuntime returns a runtime with the standard library loaded.  Runtime
// diagnostics go to the test log.  Additional config is applied after the
// defaults.
func NewRuntime(t testing.TB, config ...lisp.Config) *lisp.Runtime {
	logger := NewLogger(t)
	t.Cleanup(logger.Flush)
	config = append([]lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStderr(logger),
		lisp.WithStdout(logger),
	}, config...)
	rt, err := lisp.NewRuntime(config...)
	if err != nil {
		t.Fatalf("failed to initialize lisp runtime: %v", err)
	}
	if err := rt.GoError(lisplib.LoadLibrary(rt)); err != nil {
		t.Fatalf("failed to load library: %v", err)
	}
	return rt
}

func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := parser.Parse("test", buf)
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// RunFile loads the lisp file at path in a fresh runtime and fails the test
// if loading produces an error.
func RunFile(t *testing.T, path string, config ...lisp.Config) {
	rt := NewRuntime(t, config...)
	source, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		t.Errorf("Unable to read test file: %v", err)
		return
	}
	err = rt.GoError(rt.Load(filepath.Base(path), bytes.NewReader(source)))
	if err != nil {
		LispError(t, err)
	}
}

// LispError reports err, with its lisp stack trace when it has one.
func LispError(t testing.TB, err error) {
	lerr, ok := err.(*lisp.ErrorVal)
	if !ok {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// TestSequence is a sequence of lisp expressions which are evaluated
// sequentially by a lisp.Runtime.
type TestSequence []struct {
	Expr   string // a lisp expression
	Result string // the printed result
	Output string // output written to Runtime.Stdout
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs each TestSequence in tests on an isolated runtime.
// Config is applied to each runtime.
func RunTestSuite(t *testing.T, tests TestSuite, config ...lisp.Config) {
	for i, test := range tests {
		var exprBuf bytes.Buffer
		logger := NewLogger(t)
		cfg := append([]lisp.Config{
			lisp.WithStdout(io.MultiWriter(logger, &exprBuf)),
		}, config...)
		rt := NewRuntime(t, cfg...)
		for j, expr := range test.TestSequence {
			exprBuf.Reset()
			v, err := rt.Reader.Read(rt, "test", strings.NewReader(expr.Expr))
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(v) == 0 {
				t.Errorf("test %d %q: expr %d: no expression parsed", i, test.Name, j)
				continue
			}
			if len(v) != 1 {
				t.Errorf("test %d %q: expr %d: more than one expression parsed (%d)", i, test.Name, j, len(v))
				continue
			}
			result := rt.Format(rt.Eval(v[0]))
			rt.CleanStack()
			if result != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, result)
			}
			if exprBuf.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, exprBuf.String())
			}
		}
		logger.Flush()
	}
}

// RunBenchmark runs a standard benchmark that evaluates the expressions in
// source on a fresh runtime for each iteration.
func RunBenchmark(b *testing.B, source string, config ...lisp.Config) {
	b.StopTimer()
	config = append([]lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStderr(io.Discard),
		lisp.WithStdout(io.Discard),
	}, config...)
	for i := 0; i < b.N; i++ {
		rt, err := lisp.NewRuntime(config...)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		if err := rt.GoError(rt.LoadString("benchmark", source)); err != nil {
			b.Fatal(err)
		}
		b.StopTimer()
	}
}
