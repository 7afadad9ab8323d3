// Copyright © 2018 The ELPS authors

// Package lisplib is used to conveniently load the standard library into a
// runtime.
package lisplib

import (
	"bytes"
	"fmt"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/libbase64"
	"github.com/luthersystems/rlisp/lisp/lisplib/libhelp"
	"github.com/luthersystems/rlisp/lisp/lisplib/libmath"
	"github.com/luthersystems/rlisp/lisp/lisplib/libregexp"
	"github.com/luthersystems/rlisp/lisp/lisplib/libstring"
	"github.com/luthersystems/rlisp/lisp/lisplib/libtime"
	"github.com/luthersystems/rlisp/parser"
)

// LoadLibrary binds the standard library in the global namespace of rt.
func LoadLibrary(rt *lisp.Runtime) lisp.Object {
	e := libhelp.LoadPackage(rt)
	if e != lisp.Nil {
		return e
	}
	e = libmath.LoadPackage(rt)
	if e != lisp.Nil {
		return e
	}
	e = libstring.LoadPackage(rt)
	if e != lisp.Nil {
		return e
	}
	e = libregexp.LoadPackage(rt)
	if e != lisp.Nil {
		return e
	}
	e = libbase64.LoadPackage(rt)
	if e != lisp.Nil {
		return e
	}
	e = libtime.LoadPackage(rt)
	if e != lisp.Nil {
		return e
	}
	return lisp.Nil
}

// NewDocRuntime creates a runtime with the standard library loaded,
// suitable for documentation queries.  Output is discarded.
func NewDocRuntime(config ...lisp.Config) (*lisp.Runtime, error) {
	config = append([]lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStderr(&bytes.Buffer{}),
		lisp.WithStdout(&bytes.Buffer{}),
	}, config...)
	rt, err := lisp.NewRuntime(config...)
	if err != nil {
		return nil, err
	}
	if rc := LoadLibrary(rt); rc != lisp.Nil {
		return nil, fmt.Errorf("load-library returned non-nil: %v", rt.Format(rc))
	}
	return rt, nil
}
