// Copyright © 2021 The ELPS authors

package libhelp_test

import (
	"bytes"
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib"
	"github.com/luthersystems/rlisp/lisp/lisplib/libhelp"
	"github.com/luthersystems/rlisp/rlisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *lisp.Runtime {
	t.Helper()
	rt, err := lisplib.NewDocRuntime()
	require.NoError(t, err)
	return rt
}

func TestDocstring(t *testing.T) {
	rt := newTestRuntime(t)

	for _, name := range []string{"mapcar", "lambda", "defun"} {
		fun := rt.GetSymbol(rt.Intern(name))
		if assert.True(t, fun.IsFunction()) {
			assert.NotEqual(t, "", rt.Function(fun).Doc)
		}
	}

	rc := rt.LoadString("test.lisp", `
	(defun const-string1 () "abc")
	(defun const-string2 () "abc" "")
	`)
	require.False(t, rc.IsError())

	lisp1 := rt.GetSymbol(rt.Intern("const-string1"))
	if assert.True(t, lisp1.IsFunction()) {
		assert.Equal(t, "", rt.Function(lisp1).Doc)
	}
	lisp2 := rt.GetSymbol(rt.Intern("const-string2"))
	if assert.True(t, lisp2.IsFunction()) {
		assert.Equal(t, "abc", rt.Function(lisp2).Doc)
	}
}

func TestRenderVar(t *testing.T) {
	rt := newTestRuntime(t)
	var buf bytes.Buffer
	require.NoError(t, libhelp.RenderVar(&buf, rt, "nth"))
	assert.Equal(t, "builtin (nth n lis)\n  Returns element n of lis, counting from zero. Signals\n  index-out-of-bounds-error when n is not a valid index.\n", buf.String())

	buf.Reset()
	require.NoError(t, libhelp.RenderVar(&buf, rt, "+"))
	assert.Contains(t, buf.String(), "builtin (+ &rest args)\n")

	buf.Reset()
	require.NoError(t, libhelp.RenderVar(&buf, rt, "math:pi"))
	assert.Equal(t, "float math:pi 3.141592653589793\n", buf.String())

	buf.Reset()
	err := libhelp.RenderVar(&buf, rt, "no-such-var")
	assert.EqualError(t, err, "symbol no-such-var is unbound")
}

func TestRenderLispFunction(t *testing.T) {
	rt := newTestRuntime(t)
	rc := rt.LoadString("test.lisp", `
	(defun add3 (a b &optional c)
	  "Adds up to three numbers."
	  (+ a b (if c c 0)))
	`)
	require.False(t, rc.IsError())
	var buf bytes.Buffer
	require.NoError(t, libhelp.RenderVar(&buf, rt, "add3"))
	assert.Equal(t, "function (add3 a b &optional c)\n  Adds up to three numbers.\n", buf.String())
}

func TestRenderPackage(t *testing.T) {
	rt := newTestRuntime(t)
	var buf bytes.Buffer
	require.NoError(t, libhelp.RenderPackage(&buf, rt, "string"))
	assert.Contains(t, buf.String(), "builtin (string:join list sep)")
	assert.NotContains(t, buf.String(), "math:")

	assert.Error(t, libhelp.RenderPackage(&buf, rt, "nosuchpackage"))
}

func TestCleanDocstring(t *testing.T) {
	doc := libhelp.CleanDocstring("\nFirst line.\n\t\tSecond line.\n")
	assert.Equal(t, "  First line.\n  Second line.", doc)
	assert.Equal(t, "", libhelp.CleanDocstring(""))
}

func TestHelpOp(t *testing.T) {
	var out bytes.Buffer
	rt := rlisptest.NewRuntime(t, lisp.WithStderr(&out))
	v := rt.LoadString("test", "(help car)")
	require.False(t, v.IsError(), rt.Format(v))
	assert.Contains(t, out.String(), "builtin (car lis)")
}
