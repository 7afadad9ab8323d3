// Copyright © 2018 The ELPS authors

package debugger

import (
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/rlisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(candidates []CompletionCandidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Label
	}
	return out
}

func TestCompleteInContext_EmptyPrefix(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	assert.Nil(t, CompleteInContext(rt, ""))
	assert.Nil(t, CompleteInContext(nil, "car"))
}

func TestCompleteInContext_Globals(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	require.NoError(t, rt.GoError(rt.LoadString("test", `(setq my-var 1) (defun my-fun () my-var) (defvar my-special 2)`)))

	candidates := CompleteInContext(rt, "my-")
	require.Len(t, candidates, 3)
	assert.Equal(t, "my-fun", candidates[0].Label)
	assert.Equal(t, "function", candidates[0].Type)
	assert.Equal(t, "global", candidates[0].Detail)
	assert.Equal(t, "my-special", candidates[1].Label)
	assert.Equal(t, "special", candidates[1].Detail)
	assert.Equal(t, "my-var", candidates[2].Label)
	assert.Equal(t, "variable", candidates[2].Type)
}

func TestCompleteInContext_Builtins(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	candidates := CompleteInContext(rt, "ca")
	assert.Contains(t, labels(candidates), "car")
	assert.Contains(t, labels(candidates), "catch-error")
	for _, c := range candidates {
		switch c.Label {
		case "car":
			assert.Equal(t, "<builtin>", c.Detail)
		case "catch-error":
			assert.Equal(t, "<special>", c.Detail)
		}
	}
}

func TestCompleteInContext_Locals(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	var got []CompletionCandidate
	fn, lerr := rt.NewNativeFunc("complete-here", nil, func(rt *lisp.Runtime, _ []lisp.Object) lisp.Object {
		got = CompleteInContext(rt, "loc")
		return lisp.Nil
	})
	require.Equal(t, lisp.Nil, lerr)
	rt.Define(rt.Intern("complete-here"), fn)

	source := `(setq local-global 1) (let ((local-a 1) (local-global 2)) (complete-here))`
	require.NoError(t, rt.GoError(rt.LoadString("test", source)))
	require.Len(t, got, 2)
	assert.Equal(t, "local-a", got[0].Label)
	assert.Equal(t, "local", got[0].Detail)
	assert.Equal(t, "local-global", got[1].Label)
	assert.Equal(t, "local", got[1].Detail)
}

func TestCompleteInContext_Keyword(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	candidates := CompleteInContext(rt, ":key")
	require.Len(t, candidates, 1)
	assert.Equal(t, "keyword", candidates[0].Type)
}

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text   string
		column int
		want   string
	}{
		{"(car x)", 5, "car"},
		{"(car x)", 7, "x"},
		{"my-var", 7, "my-var"},
		{"(f 'sym", 8, "sym"},
		{"", 1, ""},
		{"abc", 0, ""},
		{"abc", 10, "abc"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExtractPrefix(tc.text, tc.column), "%q at %d", tc.text, tc.column)
	}
}
