// Copyright © 2018 The ELPS authors

package libutil

import (
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	fn := FunctionDoc("twice", lisp.Formals("x"), func(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
		return lisp.Int(2 * args[0].AsInt())
	}, "Doubles x.")
	assert.Equal(t, "twice", fn.Name())
	assert.Equal(t, []string{"x"}, fn.Formals())
	assert.Equal(t, "Doubles x.", fn.Docstring())

	rt, err := lisp.NewRuntime()
	require.NoError(t, err)
	require.Equal(t, lisp.Nil, rt.AddBuiltins(fn))
	v := rt.Apply(rt.GetSymbol(rt.Intern("twice")), lisp.Int(21))
	assert.Equal(t, lisp.Int(42), v)
	assert.Equal(t, "Doubles x.", rt.Function(rt.GetSymbol(rt.Intern("twice"))).Doc)
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "math:sqrt", Qualify("math", "sqrt"))
}
