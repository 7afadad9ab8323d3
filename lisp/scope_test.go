// Copyright © 2018 The ELPS authors

package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntern(t *testing.T) {
	rt := newTestRuntime(t)
	a := rt.Intern("a")
	assert.Equal(t, a, rt.Intern("a"))
	assert.NotEqual(t, a, rt.Intern("b"))
	assert.True(t, Eq(a, rt.Intern("a")))
	assert.Equal(t, "a", rt.SymbolName(a))
	assert.True(t, rt.Symbol(rt.Intern(":key")).IsKeyword())
	assert.False(t, rt.Symbol(rt.Intern(":")).IsKeyword())
}

func TestScopeShadowing(t *testing.T) {
	rt := newTestRuntime(t)
	x := rt.Intern("x")
	rt.Define(x, Int(1))

	inner := rt.NewNamespace(Nil)
	rt.Push(inner)
	rt.NewScope(inner)
	assert.Equal(t, Int(1), rt.GetSymbol(x))
	rt.Namespace(inner).Set(x, Int(2))
	assert.Equal(t, Int(2), rt.GetSymbol(x))

	rt.SetSymbol(x, Int(3))
	assert.Equal(t, Int(3), rt.GetSymbol(x))
	assert.Len(t, rt.Scope(), 2)

	rt.EndScope()
	rt.Pop()
	assert.Equal(t, Int(1), rt.GetSymbol(x))
}

func TestScopeSetUnboundDefinesGlobal(t *testing.T) {
	rt := newTestRuntime(t)
	y := rt.Intern("y")
	inner := rt.NewNamespace(Nil)
	rt.NewScope(inner)
	rt.SetSymbol(y, Int(5))
	rt.EndScope()
	v, ok := rt.Namespace(rt.Global()).Get(y)
	require.True(t, ok)
	assert.Equal(t, Int(5), v)
}

func TestScopeSelfEvaluating(t *testing.T) {
	rt := newTestRuntime(t)
	assert.Equal(t, Nil, rt.GetSymbol(rt.Intern("nil")))
	assert.Equal(t, T, rt.GetSymbol(rt.Intern("t")))
	key := rt.Intern(":key")
	assert.Equal(t, key, rt.GetSymbol(key))
}

func TestScopeUnbound(t *testing.T) {
	rt := newTestRuntime(t)
	z := rt.Intern("z")
	v := rt.GetSymbol(z)
	require.True(t, v.IsError())
	assert.Equal(t, "unbound-symbol-error", rt.ErrorName(v))
	assert.Equal(t, "symbol z is unbound", rt.ErrorMessage(v))
	assert.False(t, rt.IsBound(z))

	rt.Define(z, T)
	assert.True(t, rt.IsBound(z))
	rt.Unbind(z)
	assert.False(t, rt.IsBound(z))
}

func TestScopeSpecialVariable(t *testing.T) {
	rt := newTestRuntime(t)
	s := rt.Intern("*s*")
	rt.Define(s, Int(1))
	rt.declareSpecial(s)
	_, ok := rt.Namespace(rt.Global()).Get(s)
	assert.False(t, ok)
	assert.True(t, rt.Symbol(s).Special())
	assert.Equal(t, Int(1), rt.GetSymbol(s))

	b := rt.Symbol(s).Binding()
	b.Push(Int(2))
	assert.Equal(t, Int(2), rt.GetSymbol(s))
	rt.SetSymbol(s, Int(3))
	assert.Equal(t, Int(3), rt.GetSymbol(s))
	b.Pop()
	assert.Equal(t, Int(1), rt.GetSymbol(s))
	assert.Equal(t, 1, b.Depth())

	rt.Unbind(s)
	assert.False(t, rt.IsBound(s))
	assert.Equal(t, 1, b.Depth())
}

func TestEndScopeGlobalPanics(t *testing.T) {
	rt := newTestRuntime(t)
	assert.Panics(t, rt.EndScope)
	assert.Panics(t, func() { rt.NewScope(Int(1)) })
}

func TestBindingStack(t *testing.T) {
	var b Binding
	_, ok := b.Value()
	assert.False(t, ok)
	assert.Panics(t, b.Pop)

	b.Set(Int(1))
	b.PushUnbound()
	_, ok = b.Value()
	assert.False(t, ok)
	assert.Equal(t, 2, b.Depth())
	b.Pop()
	v, ok := b.Value()
	assert.True(t, ok)
	assert.Equal(t, Int(1), v)
}

func TestEvaluationStack(t *testing.T) {
	rt := newTestRuntime(t)
	assert.Panics(t, func() { rt.Pop() })
	rt.Push(Int(1))
	rt.Push(Int(2))
	assert.Equal(t, 2, rt.StackHeight())
	assert.Equal(t, Int(2), rt.Peek(0))
	assert.Equal(t, Int(1), rt.Peek(1))
	assert.Panics(t, func() { rt.Peek(2) })
	assert.Equal(t, Int(2), rt.Pop())
	rt.CleanStack()
	assert.Equal(t, 0, rt.StackHeight())
}

func TestCallStackOverflow(t *testing.T) {
	s := &CallStack{MaxHeight: 1}
	require.NoError(t, s.Push(CallFrame{Name: "f", Kind: FuncLisp}))
	err := s.Push(CallFrame{Name: "g", Kind: FuncLisp})
	var overflow *StackOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 1, overflow.Height)
	assert.Equal(t, 1, s.Height())
	assert.Equal(t, []string{"f"}, s.Names())
	s.Pop()
	assert.Nil(t, s.Top())
	assert.Panics(t, func() { s.Pop() })
}

func TestFrameArgs(t *testing.T) {
	rt := newTestRuntime(t)
	var args []Object
	fn, lerr := rt.NewNativeFunc("capture-args", []string{"a", "&rest", "more"}, func(rt *Runtime, _ []Object) Object {
		args = rt.FrameArgs(rt.Stack.Top())
		return Nil
	})
	require.Equal(t, Nil, lerr)
	rt.Define(rt.Intern("capture-args"), fn)

	form := rt.List(rt.Intern("capture-args"), Int(1), rt.List(rt.Intern("+"), Int(1), Int(2)), Int(4))
	assert.Equal(t, Nil, rt.Eval(form))
	assert.Equal(t, []Object{Int(1), Int(3), Int(4)}, args)

	assert.Equal(t, Nil, rt.Apply(fn, Int(7)))
	assert.Equal(t, []Object{Int(7)}, args)
	assert.Nil(t, rt.FrameArgs(&CallFrame{Height: 0}))
	assert.Nil(t, rt.FrameArgs(&CallFrame{Height: 100}))
}

func TestSpecials(t *testing.T) {
	rt := newTestRuntime(t)
	assert.Empty(t, rt.Specials())
	x := rt.Intern("*x*")
	rt.declareSpecial(x)
	rt.declareSpecial(x)
	assert.Equal(t, []Object{x}, rt.Specials())
}
