// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T, config ...Config) *Runtime {
	t.Helper()
	rt, err := NewRuntime(config...)
	require.NoError(t, err)
	return rt
}

func TestGCStackRoot(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Collect()
	base := rt.Heap.Live()

	kept := rt.Cons(Int(1), rt.Cons(Int(2), Nil))
	rt.Push(kept)
	garbage := rt.Cons(Int(3), Nil)
	require.True(t, rt.Heap.Contains(garbage))

	stats := rt.Collect()
	assert.Equal(t, 1, stats.Freed)
	assert.Equal(t, base+2, stats.Live)
	assert.True(t, rt.Heap.Contains(kept))
	assert.True(t, rt.Heap.Contains(rt.Cdr(kept)))
	assert.False(t, rt.Heap.Contains(garbage))
	assert.Equal(t, "(1 2)", rt.Format(kept))

	rt.Pop()
	stats = rt.Collect()
	assert.Equal(t, 2, stats.Freed)
	assert.Equal(t, base, rt.Heap.Live())
}

func TestGCScopeRoot(t *testing.T) {
	rt := newTestRuntime(t)
	sym := rt.Intern("kept")
	rt.Define(sym, rt.NewString("value"))
	ns := rt.NewNamespace(rt.Intern("inner"))
	rt.Namespace(ns).Set(rt.Intern("local"), rt.NewString("local value"))
	rt.NewScope(ns)

	rt.Collect()
	assert.Equal(t, `"value"`, rt.Format(rt.GetSymbol(sym)))
	assert.Equal(t, `"local value"`, rt.Format(rt.GetSymbol(rt.Intern("local"))))

	rt.EndScope()
	rt.Collect()
	assert.False(t, rt.Heap.Contains(ns))
}

func TestGCSweepsSymbols(t *testing.T) {
	rt := newTestRuntime(t)
	sym := rt.Intern("ephemeral")
	rt.Collect()
	assert.False(t, rt.Heap.Contains(sym))
	// A fresh symbol is allocated under the same name.
	again := rt.Intern("ephemeral")
	assert.True(t, rt.Heap.Contains(again))
	assert.Equal(t, "ephemeral", rt.SymbolName(again))
}

func TestGCSpecialVariableRoot(t *testing.T) {
	rt := newTestRuntime(t)
	sym := rt.Intern("*special*")
	rt.declareSpecial(sym)
	rt.Symbol(sym).Binding().Set(rt.NewString("dynamic"))
	rt.Collect()
	require.True(t, rt.Heap.Contains(sym))
	assert.Equal(t, `"dynamic"`, rt.Format(rt.GetSymbol(sym)))
}

func TestGCFreeListReuse(t *testing.T) {
	rt := newTestRuntime(t)
	garbage := rt.Cons(Int(1), Nil)
	rt.Collect()
	reused := rt.Cons(Int(2), Nil)
	assert.Equal(t, garbage.payload(), reused.payload())
	assert.Equal(t, Int(2), rt.Car(reused))
}

func TestGCThreshold(t *testing.T) {
	rt := newTestRuntime(t, WithGCThreshold(10))
	assert.Equal(t, 10, rt.Heap.Threshold())
	stats := rt.Collect()
	assert.Equal(t, 2*stats.Live, stats.Threshold)
	assert.Equal(t, 1, stats.Cycles)
	assert.Equal(t, stats, rt.GCStats())

	_, err := NewRuntime(WithGCThreshold(0))
	assert.Error(t, err)
}

func TestGCDueAtCheckpoint(t *testing.T) {
	rt := newTestRuntime(t, WithGCThreshold(1))
	before := rt.GCStats().Cycles
	rt.Cons(Int(1), Nil)
	require.True(t, rt.Heap.due)
	rt.Evaluate(Int(1))
	assert.Equal(t, before+1, rt.GCStats().Cycles)
	assert.False(t, rt.Heap.due)
}

func TestGCLogging(t *testing.T) {
	var buf bytes.Buffer
	rt := newTestRuntime(t, WithGCLogging(true), WithStderr(&buf))
	stats := rt.Collect()
	assert.Equal(t, stats.String()+"\n", buf.String())
	assert.Contains(t, buf.String(), "gc: cycle 1:")
}

func TestDanglingReferencePanics(t *testing.T) {
	rt := newTestRuntime(t)
	garbage := rt.Cons(Int(1), Nil)
	rt.Collect()
	assert.Panics(t, func() { rt.ConsCell(garbage) })
	assert.Panics(t, func() { rt.Symbol(Int(1)) })
}
