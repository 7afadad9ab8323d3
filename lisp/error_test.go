// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	rt := newTestRuntime(t)
	tests := []struct {
		err  Object
		name string
		msg  string
	}{
		{rt.WrongType(TInt, rt.NewString("x")), "wrong-type-error", "expected type integer but found type string"},
		{rt.ArgsCount(1, 2, 2), "wrong-arg-count-error", "wanted 2 args but found 1"},
		{rt.ArgsCount(3, 1, 2), "wrong-arg-count-error", "wanted between 1 and 2 args but found 3"},
		{rt.ArgsCount(0, 1, -1), "wrong-arg-count-error", "wanted at least 1 args but found only 0"},
		{rt.ImproperList(), "improper-list-error", "found an improper list where a proper one was expected"},
		{rt.Undefined(rt.Intern("f")), "undefined-symbol-error", "symbol f is undefined"},
		{rt.IndexError(5, 2), "index-out-of-bounds-error", "index 5 out of bounds for length 2"},
		{rt.Errorf("my-error", "value %d", 3), "my-error", "my-error: value 3"},
	}
	for _, test := range tests {
		require.True(t, test.err.IsError())
		assert.Equal(t, test.name, rt.ErrorName(test.err))
		assert.Equal(t, test.msg, rt.ErrorMessage(test.err))
	}
}

func TestGoError(t *testing.T) {
	rt := newTestRuntime(t)
	assert.NoError(t, rt.GoError(Int(1)))

	lerr := rt.HostError(fs.ErrNotExist)
	err := rt.GoError(lerr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	var ev *ErrorVal
	require.ErrorAs(t, err, &ev)
	assert.Equal(t, "internal-error", ev.Name)

	// The Go error stays valid after the lisp value is collected.
	rt.Collect()
	assert.False(t, rt.Heap.Contains(lerr))
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestErrorTrace(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Stack.Push(CallFrame{Name: "outer", Kind: FuncLisp}))
	require.NoError(t, rt.Stack.Push(CallFrame{Name: "car", Kind: FuncNative}))
	err := rt.GoError(rt.Errorf("boom", "failed"))
	rt.Stack.Pop()
	rt.Stack.Pop()

	var ev *ErrorVal
	require.ErrorAs(t, err, &ev)
	assert.Equal(t, []string{"outer", "car (builtin)"}, ev.Stack)

	var buf bytes.Buffer
	_, werr := ev.WriteTrace(&buf)
	require.NoError(t, werr)
	assert.Equal(t, "boom: boom: failed\n"+
		"Stack Trace [most recent call last]:\n"+
		"  0: outer\n"+
		"  1: car (builtin)\n", buf.String())
}
