// Copyright © 2018 The ELPS authors

package dapserver

import (
	"fmt"

	"github.com/google/go-dap"
	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/x/debugger"
)

// threadID is the single thread ID used for rlisp (single-threaded
// interpreter).
const threadID = 1

// Scope references encode the frame ID and the scope kind as
// frameID<<2 | kind.  References to expandable values start at
// valueRefBase.
const (
	scopeArguments = 1
	scopeLocals    = 2
	scopeGlobals   = 3

	valueRefBase = 1 << 24
)

func scopeRef(frameID int, kind int) int {
	return frameID<<2 | kind
}

func decodeScopeRef(ref int) (frameID int, kind int) {
	return ref >> 2, ref & 3
}

// translateStackFrames converts call frames to DAP stack frames, most
// recent first.  Frame IDs are 1-based positions counted from the bottom
// of the stack, so an ID stays valid while the frames below it are
// unchanged.
func translateStackFrames(stack *lisp.CallStack) []dap.StackFrame {
	if stack == nil || len(stack.Frames) == 0 {
		return nil
	}
	frames := make([]dap.StackFrame, 0, len(stack.Frames))
	for i := len(stack.Frames) - 1; i >= 0; i-- {
		f := &stack.Frames[i]
		sf := dap.StackFrame{
			Id:   i + 1,
			Name: f.String(),
		}
		if f.Kind != lisp.FuncLisp {
			sf.PresentationHint = "subtle"
		}
		frames = append(frames, sf)
	}
	return frames
}

// frameAt returns the frame with the given ID or nil.
func frameAt(stack *lisp.CallStack, id int) *lisp.CallFrame {
	if id < 1 || id > len(stack.Frames) {
		return nil
	}
	return &stack.Frames[id-1]
}

// translateBreakpoints converts function breakpoints to DAP breakpoints.
// Every function breakpoint is verified since functions are looked up by
// name when they are called.
func translateBreakpoints(bps []*debugger.Breakpoint) []dap.Breakpoint {
	out := make([]dap.Breakpoint, len(bps))
	for i, bp := range bps {
		out[i] = dap.Breakpoint{
			Id:       bp.ID,
			Verified: true,
		}
	}
	return out
}

// translateVariables converts scope bindings to DAP variables.  allocRef
// assigns a variable reference to expandable values.
func translateVariables(rt *lisp.Runtime, bindings []debugger.ScopeBinding, allocRef func(lisp.Object) int) []dap.Variable {
	vars := make([]dap.Variable, len(bindings))
	for i, b := range bindings {
		vars[i] = translateVariable(rt, b.Name, b.Value, allocRef)
	}
	return vars
}

func translateVariable(rt *lisp.Runtime, name string, v lisp.Object, allocRef func(lisp.Object) int) dap.Variable {
	dv := dap.Variable{
		Name:  name,
		Value: debugger.FormatValue(rt, v),
		Type:  debugger.TypeName(rt, v),
	}
	if v.IsCons() {
		dv.VariablesReference = allocRef(v)
		dv.IndexedVariables = listLength(rt, v)
	}
	return dv
}

// expandVariable returns the elements of the list v.  The tail of a dotted
// list is named "tail".
func expandVariable(rt *lisp.Runtime, v lisp.Object, allocRef func(lisp.Object) int) []dap.Variable {
	var vars []dap.Variable
	for i := 0; v.IsCons(); i++ {
		cell := rt.ConsCell(v)
		vars = append(vars, translateVariable(rt, fmt.Sprintf("[%d]", i), cell.Car, allocRef))
		v = cell.Cdr
	}
	if v != lisp.Nil {
		vars = append(vars, translateVariable(rt, "tail", v, allocRef))
	}
	return vars
}

// listLength counts the cons cells of v.
func listLength(rt *lisp.Runtime, v lisp.Object) int {
	n := 0
	for ; v.IsCons(); n++ {
		v = rt.ConsCell(v).Cdr
	}
	return n
}

// translateCompletions converts completion candidates to DAP completion
// items.
func translateCompletions(candidates []debugger.CompletionCandidate) []dap.CompletionItem {
	items := make([]dap.CompletionItem, len(candidates))
	for i, c := range candidates {
		items[i] = dap.CompletionItem{
			Label: c.Label,
			Type:  dap.CompletionItemType(c.Type),
		}
	}
	return items
}
