// Copyright © 2018 The ELPS authors

package debugger

import (
	"fmt"
	"sort"

	"github.com/luthersystems/rlisp/lisp"
)

// MaxValueLength bounds the printed length of values shown by the
// debugger.
const MaxValueLength = 200

// ScopeBinding is a single named value.
type ScopeBinding struct {
	Name  string
	Value lisp.Object
}

// InspectArguments returns the arguments of the call recorded by frame,
// named by the parameters of the function.  Arguments without a parameter
// name, such as the arguments of an unchecked function, are named by
// position.  Values bound to a &rest parameter are named rest[i].
func InspectArguments(rt *lisp.Runtime, frame *lisp.CallFrame) []ScopeBinding {
	args := rt.FrameArgs(frame)
	if len(args) == 0 {
		return nil
	}
	fixed, rest := paramNames(rt, frame.Fun)
	bindings := make([]ScopeBinding, len(args))
	for i, arg := range args {
		var name string
		switch {
		case i < len(fixed):
			name = fixed[i]
		case rest != "":
			name = fmt.Sprintf("%s[%d]", rest, i-len(fixed))
		default:
			name = fmt.Sprintf("[%d]", i)
		}
		bindings[i] = ScopeBinding{Name: name, Value: arg}
	}
	return bindings
}

// paramNames returns the required and optional parameter names of fun and
// the name of its &rest parameter.
func paramNames(rt *lisp.Runtime, fun lisp.Object) (fixed []string, rest string) {
	if !fun.IsFunction() {
		return nil, ""
	}
	params, lerr := rt.ListToSlice(rt.Function(fun).Arglist)
	if lerr != lisp.Nil {
		return nil, ""
	}
	inRest := false
	for _, p := range params {
		if !p.IsSymbol() {
			continue
		}
		switch name := rt.SymbolName(p); name {
		case "&optional":
		case "&rest":
			inRest = true
		default:
			if inRest {
				return fixed, name
			}
			fixed = append(fixed, name)
		}
	}
	return fixed, ""
}

// InspectLocals returns the bindings visible in the current scope of rt,
// excluding the global namespace.  Inner bindings shadow outer ones.
// Bindings are sorted by name.
func InspectLocals(rt *lisp.Runtime) []ScopeBinding {
	scope := rt.Scope()
	seen := make(map[string]bool)
	var bindings []ScopeBinding
	for i := len(scope) - 1; i >= 1; i-- {
		ns := rt.Namespace(scope[i])
		for _, sym := range ns.Symbols(rt) {
			name := rt.SymbolName(sym)
			if seen[name] {
				continue
			}
			seen[name] = true
			v, _ := ns.Get(sym)
			bindings = append(bindings, ScopeBinding{Name: name, Value: v})
		}
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Name < bindings[j].Name
	})
	return bindings
}

// InspectGlobals returns the global bindings defined by programs and the
// current values of special variables, sorted by name.  Builtins and
// special forms are omitted.
func InspectGlobals(rt *lisp.Runtime) []ScopeBinding {
	global := rt.Namespace(rt.Global())
	var bindings []ScopeBinding
	for _, sym := range global.Symbols(rt) {
		v, _ := global.Get(sym)
		if v.IsFunction() && rt.Function(v).Kind != lisp.FuncLisp {
			continue
		}
		bindings = append(bindings, ScopeBinding{Name: rt.SymbolName(sym), Value: v})
	}
	bindings = append(bindings, inspectSpecials(rt)...)
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Name < bindings[j].Name
	})
	return bindings
}

// inspectSpecials returns the bound special variables.
func inspectSpecials(rt *lisp.Runtime) []ScopeBinding {
	var bindings []ScopeBinding
	for _, sym := range rt.Specials() {
		v, ok := rt.Symbol(sym).Binding().Value()
		if !ok {
			continue
		}
		bindings = append(bindings, ScopeBinding{Name: rt.SymbolName(sym), Value: v})
	}
	return bindings
}

// FormatValue returns the printed representation of v, shortened to
// MaxValueLength bytes.
func FormatValue(rt *lisp.Runtime, v lisp.Object) string {
	s := rt.Format(v)
	if len(s) > MaxValueLength {
		return s[:MaxValueLength] + "..."
	}
	return s
}

// TypeName returns the type of v as the debugger displays it.
func TypeName(rt *lisp.Runtime, v lisp.Object) string {
	if v.IsFunction() {
		return rt.Function(v).Kind.String()
	}
	return v.Type().String()
}
