// Copyright © 2018 The ELPS authors

package lisp

import "fmt"

// NativeFn is the Go implementation of a builtin function or special form.
// Args is a view of the argument frame on the evaluation stack; the
// evaluator drops the frame after the function returns, so the arguments
// stay reachable for the duration of the call.  Special forms receive
// their argument forms unevaluated.
type NativeFn func(rt *Runtime, args []Object) Object

// FuncKind distinguishes the callable variants of a Function.
type FuncKind uint8

// Possible FuncKind values.
const (
	FuncNative FuncKind = iota
	FuncSpecial
	FuncLisp
)

var funcKindStrings = []string{
	FuncNative:  "builtin",
	FuncSpecial: "special",
	FuncLisp:    "function",
}

func (k FuncKind) String() string {
	if int(k) >= len(funcKindStrings) {
		return "INVALID"
	}
	return funcKindStrings[k]
}

// Function is a callable value.  Functions without an arglist are
// unchecked: they receive whatever arguments the caller supplied.
type Function struct {
	Kind    FuncKind
	Name    Object // a symbol or nil
	Arglist Object
	Checked bool
	Native  NativeFn
	Body    []Object
	// Scope holds the namespace frames captured when a Lisp function was
	// created, outermost first.
	Scope []Object
	Doc   string

	sig *signature
}

func (f *Function) markChildren(gray []Object) []Object {
	gray = append(gray, f.Name, f.Arglist)
	gray = append(gray, f.Body...)
	return append(gray, f.Scope...)
}

// Arity returns the minimum and maximum number of arguments accepted by f.
// Max is -1 when the function takes &rest arguments or is unchecked.
func (f *Function) Arity() (min, max int) {
	if f.sig == nil {
		return 0, -1
	}
	return f.sig.arity()
}

// signature is a parsed arglist.
type signature struct {
	required []Object
	optional []Object
	rest     Object
	hasRest  bool
}

func (s *signature) arity() (min, max int) {
	min = len(s.required)
	if s.hasRest {
		return min, -1
	}
	return min, min + len(s.optional)
}

const (
	markerOptional = "&optional"
	markerRest     = "&rest"
)

// parseArglist parses a lambda list of symbols with optional &optional and
// &rest markers.  It returns an error Object when the list is malformed.
func (rt *Runtime) parseArglist(arglist Object) (*signature, Object) {
	sig := &signature{}
	const (
		stateRequired = iota
		stateOptional
		stateRest
		stateDone
	)
	state := stateRequired
	for cur := arglist; cur != Nil; {
		if !cur.IsCons() {
			return nil, rt.ImproperList()
		}
		cell := rt.ConsCell(cur)
		cur = cell.Cdr
		param := cell.Car
		if !param.IsSymbol() {
			return nil, rt.WrongType(TSymbol, param)
		}
		name := rt.Symbol(param).Name
		switch {
		case name == markerOptional:
			if state != stateRequired {
				return nil, rt.Errorf("arglist-error", "misplaced %s", markerOptional)
			}
			state = stateOptional
			continue
		case name == markerRest:
			if state == stateRest || state == stateDone {
				return nil, rt.Errorf("arglist-error", "misplaced %s", markerRest)
			}
			state = stateRest
			continue
		case name == "nil" || name == "t" || rt.Symbol(param).IsKeyword():
			return nil, rt.Errorf("arglist-error", "%s cannot be a parameter", name)
		}
		switch state {
		case stateRequired:
			sig.required = append(sig.required, param)
		case stateOptional:
			sig.optional = append(sig.optional, param)
		case stateRest:
			sig.rest = param
			sig.hasRest = true
			state = stateDone
		default:
			return nil, rt.Errorf("arglist-error", "more than one %s parameter", markerRest)
		}
	}
	if state == stateRest {
		return nil, rt.Errorf("arglist-error", "%s without a parameter", markerRest)
	}
	return sig, Nil
}

// NewNativeFunc allocates a builtin function.  Formals lists the parameter
// names; a nil formals slice makes the function unchecked.
func (rt *Runtime) NewNativeFunc(name string, formals []string, fn NativeFn) (Object, Object) {
	return rt.newNative(FuncNative, name, formals, fn)
}

// NewSpecialForm allocates a special form.
func (rt *Runtime) NewSpecialForm(name string, formals []string, fn NativeFn) (Object, Object) {
	return rt.newNative(FuncSpecial, name, formals, fn)
}

func (rt *Runtime) newNative(kind FuncKind, name string, formals []string, fn NativeFn) (Object, Object) {
	f := &Function{
		Kind:    kind,
		Name:    rt.Intern(name),
		Arglist: Nil,
		Native:  fn,
	}
	if formals != nil {
		params := make([]Object, len(formals))
		for i := range formals {
			params[i] = rt.Intern(formals[i])
		}
		f.Arglist = rt.List(params...)
		sig, lerr := rt.parseArglist(f.Arglist)
		if lerr != Nil {
			return Nil, lerr
		}
		f.sig = sig
		f.Checked = true
	}
	return rt.Heap.alloc(tagFunction, f), Nil
}

// NewLispFunc allocates a Lisp function closing over the current scope.
// A leading string in a body of more than one form is the docstring.
func (rt *Runtime) NewLispFunc(name Object, arglist Object, body []Object) Object {
	sig, lerr := rt.parseArglist(arglist)
	if lerr != Nil {
		return lerr
	}
	f := &Function{
		Kind:    FuncLisp,
		Name:    name,
		Arglist: arglist,
		Checked: true,
		Body:    body,
		Scope:   append([]Object(nil), rt.scope...),
		sig:     sig,
	}
	if len(body) > 1 && body[0].IsString() {
		f.Doc = rt.Text(body[0])
		f.Body = body[1:]
	}
	return rt.Heap.alloc(tagFunction, f)
}

// FunName returns a printable name for the function o.
func (rt *Runtime) FunName(o Object) string {
	f := rt.Function(o)
	if f.Name.IsSymbol() {
		return rt.Symbol(f.Name).Name
	}
	if f.Kind == FuncLisp {
		return "lambda"
	}
	return fmt.Sprintf("anonymous-%s", f.Kind)
}
