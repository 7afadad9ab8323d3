// Copyright © 2018 The ELPS authors

package libutil

import "github.com/luthersystems/rlisp/lisp"

func Function(name string, formals []string, fun lisp.NativeFn) *Builtin {
	return &Builtin{name, formals, fun, ""}
}

func FunctionDoc(name string, formals []string, fun lisp.NativeFn, docs string) *Builtin {
	return &Builtin{name, formals, fun, docs}
}

type Builtin struct {
	name    string
	formals []string
	fun     lisp.NativeFn
	docs    string
}

var _ lisp.BuiltinDef = (*Builtin)(nil)

func (fun *Builtin) Name() string {
	return fun.name
}

func (fun *Builtin) Formals() []string {
	return fun.formals
}

func (fun *Builtin) Eval(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	return fun.fun(rt, args)
}

func (fun *Builtin) Docstring() string {
	return fun.docs
}

// Qualify returns name prefixed by a package name, the way library
// functions are bound in the global namespace.
func Qualify(pkg, name string) string {
	return pkg + ":" + name
}
