// Copyright © 2018 The ELPS authors

package libstring

import (
	"bytes"
	"strings"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the prefix of the symbols bound by LoadPackage.
const DefaultPackageName = "string"

// LoadPackage binds the string functions in the global namespace of rt.
func LoadPackage(rt *lisp.Runtime) lisp.Object {
	for _, fn := range builtins {
		if e := rt.AddBuiltins(fn); e != lisp.Nil {
			return e
		}
	}
	return lisp.Nil
}

func fn(name string, formals []string, fun lisp.NativeFn, docs string) *libutil.Builtin {
	return libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, name), formals, fun, docs)
}

var builtins = []*libutil.Builtin{
	fn("lowercase", lisp.Formals("str"), builtinLower,
		`Returns str with all letters mapped to lower case.`),
	fn("uppercase", lisp.Formals("str"), builtinUpper,
		`Returns str with all letters mapped to upper case.`),
	fn("split", lisp.Formals("str", "sep"), builtinSplit,
		`Returns the list of substrings of str separated by sep.`),
	fn("join", lisp.Formals("list", "sep"), builtinJoin,
		`Returns the strings in list concatenated with sep between
		them.`),
	fn("concat", lisp.Formals(lisp.VarArgSymbol, "strs"), builtinConcat,
		`Returns the concatenation of its string arguments.`),
	fn("length", lisp.Formals("str"), builtinLength,
		`Returns the number of bytes in str.`),
}

func builtinLower(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	str := args[0]
	if !str.IsString() {
		return rt.WrongType(lisp.TString, str)
	}
	return rt.NewString(strings.ToLower(rt.Text(str)))
}

func builtinUpper(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	str := args[0]
	if !str.IsString() {
		return rt.WrongType(lisp.TString, str)
	}
	return rt.NewString(strings.ToUpper(rt.Text(str)))
}

func builtinSplit(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	str, sep := args[0], args[1]
	if !str.IsString() {
		return rt.WrongType(lisp.TString, str)
	}
	if !sep.IsString() {
		return rt.WrongType(lisp.TString, sep)
	}
	slice := strings.Split(rt.Text(str), rt.Text(sep))
	cells := make([]lisp.Object, len(slice))
	for i, s := range slice {
		cells[i] = rt.NewString(s)
	}
	return rt.List(cells...)
}

func builtinJoin(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	list, sep := args[0], args[1]
	if !list.IsList() {
		return rt.WrongType(lisp.TCons, list)
	}
	if !sep.IsString() {
		return rt.WrongType(lisp.TString, sep)
	}
	cells, lerr := rt.ListToSlice(list)
	if lerr != lisp.Nil {
		return lerr
	}
	var buf bytes.Buffer
	for i, cell := range cells {
		if !cell.IsString() {
			return rt.WrongType(lisp.TString, cell)
		}
		buf.WriteString(rt.Text(cell))
		if i < len(cells)-1 {
			buf.WriteString(rt.Text(sep))
		}
	}
	return rt.NewString(buf.String())
}

func builtinConcat(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	cells, lerr := rt.ListToSlice(args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	var buf bytes.Buffer
	for _, cell := range cells {
		if !cell.IsString() {
			return rt.WrongType(lisp.TString, cell)
		}
		buf.WriteString(rt.Text(cell))
	}
	return rt.NewString(buf.String())
}

func builtinLength(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	if !args[0].IsString() {
		return rt.WrongType(lisp.TString, args[0])
	}
	return lisp.Int(int32(len(rt.StringValue(args[0]).Bytes)))
}
