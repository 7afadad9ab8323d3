// Copyright © 2018 The ELPS authors

// Package libregexp binds regular expression matching over strings.
// Patterns use Go RE2 syntax and are compiled on each call.
package libregexp

import (
	"regexp"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the prefix of the symbols bound by LoadPackage.
const DefaultPackageName = "regexp"

// ErrInvalidPattern is the kind of the error signaled for a pattern that
// does not compile.
const ErrInvalidPattern = "invalid-regexp-pattern"

// LoadPackage binds the regexp functions in the global namespace of rt.
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
	fn("match?", lisp.Formals("pattern", "text"), builtinIsMatch,
		`Returns t if pattern matches some part of text. Signals
		invalid-regexp-pattern if pattern does not compile.`),
	fn("find", lisp.Formals("pattern", "text"), builtinFind,
		`Returns the leftmost match of pattern in text, or nil if there
		is none.`),
	fn("find-all", lisp.Formals("pattern", "text"), builtinFindAll,
		`Returns the list of successive non-overlapping matches of
		pattern in text.`),
	fn("submatch", lisp.Formals("pattern", "text"), builtinSubmatch,
		`Returns the leftmost match of pattern in text followed by the
		text of each capture group, or nil if there is no match.`),
	fn("replace", lisp.Formals("pattern", "text", "replacement"), builtinReplace,
		`Returns text with every match of pattern replaced by
		replacement. Inside replacement, $1 refers to the first capture
		group.`),
}

// compile returns the compiled pattern.  When the returned error Object is
// not nil the regexp is unusable.
func compile(rt *lisp.Runtime, patt lisp.Object) (*regexp.Regexp, lisp.Object) {
	if !patt.IsString() {
		return nil, rt.WrongType(lisp.TString, patt)
	}
	re, err := regexp.Compile(rt.Text(patt))
	if err != nil {
		return nil, rt.Errorf(ErrInvalidPattern, "%v", err)
	}
	return re, lisp.Nil
}

func textArg(rt *lisp.Runtime, v lisp.Object) (string, lisp.Object) {
	if !v.IsString() {
		return "", rt.WrongType(lisp.TString, v)
	}
	return rt.Text(v), lisp.Nil
}

func builtinIsMatch(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	re, lerr := compile(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	text, lerr := textArg(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	return lisp.Bool(re.MatchString(text))
}

func builtinFind(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	re, lerr := compile(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	text, lerr := textArg(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return lisp.Nil
	}
	return rt.NewString(text[loc[0]:loc[1]])
}

func builtinFindAll(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	re, lerr := compile(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	text, lerr := textArg(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	return stringList(rt, re.FindAllString(text, -1))
}

func builtinSubmatch(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	re, lerr := compile(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	text, lerr := textArg(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	return stringList(rt, re.FindStringSubmatch(text))
}

func builtinReplace(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	re, lerr := compile(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	text, lerr := textArg(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	repl, lerr := textArg(rt, args[2])
	if lerr != lisp.Nil {
		return lerr
	}
	return rt.NewString(re.ReplaceAllString(text, repl))
}

func stringList(rt *lisp.Runtime, strs []string) lisp.Object {
	cells := make([]lisp.Object, len(strs))
	for i, s := range strs {
		cells[i] = rt.NewString(s)
	}
	return rt.List(cells...)
}
