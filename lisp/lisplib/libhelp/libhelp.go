// Copyright © 2021 The ELPS authors

package libhelp

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/internal/libutil"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultPackageName names the help functions in documentation listings.
const DefaultPackageName = "help"

// MissingDoc describes a function with no documentation.
type MissingDoc struct {
	// Kind is the kind of the function: "builtin", "special" or
	// "function".
	Kind string

	// Name is the name the function is bound to.
	Name string
}

// CheckMissing reports functions bound in the global namespace of rt that
// have no docstring.
func CheckMissing(rt *lisp.Runtime) []MissingDoc {
	var missing []MissingDoc
	global := rt.Namespace(rt.Global())
	for _, sym := range global.Symbols(rt) {
		v, _ := global.Get(sym)
		if !v.IsFunction() {
			continue
		}
		f := rt.Function(v)
		if strings.TrimSpace(f.Doc) == "" {
			missing = append(missing, MissingDoc{Kind: f.Kind.String(), Name: rt.SymbolName(sym)})
		}
	}
	return missing
}

// LoadPackage binds the help special forms in the global namespace of rt.
func LoadPackage(rt *lisp.Runtime) lisp.Object {
	for _, op := range ops {
		if e := rt.AddSpecialOps(op); e != lisp.Nil {
			return e
		}
	}
	return lisp.Nil
}

var ops = []*libutil.Builtin{
	libutil.FunctionDoc("help", lisp.Formals("var-name"), opHelp,
		`
		Prints documentation for the given variable name.  Functions have their
		signature and any docstring rendered.  Other variables have their types
		and current values printed.
		`),
	libutil.FunctionDoc("help-package", lisp.Formals("pkg-name"), opHelpPackage,
		`
		Prints documentation for every global binding whose name has the
		prefix pkg-name followed by a colon, such as math or string.
		`),
}

func opHelp(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	name := args[0]
	if !name.IsSymbol() {
		return rt.WrongType(lisp.TSymbol, name)
	}
	err := RenderVar(rt.Stderr, rt, rt.SymbolName(name))
	if err != nil {
		return rt.HostError(err)
	}
	return lisp.Nil
}

func opHelpPackage(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	name := args[0]
	if !name.IsSymbol() {
		return rt.WrongType(lisp.TSymbol, name)
	}
	err := RenderPackage(rt.Stderr, rt, rt.SymbolName(name))
	if err != nil {
		return rt.HostError(err)
	}
	return lisp.Nil
}

// RenderPackage writes to w documentation for every global binding named
// with the prefix pkg.  The exact formatting of the rendered documentation
// is subject to change.
func RenderPackage(w io.Writer, rt *lisp.Runtime, pkg string) error {
	prefix := pkg + ":"
	global := rt.Namespace(rt.Global())
	n := 0
	for _, sym := range global.Symbols(rt) {
		name := rt.SymbolName(sym)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if n > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		n++
		v, _ := global.Get(sym)
		if err := renderBinding(w, rt, name, v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if n == 0 {
		return fmt.Errorf("no package: %q", pkg)
	}
	return nil
}

// RenderVar writes to w formatted documentation for the object bound to
// sym in rt.  The exact formatting of the rendered documentation is subject
// to change.
func RenderVar(w io.Writer, rt *lisp.Runtime, sym string) error {
	v := rt.GetSymbol(rt.Intern(sym))
	if err := rt.GoError(v); err != nil {
		return err
	}
	return renderBinding(w, rt, sym, v)
}

func renderBinding(w io.Writer, rt *lisp.Runtime, sym string, v lisp.Object) error {
	if v.IsFunction() {
		return renderFun(w, rt, sym, v)
	}
	_, err := fmt.Fprintf(w, "%v %s %s\n", v.Type(), sym, rt.Format(v))
	return err
}

// Signature returns the call signature of the function v bound to sym,
// such as "(nth n lis)".
func Signature(rt *lisp.Runtime, sym string, v lisp.Object) string {
	f := rt.Function(v)
	if !f.Checked {
		return fmt.Sprintf("(%s &rest args)", sym)
	}
	if f.Arglist == lisp.Nil {
		return "(" + sym + ")"
	}
	args := rt.Format(f.Arglist)
	return "(" + sym + " " + args[1:]
}

func renderFun(w io.Writer, rt *lisp.Runtime, sym string, v lisp.Object) error {
	f := rt.Function(v)
	_, err := fmt.Fprintf(w, "%s %s\n", f.Kind, Signature(rt, sym, v))
	if err != nil {
		return fmt.Errorf("rendering signature: %w", err)
	}
	doc := CleanDocstring(f.Doc)
	if doc != "" {
		_, err = fmt.Fprintln(w, doc)
		return err
	}
	return nil
}

// CleanDocstring dedents doc and wraps it to 72 columns with a two space
// indent.
func CleanDocstring(doc string) string {
	if doc == "" {
		return ""
	}
	if doc[0] == '\n' {
		doc = doc[1:]
	}
	doc = indent.String(wordwrap.String(dedentDoc(doc), 72), 2)
	doc = strings.TrimSuffix(doc, "\n")
	return doc
}

// dedentDoc removes common leading whitespace from all non-empty lines.
// The first line of a raw string literal often has no indentation and is
// not considered.  Tabs are normalized to spaces.
func dedentDoc(s string) string {
	s = strings.ReplaceAll(s, "\t", "    ")
	lines := strings.Split(s, "\n")

	minWS := -1
	start := 0
	if len(lines) > 1 {
		start = 1
	}
	for _, line := range lines[start:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		ws := len(line) - len(trimmed)
		if minWS < 0 || ws < minWS {
			minWS = ws
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	if minWS <= 0 {
		return strings.Join(lines, "\n")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
		} else if len(lines[i]) >= minWS {
			lines[i] = lines[i][minWS:]
		}
	}
	return strings.Join(lines, "\n")
}
