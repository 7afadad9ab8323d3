// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/libhelp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// symbolInfo describes a binding for hover, completion and signature help.
type symbolInfo struct {
	Name   string
	Kind   string // "function", "variable", "builtin" or "special"
	Params []string
	Doc    string
	// Def is set for bindings defined in a document.
	Def *Definition
}

// signature returns the call form of a function, such as "(nth n lis)".
func (si *symbolInfo) signature() string {
	if len(si.Params) == 0 {
		return "(" + si.Name + ")"
	}
	return "(" + si.Name + " " + strings.Join(si.Params, " ") + ")"
}

func (si *symbolInfo) callable() bool {
	return si.Kind != defVariable
}

// lookupSymbol resolves name, preferring definitions in doc to bindings
// in the documentation runtime.
func (s *Server) lookupSymbol(doc *Document, name string) *symbolInfo {
	if name == "" {
		return nil
	}
	if doc != nil {
		if def := doc.lookup(name); def != nil {
			return definitionInfo(def)
		}
	}
	var info *symbolInfo
	s.withRuntime(func(rt *lisp.Runtime) {
		global := rt.Namespace(rt.Global())
		for _, sym := range global.Symbols(rt) {
			if rt.SymbolName(sym) != name {
				continue
			}
			v, _ := global.Get(sym)
			info = runtimeInfo(rt, name, v)
			return
		}
	})
	return info
}

func definitionInfo(def *Definition) *symbolInfo {
	return &symbolInfo{
		Name:   def.Name,
		Kind:   def.Kind,
		Params: def.Params,
		Doc:    libhelp.CleanDocstring(def.Doc),
		Def:    def,
	}
}

// runtimeInfo describes the global binding of name to v.
func runtimeInfo(rt *lisp.Runtime, name string, v lisp.Object) *symbolInfo {
	info := &symbolInfo{Name: name, Kind: defVariable}
	if !v.IsFunction() {
		return info
	}
	f := rt.Function(v)
	info.Kind = f.Kind.String()
	info.Doc = libhelp.CleanDocstring(f.Doc)
	if !f.Checked {
		info.Params = []string{"&rest", "args"}
		return info
	}
	params, lerr := rt.ListToSlice(f.Arglist)
	if lerr != lisp.Nil {
		return info
	}
	for _, p := range params {
		if p.IsSymbol() {
			info.Params = append(info.Params, rt.SymbolName(p))
		}
	}
	return info
}

// completionKind maps a binding kind to an LSP completion item kind.
func completionKind(kind string) protocol.CompletionItemKind {
	switch kind {
	case defFunction, lisp.FuncNative.String():
		return protocol.CompletionItemKindFunction
	case lisp.FuncSpecial.String():
		return protocol.CompletionItemKindKeyword
	}
	return protocol.CompletionItemKindVariable
}

// symbolKind maps a definition kind to an LSP symbol kind.
func symbolKind(kind string) protocol.SymbolKind {
	if kind == defFunction {
		return protocol.SymbolKindFunction
	}
	return protocol.SymbolKindVariable
}
