// Copyright © 2018 The ELPS authors

package debugger

import (
	"sort"
	"strings"

	"github.com/luthersystems/rlisp/lisp"
)

// CompletionCandidate is a single completion suggestion.
type CompletionCandidate struct {
	Label  string
	Type   string // "variable", "function" or "keyword"
	Detail string // where the name is bound
}

// CompleteInContext returns the names bound in the current scope of rt
// that begin with prefix, sorted by label.  Locals shadow globals.  An
// empty prefix returns no candidates.
func CompleteInContext(rt *lisp.Runtime, prefix string) []CompletionCandidate {
	if prefix == "" || rt == nil {
		return nil
	}

	seen := make(map[string]bool)
	var candidates []CompletionCandidate
	add := func(b ScopeBinding, detail string) {
		if seen[b.Name] || !strings.HasPrefix(b.Name, prefix) {
			return
		}
		seen[b.Name] = true
		candidates = append(candidates, CompletionCandidate{
			Label:  b.Name,
			Type:   completionType(b.Value),
			Detail: detail,
		})
	}

	for _, b := range InspectLocals(rt) {
		add(b, "local")
	}
	global := rt.Namespace(rt.Global())
	for _, sym := range global.Symbols(rt) {
		v, _ := global.Get(sym)
		detail := "global"
		if v.IsFunction() && rt.Function(v).Kind != lisp.FuncLisp {
			detail = "<" + rt.Function(v).Kind.String() + ">"
		}
		add(ScopeBinding{Name: rt.SymbolName(sym), Value: v}, detail)
	}
	for _, b := range inspectSpecials(rt) {
		add(b, "special")
	}
	if strings.HasPrefix(prefix, ":") {
		candidates = append(candidates, CompletionCandidate{
			Label:  prefix,
			Type:   "keyword",
			Detail: "keyword",
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Label < candidates[j].Label
	})
	return candidates
}

// ExtractPrefix returns the symbol being typed in text before the 1-based
// column.
func ExtractPrefix(text string, column int) string {
	pos := column - 1
	if pos < 0 {
		pos = 0
	}
	if pos > len(text) {
		pos = len(text)
	}

	start := pos
	for start > 0 {
		ch := text[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == ')' || ch == '\n' || ch == '\'' {
			break
		}
		start--
	}
	return text[start:pos]
}

func completionType(v lisp.Object) string {
	if v.IsFunction() {
		return "function"
	}
	return "variable"
}
