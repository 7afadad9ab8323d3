// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCompletion handles the textDocument/completion request.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	content, _, _, defs := doc.snapshot()
	prefix := prefixAtPosition(content, int(params.Position.Line), int(params.Position.Character))

	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	add := func(info *symbolInfo) {
		if seen[info.Name] || !strings.HasPrefix(info.Name, prefix) {
			return
		}
		seen[info.Name] = true
		kind := completionKind(info.Kind)
		item := protocol.CompletionItem{
			Label: info.Name,
			Kind:  &kind,
		}
		if info.callable() {
			detail := info.signature()
			item.Detail = &detail
		}
		if info.Doc != "" {
			item.Documentation = &protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: strings.TrimSpace(info.Doc),
			}
		}
		items = append(items, item)
	}

	for _, def := range defs {
		add(definitionInfo(def))
	}
	s.withRuntime(func(rt *lisp.Runtime) {
		global := rt.Namespace(rt.Global())
		for _, sym := range global.Symbols(rt) {
			v, _ := global.Get(sym)
			add(runtimeInfo(rt, rt.SymbolName(sym), v))
		}
	})
	if prefix != "" {
		// Package prefixes such as "math:" for library functions.
		for _, pkg := range packagePrefixes(items) {
			if strings.HasPrefix(pkg, prefix) && !seen[pkg] {
				seen[pkg] = true
				kind := protocol.CompletionItemKindModule
				items = append(items, protocol.CompletionItem{Label: pkg, Kind: &kind})
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items, nil
}

// packagePrefixes returns the distinct "pkg:" prefixes of item labels.
func packagePrefixes(items []protocol.CompletionItem) []string {
	seen := make(map[string]bool)
	var pkgs []string
	for _, item := range items {
		i := strings.IndexByte(item.Label, ':')
		if i <= 0 {
			continue
		}
		pkg := item.Label[:i+1]
		if !seen[pkg] {
			seen[pkg] = true
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}
