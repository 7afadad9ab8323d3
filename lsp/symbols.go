// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	_, _, _, defs := doc.snapshot()
	symbols := make([]protocol.DocumentSymbol, 0, len(defs))
	for _, def := range defs {
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           def.Name,
			Detail:         symbolDetail(def),
			Kind:           symbolKind(def.Kind),
			Range:          spanRange(def.Form),
			SelectionRange: tokenRange(def.NameTok),
		})
	}
	return symbols, nil
}

// symbolDetail returns the signature of a function definition.
func symbolDetail(def *Definition) *string {
	if def.Kind != defFunction {
		return nil
	}
	s := definitionInfo(def).signature()
	return &s
}
