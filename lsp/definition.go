// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.  A
// name defined in the same document is preferred to definitions in other
// open documents.  Builtins have no navigable source.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	_, toks, _, _ := doc.snapshot()
	tok, ok := symbolAt(toks, int(params.Position.Line), int(params.Position.Character))
	if !ok {
		return nil, nil
	}
	if def := doc.lookup(tok.Text); def != nil {
		return protocol.Location{URI: doc.URI, Range: tokenRange(def.NameTok)}, nil
	}
	for _, other := range s.docs.All() {
		if def := other.lookup(tok.Text); def != nil {
			return protocol.Location{URI: other.URI, Range: tokenRange(def.NameTok)}, nil
		}
	}
	return nil, nil
}
