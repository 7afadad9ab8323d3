// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles the textDocument/references request.
// References are the occurrences of the name in the open documents.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	_, toks, _, _ := doc.snapshot()
	tok, ok := symbolAt(toks, int(params.Position.Line), int(params.Position.Character))
	if !ok {
		return nil, nil
	}

	var locs []protocol.Location
	for _, d := range s.docs.All() {
		def := d.lookup(tok.Text)
		for _, occ := range occurrences(d, tok.Text) {
			if !params.Context.IncludeDeclaration && def != nil && occ.Offset == def.NameTok.Offset {
				continue
			}
			locs = append(locs, protocol.Location{URI: d.URI, Range: tokenRange(occ)})
		}
	}
	return locs, nil
}

// occurrences returns the symbol tokens of doc spelled name.  Quoted
// symbols are included.
func occurrences(doc *Document, name string) []lexToken {
	_, toks, _, _ := doc.snapshot()
	var out []lexToken
	for _, t := range toks {
		if t.Kind == tokSymbol && t.Text == name {
			out = append(out, t)
		}
	}
	return out
}
