// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// renameTarget returns the symbol at the position if it may be renamed.
// Only names defined in an open document are renameable.
func (s *Server) renameTarget(uri string, pos protocol.Position) (lexToken, bool) {
	doc := s.docs.Get(uri)
	if doc == nil {
		return lexToken{}, false
	}
	_, toks, _, _ := doc.snapshot()
	tok, ok := symbolAt(toks, int(pos.Line), int(pos.Character))
	if !ok {
		return lexToken{}, false
	}
	for _, d := range s.docs.All() {
		if d.lookup(tok.Text) != nil {
			return tok, true
		}
	}
	return lexToken{}, false
}

// textDocumentPrepareRename validates that the symbol under the cursor
// is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	tok, ok := s.renameTarget(params.TextDocument.URI, params.Position)
	if !ok {
		// A nil result tells the client the symbol cannot be renamed.
		return nil, nil
	}
	return &protocol.RangeWithPlaceholder{
		Range:       tokenRange(tok),
		Placeholder: tok.Text,
	}, nil
}

// textDocumentRename handles the textDocument/rename request by replacing
// every occurrence of the name in the open documents.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	tok, ok := s.renameTarget(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, fmt.Errorf("no renameable symbol at position")
	}
	if !validSymbol(params.NewName) {
		return nil, fmt.Errorf("invalid symbol name: %q", params.NewName)
	}
	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	for _, d := range s.docs.All() {
		for _, occ := range occurrences(d, tok.Text) {
			changes[d.URI] = append(changes[d.URI], protocol.TextEdit{
				Range:   tokenRange(occ),
				NewText: params.NewName,
			})
		}
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

func validSymbol(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isSymbolChar(name[i]) {
			return false
		}
	}
	return true
}
