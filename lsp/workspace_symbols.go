// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// workspaceSymbol handles the workspace/symbol request.  It returns the
// top level definitions of the open documents whose names contain the
// query, ignoring case.  An empty query returns all symbols.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	query := strings.ToLower(params.Query)
	var results []protocol.SymbolInformation
	for _, doc := range s.docs.All() {
		_, _, _, defs := doc.snapshot()
		for _, def := range defs {
			if !matchesQuery(def.Name, query) {
				continue
			}
			results = append(results, protocol.SymbolInformation{
				Name: def.Name,
				Kind: symbolKind(def.Kind),
				Location: protocol.Location{
					URI:   doc.URI,
					Range: tokenRange(def.NameTok),
				},
			})
		}
	}
	return results, nil
}

func matchesQuery(name, query string) bool {
	return query == "" || strings.Contains(strings.ToLower(name), query)
}
