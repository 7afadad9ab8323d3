// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	_, toks, _, _ := doc.snapshot()
	tok, ok := symbolAt(toks, int(params.Position.Line), int(params.Position.Character))
	if !ok {
		return nil, nil
	}
	info := s.lookupSymbol(doc, tok.Text)
	if info == nil {
		return nil, nil
	}
	r := tokenRange(tok)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: buildHoverContent(info),
		},
		Range: &r,
	}, nil
}

// buildHoverContent builds Markdown hover text for a binding.
func buildHoverContent(info *symbolInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s`", info.Kind, info.Name)
	if info.callable() {
		fmt.Fprintf(&sb, "\n\n```lisp\n%s\n```", info.signature())
	}
	if info.Doc != "" {
		fmt.Fprintf(&sb, "\n\n%s", strings.TrimSpace(info.Doc))
	}
	if info.Def != nil {
		fmt.Fprintf(&sb, "\n\n*Defined on line %d*", info.Def.NameTok.Line+1)
	}
	return sb.String()
}
