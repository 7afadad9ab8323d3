// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentSignatureHelp handles textDocument/signatureHelp requests.
// It finds the enclosing function call at the cursor position, looks up
// its signature, and returns parameter hints.
func (s *Server) textDocumentSignatureHelp(_ *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	_, toks, _, _ := doc.snapshot()
	name, argIdx := enclosingCall(toks, int(params.Position.Line), int(params.Position.Character))
	if name == "" {
		return nil, nil
	}
	info := s.lookupSymbol(doc, name)
	if info == nil || !info.callable() {
		return nil, nil
	}
	return buildSignatureHelp(info, argIdx), nil
}

type callFrame struct {
	head   string
	elems  int
	quoted bool
}

// enclosingCall finds the innermost unquoted list containing the 0-based
// position whose first element is a symbol.  It returns the symbol and the
// 0-based index of the argument at the position, or ("", 0) if the
// position is not inside a call.
func enclosingCall(toks []lexToken, line, col int) (string, int) {
	var stack []*callFrame
	quote := false
	var last lexToken
	for _, tok := range toks {
		if !before(tok.Line, tok.Col, line, col) {
			break
		}
		last = tok
		var top *callFrame
		if len(stack) > 0 {
			top = stack[len(stack)-1]
		}
		switch tok.Kind {
		case tokQuote:
			quote = true
			continue
		case tokOpen:
			if top != nil {
				top.elems++
			}
			stack = append(stack, &callFrame{quoted: quote})
		case tokClose:
			if top != nil {
				stack = stack[:len(stack)-1]
			}
		default:
			if top != nil {
				if top.elems == 0 && tok.Kind == tokSymbol && !quote {
					top.head = tok.Text
				}
				top.elems++
			}
		}
		quote = false
	}
	if len(stack) == 0 {
		return "", 0
	}
	top := stack[len(stack)-1]
	if top.quoted || top.head == "" {
		return "", 0
	}
	idx := top.elems - 1
	end := tokenRange(last).End
	if last.Kind == tokSymbol && int(end.Line) == line && int(end.Character) == col {
		idx--
	}
	if idx < 0 {
		// The cursor is on the function name.
		return "", 0
	}
	return top.head, idx
}

// buildSignatureHelp constructs an LSP SignatureHelp for a function and
// active argument index.  Arguments past a &rest marker are all assigned
// to the &rest parameter.
func buildSignatureHelp(info *symbolInfo, argIdx int) *protocol.SignatureHelp {
	label := info.signature()

	var params []protocol.ParameterInformation
	var active []int // parameter index for each argument position
	rest := -1
	offset := len("(") + len(info.Name) + len(" ")
	for _, p := range info.Params {
		start := offset
		offset += len(p) + 1
		switch p {
		case "&optional":
			continue
		case "&rest":
			rest = len(params)
			continue
		}
		params = append(params, protocol.ParameterInformation{
			Label: []protocol.UInteger{safeUint(start), safeUint(start + len(p))},
		})
		active = append(active, len(params)-1)
	}

	ap := 0
	switch {
	case argIdx < len(active):
		ap = active[argIdx]
	case rest >= 0 && rest < len(params):
		ap = rest
	case len(params) > 0:
		ap = len(params) - 1
	}
	activeParam := uint32(ap) // #nosec G115 -- bounded by the parameter count

	sigInfo := protocol.SignatureInformation{
		Label:      label,
		Parameters: params,
	}
	if info.Doc != "" {
		sigInfo.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: info.Doc,
		}
	}
	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{sigInfo},
		ActiveSignature: uintPtr(0),
		ActiveParameter: &activeParam,
	}
}

func uintPtr(v uint32) *uint32 {
	return &v
}
