// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"strings"
	"time"

	"github.com/luthersystems/rlisp/parser"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const debounceDelay = 300 * time.Millisecond

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on a parse panic
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	// Cancel any pending debounce and publish immediately.
	s.debounceMu.Lock()
	if t, ok := s.debounce[params.TextDocument.URI]; ok {
		t.Stop()
		delete(s.debounce, params.TextDocument.URI)
	}
	s.debounceMu.Unlock()

	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}

	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	// Cancel pending debounce.
	s.debounceMu.Lock()
	if t, ok := s.debounce[params.TextDocument.URI]; ok {
		t.Stop()
		delete(s.debounce, params.TextDocument.URI)
	}
	s.debounceMu.Unlock()

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

// analyzeAndPublish publishes the syntax diagnostics of a document to the
// client.
func (s *Server) analyzeAndPublish(doc *Document) {
	doc.mu.Lock()
	parseErr := doc.parseErr
	content := doc.Content
	toks := doc.tokens
	uri := doc.URI
	doc.mu.Unlock()

	diags := []protocol.Diagnostic{}
	if parseErr != nil {
		diags = append(diags, protocol.Diagnostic{
			Range:    parseErrorRange(parseErr, content),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr("rlisp"),
			Message:  parseErr.Error(),
		})
	}
	diags = append(diags, structureDiagnostics(toks)...)

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// structureDiagnostics reports unmatched parentheses at their exact
// positions.
func structureDiagnostics(toks []lexToken) []protocol.Diagnostic {
	var diags []protocol.Diagnostic
	var open []lexToken
	for _, tok := range toks {
		switch tok.Kind {
		case tokOpen:
			open = append(open, tok)
		case tokClose:
			if len(open) == 0 {
				diags = append(diags, parenDiagnostic(tok, "unexpected \")\""))
				continue
			}
			open = open[:len(open)-1]
		}
	}
	for _, tok := range open {
		diags = append(diags, parenDiagnostic(tok, "unclosed \"(\""))
	}
	return diags
}

func parenDiagnostic(tok lexToken, msg string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    tokenRange(tok),
		Severity: severity(protocol.DiagnosticSeverityError),
		Source:   strPtr("rlisp-lint"),
		Message:  msg,
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

// parseErrorRange returns the range of the line a syntax error is reported
// on.
func parseErrorRange(err error, content string) protocol.Range {
	var serr *parser.SyntaxError
	if !errors.As(err, &serr) || serr.Line < 1 {
		return protocol.Range{}
	}
	line := serr.Line - 1
	lines := strings.Split(content, "\n")
	width := 0
	if line < len(lines) {
		width = len(lines[line])
	}
	return protocol.Range{
		Start: protocol.Position{Line: safeUint(line)},
		End:   protocol.Position{Line: safeUint(line), Character: safeUint(width)},
	}
}

func strPtr(s string) *string {
	return &s
}
