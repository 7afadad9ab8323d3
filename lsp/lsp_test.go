// Copyright © 2024 The ELPS authors

package lsp

import (
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testURI = "file:///test.lisp"

// testServer creates a server whose documentation runtime has the
// standard library loaded.
func testServer() *Server {
	return New()
}

// openDoc opens a document in the test server and returns it.
func openDoc(s *Server, uri, content string) *Document {
	return s.docs.Open(uri, 1, content)
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *[]*protocol.PublishDiagnosticsParams) {
	var captured []*protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

// completionLabels extracts labels from a completion result.
func completionLabels(t *testing.T, result any) []string {
	t.Helper()
	require.NotNil(t, result, "completion result should not be nil")
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func position(line, col int) protocol.Position {
	return protocol.Position{Line: safeUint(line), Character: safeUint(col)}
}

func docPosition(uri string, line, col int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     position(line, col),
	}
}

// --- Scanning ---

func TestScanTokens(t *testing.T) {
	toks := scanTokens("(defun f (x) ; comment\n  \"a \\\" b\" 'x)")
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"(", "defun", "f", "(", "x", ")", `"a \" b"`, "'", "x", ")"}, texts)

	assert.Equal(t, tokSymbol, toks[1].Kind)
	assert.Equal(t, 0, toks[1].Line)
	assert.Equal(t, 1, toks[1].Col)
	assert.Equal(t, tokString, toks[6].Kind)
	assert.Equal(t, 1, toks[6].Line)
	assert.Equal(t, 2, toks[6].Col)
	assert.Equal(t, tokQuote, toks[7].Kind)
}

func TestScanTokensUnterminatedString(t *testing.T) {
	toks := scanTokens(`(print "abc`)
	require.Len(t, toks, 3)
	assert.Equal(t, tokString, toks[2].Kind)
	assert.Equal(t, `"abc`, toks[2].Text)
}

func TestTopLevelForms(t *testing.T) {
	forms := topLevelForms(scanTokens("(a (b))\n(c)\n(d (e"))
	require.Len(t, forms, 3)
	assert.True(t, forms[0].Closed)
	assert.Len(t, forms[0].Tokens, 6)
	assert.True(t, forms[1].Closed)
	assert.Equal(t, 1, forms[1].Start.Line)
	assert.False(t, forms[2].Closed)
	assert.Equal(t, "e", forms[2].Stop.Text)
}

func TestWordAtPosition(t *testing.T) {
	content := "(defun my-func (x y)\n  (+ x y))"
	assert.Equal(t, "defun", wordAtPosition(content, 0, 1))
	assert.Equal(t, "my-func", wordAtPosition(content, 0, 7))
	assert.Equal(t, "+", wordAtPosition(content, 1, 3))
	assert.Equal(t, "", wordAtPosition(content, 0, 0))
	assert.Equal(t, "my-add", wordAtPosition("(my-add", 0, 7))
	assert.Equal(t, "", wordAtPosition(content, 9, 0))
}

func TestPrefixAtPosition(t *testing.T) {
	assert.Equal(t, "my-", prefixAtPosition("(my-add 1)", 0, 4))
	assert.Equal(t, "", prefixAtPosition("(my-add 1)", 0, 0))
	assert.Equal(t, "math:", prefixAtPosition("(math:", 0, 6))
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/tmp/a.lisp", uriToPath("file:///tmp/a.lisp"))
	assert.Equal(t, "file:///tmp/a.lisp", pathToURI("/tmp/a.lisp"))
	assert.Equal(t, "untitled:1", uriToPath("untitled:1"))
}

// --- Documents ---

func TestDocumentDefinitions(t *testing.T) {
	s := testServer()
	doc := openDoc(s, testURI, `(defun add (x y)
  "Adds x and y."
  (+ x y))
(defvar limit 10)
(setq counter 0)
(defun bare () "not a docstring")
(print 1)`)
	_, _, _, defs := doc.snapshot()
	require.Len(t, defs, 4)

	assert.Equal(t, "add", defs[0].Name)
	assert.Equal(t, defFunction, defs[0].Kind)
	assert.Equal(t, []string{"x", "y"}, defs[0].Params)
	assert.Equal(t, "Adds x and y.", defs[0].Doc)
	assert.Equal(t, 0, defs[0].NameTok.Line)
	assert.Equal(t, 7, defs[0].NameTok.Col)

	assert.Equal(t, "limit", defs[1].Name)
	assert.Equal(t, defVariable, defs[1].Kind)
	assert.Equal(t, "counter", defs[2].Name)

	assert.Equal(t, "bare", defs[3].Name)
	assert.Empty(t, defs[3].Doc, "a lone string body is the return value")
	assert.NoError(t, doc.parseErr)
}

func TestDocumentDefinitionsAfterSyntaxError(t *testing.T) {
	s := testServer()
	doc := openDoc(s, testURI, "(defun ok1 () 1)\n(print )) \n(defun ok2 () 2)\n(defun broken (")
	require.Error(t, doc.parseErr)
	_, _, _, defs := doc.snapshot()
	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"ok1", "ok2"}, names)
}

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	store.Open("file:///b.lisp", 1, "(defvar b 1)")
	store.Open("file:///a.lisp", 1, "(defvar a 1)")
	docs := store.All()
	require.Len(t, docs, 2)
	assert.Equal(t, "file:///a.lisp", docs[0].URI)

	doc := store.Change("file:///a.lisp", 2, "(defvar a2 1)")
	assert.Equal(t, int32(2), doc.Version)
	assert.NotNil(t, doc.lookup("a2"))
	assert.Nil(t, doc.lookup("a"))

	store.Close("file:///a.lisp")
	assert.Nil(t, store.Get("file:///a.lisp"))
	assert.Len(t, store.All(), 1)
}

// --- Diagnostics ---

func TestDiagnosticsOnOpen(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Version: 1, Text: "(defun f (x) (+ x 1))"},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	assert.Equal(t, testURI, (*captured)[0].URI)
	assert.Empty(t, (*captured)[0].Diagnostics)
}

func TestDiagnosticsParseError(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Version: 1, Text: "(defun foo (x)\n  (+ x 1)"},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	diags := (*captured)[0].Diagnostics

	var sources []string
	for _, d := range diags {
		require.NotNil(t, d.Source)
		sources = append(sources, *d.Source)
		require.NotNil(t, d.Severity)
		assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	}
	assert.Contains(t, sources, "rlisp")
	assert.Contains(t, sources, "rlisp-lint")

	for _, d := range diags {
		if *d.Source == "rlisp-lint" {
			assert.Equal(t, `unclosed "("`, d.Message)
			assert.Equal(t, position(0, 0), d.Range.Start)
			assert.Equal(t, position(0, 1), d.Range.End)
		}
	}
}

func TestStructureDiagnostics(t *testing.T) {
	diags := structureDiagnostics(scanTokens("(a))\n(b"))
	require.Len(t, diags, 2)
	assert.Equal(t, `unexpected ")"`, diags[0].Message)
	assert.Equal(t, position(0, 3), diags[0].Range.Start)
	assert.Equal(t, `unclosed "("`, diags[1].Message)
	assert.Equal(t, position(1, 0), diags[1].Range.Start)

	assert.Empty(t, structureDiagnostics(scanTokens(`(a ")" (b))`)))
}

func TestDiagnosticsClearedOnClose(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	s.captureNotify(ctx)
	openDoc(s, testURI, "(a")
	err := s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	assert.Empty(t, (*captured)[0].Diagnostics)
	assert.Nil(t, s.docs.Get(testURI))
}

func TestDiagnosticsOnSave(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	openDoc(s, testURI, "(a))")
	err := s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	assert.NotEmpty(t, (*captured)[0].Diagnostics)
}

func TestDidChangeUpdatesDocument(t *testing.T) {
	s := testServer()
	ctx := mockContext()
	openDoc(s, testURI, "(defvar a 1)")
	err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "(defvar b 2)"},
		},
	})
	require.NoError(t, err)
	doc := s.docs.Get(testURI)
	require.NotNil(t, doc)
	assert.NotNil(t, doc.lookup("b"))
	require.NoError(t, s.shutdown(ctx))
}

// --- Hover ---

func TestHoverUserFunction(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun add (x y)\n  \"Adds x and y.\"\n  (+ x y))\n(add 1 2)")
	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: docPosition(testURI, 3, 2),
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content := hover.Contents.(protocol.MarkupContent)
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Contains(t, content.Value, "**function** `add`")
	assert.Contains(t, content.Value, "(add x y)")
	assert.Contains(t, content.Value, "Adds x and y.")
	assert.Contains(t, content.Value, "*Defined on line 1*")
	require.NotNil(t, hover.Range)
	assert.Equal(t, position(3, 1), hover.Range.Start)
}

func TestHoverBuiltin(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(car '(1 2))")
	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 2),
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content := hover.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "**builtin** `car`")
	assert.Contains(t, content.Value, "(car lis)")
	assert.Contains(t, content.Value, "Returns the first element")
}

func TestHoverVariadicBuiltin(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(list 1 2)")
	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 1),
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.(protocol.MarkupContent).Value, "(list &rest args)")
}

func TestHoverNothing(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(undefined-thing 1)")
	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 3),
	})
	require.NoError(t, err)
	assert.Nil(t, hover)

	hover, err = s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: docPosition("file:///missing.lisp", 0, 0),
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestHoverWithLibrary(t *testing.T) {
	s := New(WithLibrary(func(rt *lisp.Runtime) lisp.Object {
		fn, lerr := rt.NewNativeFunc("embedded-fn", []string{"a"}, func(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
			return args[0]
		})
		if lerr != lisp.Nil {
			return lerr
		}
		rt.Define(rt.Intern("embedded-fn"), fn)
		return lisp.Nil
	}))
	openDoc(s, testURI, "(embedded-fn 1)")
	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 2),
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.(protocol.MarkupContent).Value, "(embedded-fn a)")
}

// --- Definition ---

func TestDefinitionSameDocument(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun helper () 1)\n(helper)")
	result, err := s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 2),
	})
	require.NoError(t, err)
	loc, ok := result.(protocol.Location)
	require.True(t, ok, "expected Location, got %T", result)
	assert.Equal(t, testURI, loc.URI)
	assert.Equal(t, position(0, 7), loc.Range.Start)
	assert.Equal(t, position(0, 13), loc.Range.End)
}

func TestDefinitionOtherDocument(t *testing.T) {
	s := testServer()
	openDoc(s, "file:///lib.lisp", "(defvar shared 1)")
	openDoc(s, testURI, "(print shared)")
	result, err := s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 8),
	})
	require.NoError(t, err)
	loc, ok := result.(protocol.Location)
	require.True(t, ok)
	assert.Equal(t, "file:///lib.lisp", loc.URI)
}

func TestDefinitionBuiltin(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(car x)")
	result, err := s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 1),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

// --- References ---

func TestReferences(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun f (x) x)\n(f 1)\n(f 'f)")
	openDoc(s, "file:///other.lisp", "(f 2)")

	params := &protocol.ReferenceParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 1),
		Context:                    protocol.ReferenceContext{IncludeDeclaration: true},
	}
	locs, err := s.textDocumentReferences(mockContext(), params)
	require.NoError(t, err)
	assert.Len(t, locs, 5)

	params.Context.IncludeDeclaration = false
	locs, err = s.textDocumentReferences(mockContext(), params)
	require.NoError(t, err)
	assert.Len(t, locs, 4)
	for _, loc := range locs {
		assert.False(t, loc.URI == testURI && loc.Range.Start == position(0, 7))
	}
}

// --- Document symbols ---

func TestDocumentSymbols(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun add (x y)\n  (+ x y))\n(defvar limit 3)")
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, symbols, 2)

	assert.Equal(t, "add", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[0].Kind)
	require.NotNil(t, symbols[0].Detail)
	assert.Equal(t, "(add x y)", *symbols[0].Detail)
	assert.Equal(t, position(0, 0), symbols[0].Range.Start)
	assert.Equal(t, position(1, 10), symbols[0].Range.End)
	assert.Equal(t, position(0, 7), symbols[0].SelectionRange.Start)

	assert.Equal(t, "limit", symbols[1].Name)
	assert.Equal(t, protocol.SymbolKindVariable, symbols[1].Kind)
	assert.Nil(t, symbols[1].Detail)
}

// --- Completion ---

func TestCompletion(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun my-add (x y) (+ x y))\n(defvar my-var 1)\n(my-")
	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: docPosition(testURI, 2, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"my-add", "my-var"}, completionLabels(t, result))

	items := result.([]protocol.CompletionItem)
	require.NotNil(t, items[0].Kind)
	assert.Equal(t, protocol.CompletionItemKindFunction, *items[0].Kind)
	require.NotNil(t, items[0].Detail)
	assert.Equal(t, "(my-add x y)", *items[0].Detail)
	assert.Equal(t, protocol.CompletionItemKindVariable, *items[1].Kind)
}

func TestCompletionBuiltins(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(ca")
	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 3),
	})
	require.NoError(t, err)
	labels := completionLabels(t, result)
	assert.Contains(t, labels, "car")
	assert.Contains(t, labels, "catch-error")
	for _, l := range labels {
		assert.Equal(t, "ca", l[:2])
	}

	items := result.([]protocol.CompletionItem)
	for _, item := range items {
		if item.Label == "catch-error" {
			assert.Equal(t, protocol.CompletionItemKindKeyword, *item.Kind)
		}
	}
}

func TestCompletionPackagePrefix(t *testing.T) {
	items := []protocol.CompletionItem{
		{Label: "math:sqrt"}, {Label: "math:abs"}, {Label: "string:join"}, {Label: "car"},
	}
	assert.Equal(t, []string{"math:", "string:"}, packagePrefixes(items))
}

// --- Rename ---

func TestRename(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun old (x) x)\n(old 1)")
	openDoc(s, "file:///other.lisp", "(old 2)")

	edit, err := s.textDocumentRename(mockContext(), &protocol.RenameParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 2),
		NewName:                    "renamed",
	})
	require.NoError(t, err)
	require.NotNil(t, edit)
	assert.Len(t, edit.Changes[testURI], 2)
	assert.Len(t, edit.Changes["file:///other.lisp"], 1)
	for _, edits := range edit.Changes {
		for _, e := range edits {
			assert.Equal(t, "renamed", e.NewText)
		}
	}
}

func TestRenameRejected(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun old (x) x)\n(car 1)")

	_, err := s.textDocumentRename(mockContext(), &protocol.RenameParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 1),
		NewName:                    "kar",
	})
	assert.Error(t, err, "builtins are not renameable")

	_, err = s.textDocumentRename(mockContext(), &protocol.RenameParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 8),
		NewName:                    "bad name",
	})
	assert.Error(t, err)
}

func TestPrepareRename(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun old (x) x)\n(car 1)")

	result, err := s.textDocumentPrepareRename(mockContext(), &protocol.PrepareRenameParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 8),
	})
	require.NoError(t, err)
	rp, ok := result.(*protocol.RangeWithPlaceholder)
	require.True(t, ok)
	assert.Equal(t, "old", rp.Placeholder)
	assert.Equal(t, position(0, 7), rp.Range.Start)

	result, err = s.textDocumentPrepareRename(mockContext(), &protocol.PrepareRenameParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 1),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestValidSymbol(t *testing.T) {
	assert.True(t, validSymbol("foo-bar"))
	assert.True(t, validSymbol("math:sqrt"))
	assert.False(t, validSymbol(""))
	assert.False(t, validSymbol("a b"))
	assert.False(t, validSymbol("(x"))
}

// --- Signature help ---

func TestEnclosingCall(t *testing.T) {
	tests := []struct {
		content string
		col     int
		name    string
		idx     int
	}{
		{"(greet ", 7, "greet", 0},
		{"(greet a ", 9, "greet", 1},
		{"(greet a", 8, "greet", 0},
		{"(greet", 6, "", 0},
		{"(f (g x) ", 9, "f", 1},
		{"(f (g x", 7, "g", 0},
		{"'(f ", 4, "", 0},
		{"((f) ", 5, "", 0},
		{"(f) ", 4, "", 0},
	}
	for _, tc := range tests {
		name, idx := enclosingCall(scanTokens(tc.content), 0, tc.col)
		assert.Equal(t, tc.name, name, "content %q", tc.content)
		assert.Equal(t, tc.idx, idx, "content %q", tc.content)
	}
}

func TestSignatureHelp(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defun greet (name &optional greeting &rest more) name)\n(greet \"a\" \"b\" 1 2)")

	help, err := s.textDocumentSignatureHelp(mockContext(), &protocol.SignatureHelpParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 7),
	})
	require.NoError(t, err)
	require.NotNil(t, help)
	require.Len(t, help.Signatures, 1)
	sig := help.Signatures[0]
	assert.Equal(t, "(greet name &optional greeting &rest more)", sig.Label)
	require.Len(t, sig.Parameters, 3)
	assert.Equal(t, []protocol.UInteger{7, 11}, sig.Parameters[0].Label)
	require.NotNil(t, help.ActiveParameter)
	assert.Equal(t, uint32(0), *help.ActiveParameter)

	help, err = s.textDocumentSignatureHelp(mockContext(), &protocol.SignatureHelpParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 17),
	})
	require.NoError(t, err)
	require.NotNil(t, help)
	assert.Equal(t, uint32(2), *help.ActiveParameter, "extra arguments map to the rest parameter")
}

func TestSignatureHelpBuiltin(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(nth 1 ")
	help, err := s.textDocumentSignatureHelp(mockContext(), &protocol.SignatureHelpParams{
		TextDocumentPositionParams: docPosition(testURI, 0, 7),
	})
	require.NoError(t, err)
	require.NotNil(t, help)
	assert.Equal(t, "(nth n lis)", help.Signatures[0].Label)
	assert.Equal(t, uint32(1), *help.ActiveParameter)
}

func TestSignatureHelpVariable(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "(defvar v 1)\n(v ")
	help, err := s.textDocumentSignatureHelp(mockContext(), &protocol.SignatureHelpParams{
		TextDocumentPositionParams: docPosition(testURI, 1, 3),
	})
	require.NoError(t, err)
	assert.Nil(t, help)
}

// --- Folding ---

func TestFoldingRanges(t *testing.T) {
	s := testServer()
	openDoc(s, testURI, "; a\n; b\n(defun f (x)\n  (let ((y x))\n    y))\n(g)")
	ranges, err := s.textDocumentFoldingRange(mockContext(), &protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	var regions, comments [][2]protocol.UInteger
	for _, r := range ranges {
		require.NotNil(t, r.Kind)
		span := [2]protocol.UInteger{r.StartLine, r.EndLine}
		if *r.Kind == string(protocol.FoldingRangeKindComment) {
			comments = append(comments, span)
		} else {
			regions = append(regions, span)
		}
	}
	assert.Equal(t, [][2]protocol.UInteger{{0, 1}}, comments)
	assert.ElementsMatch(t, [][2]protocol.UInteger{{3, 4}, {2, 4}}, regions)
}

// --- Workspace symbols ---

func TestWorkspaceSymbols(t *testing.T) {
	s := testServer()
	openDoc(s, "file:///a.lisp", "(defun parse-input (x) x)\n(defvar input-limit 3)")
	openDoc(s, "file:///b.lisp", "(defun render (x) x)")

	results, err := s.workspaceSymbol(mockContext(), &protocol.WorkspaceSymbolParams{Query: "INPUT"})
	require.NoError(t, err)
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"parse-input", "input-limit"}, names)

	results, err = s.workspaceSymbol(mockContext(), &protocol.WorkspaceSymbolParams{Query: ""})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

// --- Lifecycle ---

func TestInitialize(t *testing.T) {
	s := testServer()
	root := "file:///project"
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, serverName, init.ServerInfo.Name)
	assert.NotNil(t, init.Capabilities.CompletionProvider)
	assert.NotNil(t, init.Capabilities.SignatureHelpProvider)
	assert.Equal(t, root, s.rootURI)
}

func TestExitHandler(t *testing.T) {
	s := testServer()
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.exit(mockContext()))
	assert.Equal(t, 0, code)
}
