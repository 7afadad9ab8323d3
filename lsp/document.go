// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"sync"

	"github.com/luthersystems/rlisp/parser"
)

// Kinds of Definition.
const (
	defFunction = "function"
	defVariable = "variable"
)

// Definition is a top level binding made by a document.
type Definition struct {
	Name   string
	Kind   string
	Params []string
	Doc    string
	// NameTok is the token naming the binding.
	NameTok lexToken
	// Form is the defining form.
	Form formSpan
}

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	tokens   []lexToken
	forms    []formSpan
	defs     []*Definition
	parseErr error
}

// parse scans the document content and collects its definitions.  The
// document is parsed as a whole to find syntax errors, and each top level
// form is parsed on its own so that definitions after an error are still
// found.
func (d *Document) parse() {
	path := uriToPath(d.URI)
	_, d.parseErr = parser.Parse(path, []byte(d.Content))
	d.tokens = scanTokens(d.Content)
	d.forms = topLevelForms(d.tokens)
	d.defs = nil
	for _, f := range d.forms {
		if !f.Closed {
			continue
		}
		data, err := parser.Parse(path, []byte(d.Content[f.Start.Offset:f.Stop.End]))
		if err != nil || len(data) != 1 {
			continue
		}
		if def := definitionOf(data[0], f); def != nil {
			d.defs = append(d.defs, def)
		}
	}
}

// definitionOf returns the binding made by a top level form or nil.
func definitionOf(form *parser.Datum, span formSpan) *Definition {
	if form.Kind != parser.DatumList || len(form.Items) < 2 {
		return nil
	}
	head, name := form.Items[0], form.Items[1]
	if head.Kind != parser.DatumSymbol || name.Kind != parser.DatumSymbol {
		return nil
	}
	// Tokens are "(", head, name, ...
	if len(span.Tokens) < 3 || span.Tokens[2].Kind != tokSymbol {
		return nil
	}
	def := &Definition{
		Name:    name.Text,
		NameTok: span.Tokens[2],
		Form:    span,
	}
	switch head.Text {
	case "defun":
		def.Kind = defFunction
		if len(form.Items) > 2 {
			def.Params = paramNames(form.Items[2])
		}
		if len(form.Items) > 4 && form.Items[3].Kind == parser.DatumString {
			def.Doc = form.Items[3].Text
		}
	case "defvar", "setq":
		def.Kind = defVariable
	default:
		return nil
	}
	return def
}

func paramNames(arglist *parser.Datum) []string {
	if arglist.Kind != parser.DatumList {
		return nil
	}
	var names []string
	for _, p := range arglist.Items {
		if p.Kind == parser.DatumSymbol {
			names = append(names, p.Text)
		}
	}
	return names
}

// snapshot returns the parsed state of the document.
func (d *Document) snapshot() (content string, toks []lexToken, forms []formSpan, defs []*Definition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Content, d.tokens, d.forms, d.defs
}

// lookup returns the first definition of name in the document.
func (d *Document) lookup(name string) *Definition {
	_, _, _, defs := d.snapshot()
	for _, def := range defs {
		if def.Name == name {
			return def
		}
	}
	return nil
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns the open documents ordered by URI.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}
