// Copyright © 2018 The ELPS authors

// Package parser provides the lisp reader.
//
//	expr     := '(' <expr>* ')' | '(' <expr>+ '.' <expr> ')' | '\'' <expr>
//	          | <number> | <string> | <symbol> | <comment>
//	number   := /[+-]?[0-9]+/ <fraction>? <exponent>?
//	          | '+inf.0' | '-inf.0' | '+nan.0'
//	fraction := '.' /[0-9]+/
//	exponent := e /[+-]?[0-9]+/
//	string   := '"' <strcontent> '"'
//	comment  := ';' <any character but newline>*
//
// Integers outside the 32-bit range are read as floats, and decimals
// outside the float64 range as infinities.  The symbols nil and t are read
// as the boolean constants.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/luthersystems/rlisp/lisp"
	parsec "github.com/prataprc/goparsec"
)

// NewReader returns a lisp.Reader.
func NewReader() lisp.Reader {
	return &parsecReader{}
}

type parsecReader struct{}

func (p *parsecReader) Read(rt *lisp.Runtime, name string, r io.Reader) ([]lisp.Object, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err := Parse(name, b)
	if err != nil {
		return nil, err
	}
	forms := make([]lisp.Object, len(data))
	for i, d := range data {
		forms[i] = d.object(rt)
	}
	return forms, nil
}

// SyntaxError describes malformed source text.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Parse parses every top level form in text.  The result is independent of
// any runtime; Datum.object allocates it.
func Parse(name string, text []byte) ([]*Datum, error) {
	p := &parseState{name: name, text: text}
	var data []*Datum
	s := parsec.NewScanner(text)
	expr := p.grammar()
	root, s := expr(s)
	for root != nil {
		d, err := p.top(root)
		if err != nil {
			return nil, err
		}
		if d != nil {
			data = append(data, d)
		}
		root, s = expr(s)
	}
	_, s = s.SkipWS()
	if !s.Endof() {
		b, _ := s.Match(`.{1,16}`)
		if len(b) > 15 {
			b = append(b[:15:15], []byte("...")...)
		}
		return nil, p.errorf(s.GetCursor(), "unexpected source text possibly starting: %s", b)
	}
	return data, nil
}

// DatumKind is the syntactic category of a Datum.
type DatumKind uint

// Possible DatumKind values.
const (
	DatumInt DatumKind = iota
	DatumFloat
	DatumString
	DatumSymbol
	DatumList
	DatumQuote
)

// Datum is a form read from source text before it is allocated in a
// runtime.
type Datum struct {
	Kind  DatumKind
	Text  string
	Int   int32
	Float float64
	Items []*Datum
	// Tail is the final cdr of a dotted list.
	Tail *Datum
	Line int
}

func (d *Datum) object(rt *lisp.Runtime) lisp.Object {
	switch d.Kind {
	case DatumInt:
		return lisp.Int(d.Int)
	case DatumFloat:
		return lisp.Float(d.Float)
	case DatumString:
		return rt.NewString(d.Text)
	case DatumSymbol:
		switch d.Text {
		case "nil":
			return lisp.Nil
		case "t":
			return lisp.T
		}
		return rt.Intern(d.Text)
	case DatumQuote:
		return rt.List(rt.Intern("quote"), d.Items[0].object(rt))
	}
	tail := lisp.Nil
	if d.Tail != nil {
		tail = d.Tail.object(rt)
	}
	for i := len(d.Items) - 1; i >= 0; i-- {
		tail = rt.Cons(d.Items[i].object(rt), tail)
	}
	return tail
}

type parseState struct {
	name string
	text []byte
}

func (p *parseState) line(pos int) int {
	if pos > len(p.text) {
		pos = len(p.text)
	}
	return bytes.Count(p.text[:pos], []byte("\n")) + 1
}

func (p *parseState) errorf(pos int, format string, v ...interface{}) *SyntaxError {
	return &SyntaxError{p.name, p.line(pos), fmt.Sprintf(format, v...)}
}

func (p *parseState) grammar() parsec.Parser {
	openP := parsec.Atom("(", "OPENP")
	closeP := parsec.Atom(")", "CLOSEP")
	q := parsec.Atom("'", "QUOTE")
	comment := parsec.Token(`;[^\n]*`, "COMMENT")
	decimal := parsec.Token(`[+-]?[0-9]+([.][0-9]+)?([eE][+-]?[0-9]+)?`, "DECIMAL")
	symbol := parsec.Token(`(?:(?:\pL|[._+\-*/\=<>!&~%?$])(?:\pL|[0-9]|[._+\-*/\=<>!&~%?$])*)?[:]?(?:\pL|[._+\-*/\=<>!&~%?$])(?:\pL|[0-9]|[._+\-*/\=<>!&~%?$])*`, "SYMBOL")
	term := parsec.OrdChoice(p.termNode,
		parsec.String(),
		decimal,
		symbol, // symbol comes last because it swallows anything
	)
	var expr parsec.Parser
	exprList := parsec.Kleene(nil, &expr)
	sexpr := parsec.And(p.listNode, openP, exprList, closeP)
	sexprUnmatched := parsec.And(p.unmatchedNode, openP, exprList, parsec.End())
	qexpr := parsec.And(p.quoteNode, q, &expr)
	expr = parsec.OrdChoice(firstNode,
		comment,
		term,
		sexpr,
		qexpr,
		// error cases come last because they have the lowest precedence
		sexprUnmatched,
	)
	return expr
}

// top converts a parsed root into a Datum.  Comments yield nil.
func (p *parseState) top(root parsec.ParsecNode) (*Datum, error) {
	switch n := root.(type) {
	case *Datum:
		return n, nil
	case error:
		return nil, n
	case *parsec.Terminal:
		if n.GetName() == "COMMENT" {
			return nil, nil
		}
		return nil, p.errorf(n.Position, "unexpected %q", n.GetValue())
	}
	return nil, &SyntaxError{p.name, 0, fmt.Sprintf("unexpected parse node %T", root)}
}

// firstNode unwraps the single node matched by an ordered choice.
func firstNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	return nodes[0]
}

// flatten returns the data and the first error found in nodes.  Comments
// and delimiters are dropped.
func flatten(nodes []parsec.ParsecNode) ([]*Datum, error) {
	var data []*Datum
	for _, n := range nodes {
		switch node := n.(type) {
		case *Datum:
			data = append(data, node)
		case error:
			return nil, node
		case []parsec.ParsecNode:
			sub, err := flatten(node)
			if err != nil {
				return nil, err
			}
			data = append(data, sub...)
		}
	}
	return data, nil
}

func firstPosition(nodes []parsec.ParsecNode) int {
	for _, n := range nodes {
		if t, ok := n.(*parsec.Terminal); ok {
			return t.Position
		}
	}
	return 0
}

func (p *parseState) termNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	switch term := nodes[0].(type) {
	case string:
		return &Datum{Kind: DatumString, Text: unquoteString(term)}
	case *parsec.Terminal:
		line := p.line(term.Position)
		switch term.Name {
		case "DECIMAL":
			return p.number(term, line)
		case "SYMBOL":
			return &Datum{Kind: DatumSymbol, Text: term.Value, Line: line}
		}
		return p.errorf(term.Position, "unexpected token %s", term.Name)
	}
	return fmt.Errorf("unexpected term %T", nodes[0])
}

// specialFloats are the printed spellings of the non-finite floats.
var specialFloats = map[string]float64{
	"+inf.0": math.Inf(1),
	"-inf.0": math.Inf(-1),
	"+nan.0": math.NaN(),
}

func (p *parseState) number(term *parsec.Terminal, line int) parsec.ParsecNode {
	if !strings.ContainsAny(term.Value, ".eE") {
		x, err := strconv.ParseInt(term.Value, 10, 64)
		if err == nil && x >= math.MinInt32 && x <= math.MaxInt32 {
			return &Datum{Kind: DatumInt, Int: int32(x), Text: term.Value, Line: line}
		}
	}
	f, err := strconv.ParseFloat(term.Value, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return p.errorf(term.Position, "bad number: %v (%s)", err, term.Value)
	}
	return &Datum{Kind: DatumFloat, Float: f, Text: term.Value, Line: line}
}

func (p *parseState) listNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	pos := firstPosition(nodes)
	items, err := flatten(nodes)
	if err != nil {
		return err
	}
	d := &Datum{Kind: DatumList, Line: p.line(pos)}
	for i, item := range items {
		if item.Kind != DatumSymbol || item.Text != "." {
			continue
		}
		if i == 0 || i != len(items)-2 {
			return p.errorf(pos, "misplaced dot in list")
		}
		d.Items = items[:i]
		d.Tail = items[i+1]
		return d
	}
	d.Items = items
	return d
}

func (p *parseState) quoteNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	pos := firstPosition(nodes)
	items, err := flatten(nodes)
	if err != nil {
		return err
	}
	if len(items) != 1 {
		return p.errorf(pos, "quote without a form")
	}
	return &Datum{Kind: DatumQuote, Items: items, Line: p.line(pos)}
}

func (p *parseState) unmatchedNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	open := nodes[0].(*parsec.Terminal)
	rest := strings.TrimSpace(string(p.text[open.Position:]))
	if len(rest) > 10 {
		rest = rest[:10] + "..."
	}
	return p.errorf(open.Position, "unmatched %q starting: %v", open.GetValue(), rest)
}

// The goparsec String parser unescapes the source text but leaves the
// surrounding double quotes on the result.
func unquoteString(s string) string {
	return s[1 : len(s)-1]
}
