// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// tokenKind classifies a lexical token of source text.
type tokenKind int

const (
	tokOpen tokenKind = iota
	tokClose
	tokQuote
	tokSymbol
	tokString
)

// lexToken is a token with its 0-based position.  Offset and End are byte
// offsets into the source text.
type lexToken struct {
	Kind   tokenKind
	Text   string
	Line   int
	Col    int
	Offset int
	End    int
}

// scanTokens splits content into tokens.  Comments and whitespace are
// skipped.  An unterminated string runs to the end of the content.
func scanTokens(content string) []lexToken {
	var toks []lexToken
	line, col := 0, 0
	advance := func(i, j int) {
		for k := i; k < j; k++ {
			if content[k] == '\n' {
				line++
				col = 0
			} else {
				col++
			}
		}
	}
	i := 0
	for i < len(content) {
		c := content[i]
		var kind tokenKind
		j := i + 1
		switch {
		case c == ';':
			for j < len(content) && content[j] != '\n' {
				j++
			}
			advance(i, j)
			i = j
			continue
		case c == '(':
			kind = tokOpen
		case c == ')':
			kind = tokClose
		case c == '\'':
			kind = tokQuote
		case c == '"':
			kind = tokString
			for j < len(content) {
				if content[j] == '\\' {
					j += 2
					continue
				}
				j++
				if content[j-1] == '"' {
					break
				}
			}
			if j > len(content) {
				j = len(content)
			}
		case isSymbolChar(c):
			kind = tokSymbol
			for j < len(content) && isSymbolChar(content[j]) {
				j++
			}
		default:
			advance(i, j)
			i = j
			continue
		}
		toks = append(toks, lexToken{
			Kind:   kind,
			Text:   content[i:j],
			Line:   line,
			Col:    col,
			Offset: i,
			End:    j,
		})
		advance(i, j)
		i = j
	}
	return toks
}

// formSpan is a top level list in source text.  Tokens indexes the tokens
// of the form, parentheses included.
type formSpan struct {
	Start  lexToken
	Stop   lexToken
	Tokens []lexToken
	Closed bool
}

// topLevelForms groups toks into top level lists.  An unclosed list at the
// end of the content extends to the last token.
func topLevelForms(toks []lexToken) []formSpan {
	var forms []formSpan
	depth := 0
	begin := -1
	for i, tok := range toks {
		switch tok.Kind {
		case tokOpen:
			if depth == 0 {
				begin = i
			}
			depth++
		case tokClose:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				forms = append(forms, formSpan{
					Start:  toks[begin],
					Stop:   tok,
					Tokens: toks[begin : i+1],
					Closed: true,
				})
			}
		}
	}
	if depth > 0 {
		forms = append(forms, formSpan{
			Start:  toks[begin],
			Stop:   toks[len(toks)-1],
			Tokens: toks[begin:],
		})
	}
	return forms
}

// tokenRange returns the LSP range covered by tok.
func tokenRange(tok lexToken) protocol.Range {
	start := protocol.Position{Line: safeUint(tok.Line), Character: safeUint(tok.Col)}
	end := start
	if i := strings.LastIndexByte(tok.Text, '\n'); i >= 0 {
		end.Line += safeUint(strings.Count(tok.Text, "\n"))
		end.Character = safeUint(len(tok.Text) - i - 1)
	} else {
		end.Character += safeUint(len(tok.Text))
	}
	return protocol.Range{Start: start, End: end}
}

// spanRange returns the LSP range of a top level form.
func spanRange(f formSpan) protocol.Range {
	return protocol.Range{
		Start: tokenRange(f.Start).Start,
		End:   tokenRange(f.Stop).End,
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// symbolAt returns the symbol token containing the 0-based position, or
// the symbol ending at it.
func symbolAt(toks []lexToken, line, col int) (lexToken, bool) {
	for _, tok := range toks {
		if tok.Kind != tokSymbol || tok.Line != line {
			continue
		}
		if col >= tok.Col && col <= tok.Col+len(tok.Text) {
			return tok, true
		}
	}
	return lexToken{}, false
}

// wordAtPosition extracts the symbol-like word at the given 0-based LSP
// position from the document content. The cursor can be inside or at the
// end of a word; in both cases the full word is returned.
func wordAtPosition(content string, line, col int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	ln := lines[line]
	if col < 0 || col > len(ln) {
		return ""
	}
	start := col
	for start > 0 && isSymbolChar(ln[start-1]) {
		start--
	}
	end := col
	for end < len(ln) && isSymbolChar(ln[end]) {
		end++
	}
	return ln[start:end]
}

// prefixAtPosition returns the part of the word at the position that lies
// before the cursor.
func prefixAtPosition(content string, line, col int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	ln := lines[line]
	if col > len(ln) {
		col = len(ln)
	}
	start := col
	for start > 0 && isSymbolChar(ln[start-1]) {
		start--
	}
	return ln[start:col]
}

// isSymbolChar reports whether c may appear in a symbol or number.
func isSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c >= 0x80:
		return true
	}
	return strings.IndexByte("._+-*/=<>!&~%?$:", c) >= 0
}

// before reports whether position (l1, c1) precedes (l2, c2).
func before(l1, c1, l2, c2 int) bool {
	return l1 < l2 || l1 == l2 && c1 < c2
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
