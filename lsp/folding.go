// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line lists and consecutive comment
// blocks.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	content, toks, _, _ := doc.snapshot()
	ranges := listFoldingRanges(toks)
	ranges = append(ranges, commentFoldingRanges(content)...)
	return ranges, nil
}

// listFoldingRanges emits a folding range for each closed list that spans
// more than one line.
func listFoldingRanges(toks []lexToken) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	var open []lexToken
	kind := string(protocol.FoldingRangeKindRegion)
	for _, tok := range toks {
		switch tok.Kind {
		case tokOpen:
			open = append(open, tok)
		case tokClose:
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			if tok.Line > start.Line {
				ranges = append(ranges, protocol.FoldingRange{
					StartLine: safeUint(start.Line),
					EndLine:   safeUint(tok.Line),
					Kind:      &kind,
				})
			}
		}
	}
	return ranges
}

// commentFoldingRanges detects consecutive lines starting with ";" and
// produces a folding range for each block of 2+ lines.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	lines := strings.Split(content, "\n")
	var ranges []protocol.FoldingRange
	kind := string(protocol.FoldingRangeKindComment)
	emit := func(start, end int) {
		if end > start {
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(start),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
	}

	blockStart := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			if blockStart < 0 {
				blockStart = i
			}
			continue
		}
		if blockStart >= 0 {
			emit(blockStart, i-1)
		}
		blockStart = -1
	}
	if blockStart >= 0 {
		emit(blockStart, len(lines)-1)
	}
	return ranges
}
