// Copyright © 2018 The ELPS authors

package repl

import (
	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/x/debugger"
)

// symbolCompleter implements readline.AutoCompleter by enumerating the
// names bound in a runtime.
type symbolCompleter struct {
	rt *lisp.Runtime
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	text := string(line[:pos])
	prefix := debugger.ExtractPrefix(text, len(text)+1)
	if prefix == "" {
		return nil, 0
	}
	candidates := debugger.CompleteInContext(c.rt, prefix)
	result := make([][]rune, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Type == "keyword" {
			continue
		}
		// Each entry is the suffix to append.
		result = append(result, []rune(cand.Label[len(prefix):]))
	}
	if len(result) == 0 {
		return nil, 0
	}
	return result, len([]rune(prefix))
}
