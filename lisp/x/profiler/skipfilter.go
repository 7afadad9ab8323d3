// Copyright © 2018 The ELPS authors

package profiler

import (
	"regexp"

	"github.com/luthersystems/rlisp/lisp"
)

// SkipFilter reports whether calls of fun should go unrecorded.
type SkipFilter func(rt *lisp.Runtime, fun lisp.Object) bool

// WithDocFilter records only functions whose docstring contains DocTrace.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithLispOnly records only functions defined in lisp.
func WithLispOnly() Option {
	return WithSkipFilter(func(rt *lisp.Runtime, fun lisp.Object) bool {
		return rt.Function(fun).Kind != lisp.FuncLisp
	})
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace marks a function for tracing by a profiler configured
// WithDocFilter.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(rt *lisp.Runtime, fun lisp.Object) bool {
	return !docTraceRegExp.MatchString(rt.Function(fun).Doc)
}
