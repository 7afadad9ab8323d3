// Copyright © 2024 The ELPS authors

// Package docs embeds the rlisp guides for use by the CLI.
package docs

import _ "embed"

//go:embed lang.md
var LangGuide string

//go:embed debugging-guide.md
var DebuggingGuide string

// Guides maps the names accepted by "rlisp doc --guide" to their text.
var Guides = map[string]string{
	"lang":      LangGuide,
	"debugging": DebuggingGuide,
}
