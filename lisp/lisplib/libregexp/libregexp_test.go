// Copyright © 2018 The ELPS authors

package libregexp_test

import (
	"testing"

	"github.com/luthersystems/rlisp/rlisptest"
)

func TestPackage(t *testing.T) {
	tests := rlisptest.TestSuite{
		{"match", rlisptest.TestSequence{
			{`(regexp:match? "^a+b$" "aaab")`, "t", ""},
			{`(regexp:match? "^a+b$" "aaac")`, "nil", ""},
			{`(regexp:match? 'a "a")`, "#<error expected type string but found type symbol>", ""},
			{`(catch-error (regexp:match? "(" "a") (invalid-regexp-pattern 'bad))`, "bad", ""},
		}},
		{"find", rlisptest.TestSequence{
			{`(regexp:find "[0-9]+" "ab 123 cd 45")`, `"123"`, ""},
			{`(regexp:find "[0-9]+" "none")`, "nil", ""},
			{`(regexp:find-all "[0-9]+" "ab 123 cd 45")`, `("123" "45")`, ""},
			{`(regexp:find-all "x" "abc")`, "nil", ""},
			{`(regexp:submatch "([a-z]+)@([a-z]+)" "mail bob@example now")`, `("bob@example" "bob" "example")`, ""},
		}},
		{"replace", rlisptest.TestSequence{
			{`(regexp:replace "a(b*)" "xabbyab" "<$1>")`, `"x<bb>y<b>"`, ""},
			{`(regexp:replace "q" "abc" "z")`, `"abc"`, ""},
		}},
	}
	rlisptest.RunTestSuite(t, tests)
}
