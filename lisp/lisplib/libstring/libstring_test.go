// Copyright © 2018 The ELPS authors

package libstring_test

import (
	"testing"

	"github.com/luthersystems/rlisp/rlisptest"
)

func TestPackage(t *testing.T) {
	tests := rlisptest.TestSuite{
		{"case", rlisptest.TestSequence{
			{`(string:lowercase "Hello")`, `"hello"`, ""},
			{`(string:uppercase "Hello")`, `"HELLO"`, ""},
			{`(string:uppercase 'hello)`, "#<error expected type string but found type symbol>", ""},
		}},
		{"split and join", rlisptest.TestSequence{
			{`(string:split "a,b,c" ",")`, `("a" "b" "c")`, ""},
			{`(string:join '("a" "b" "c") "-")`, `"a-b-c"`, ""},
			{`(string:join () "-")`, `""`, ""},
			{`(string:join '("a" 1) "-")`, "#<error expected type string but found type integer>", ""},
			{`(string:join (string:split "x y" " ") "+")`, `"x+y"`, ""},
		}},
		{"concat and length", rlisptest.TestSequence{
			{`(string:concat)`, `""`, ""},
			{`(string:concat "ab" "cd")`, `"abcd"`, ""},
			{`(string:length "hello")`, "5", ""},
		}},
	}
	rlisptest.RunTestSuite(t, tests)
}
