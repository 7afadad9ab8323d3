// Copyright © 2018 The ELPS authors

package lisp_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/rlisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalTests = rlisptest.TestSuite{
	{"scenarios", rlisptest.TestSequence{
		{"(+ 1 2 3)", "6", ""},
		{"(quote (a b c))", "(a b c)", ""},
		{"(let ((x 1) (y 2)) (+ x y))", "3", ""},
		{"(defun square (n) (* n n))", "square", ""},
		{"(square 5)", "25", ""},
		{`(catch-error (/ 1 0) (t "caught"))`, `"caught"`, ""},
		{`(catch-error (car 5) (wrong-type-error "caught"))`, `"caught"`, ""},
		{"(cons 1 2)", "(1 . 2)", ""},
		{"(cons 1 (cons 2 nil))", "(1 2)", ""},
	}},
	{"self evaluating", rlisptest.TestSequence{
		{"3", "3", ""},
		{"-3", "-3", ""},
		{"1.5", "1.5", ""},
		{"2.0", "2.0", ""},
		{`"a\"b"`, `"a\"b"`, ""},
		{":key", ":key", ""},
		{"nil", "nil", ""},
		{"t", "t", ""},
		{"()", "nil", ""},
		{"'(1 . (2 . 3))", "(1 2 . 3)", ""},
	}},
	{"arity", rlisptest.TestSequence{
		{"(defun f (a b &optional c) (list a b c))", "f", ""},
		{"(f 1 2)", "(1 2 nil)", ""},
		{"(f 1 2 3)", "(1 2 3)", ""},
		{"(f 1)", "#<error wanted between 2 and 3 args but found 1>", ""},
		{"(f 1 2 3 4)", "#<error wanted between 2 and 3 args but found 4>", ""},
		{"(defun g (a &rest b) b)", "g", ""},
		{"(g 1 2 3)", "(2 3)", ""},
		{"(g 1 2 3 4 5)", "(2 3 4 5)", ""},
		{"(length (g 1 2 3 4 5))", "4", ""},
		{"(g 1)", "nil", ""},
		{"(g)", "#<error wanted at least 1 args but found only 0>", ""},
		{"(car)", "#<error wanted 1 args but found 0>", ""},
		{"(car '(1) '(2))", "#<error wanted 1 args but found 2>", ""},
		{"(errorp (defun bad (&rest) 1))", "t", ""},
		{"(errorp (lambda (a &optional &optional) 1))", "t", ""},
		{"(errorp (lambda (:key) 1))", "t", ""},
	}},
	{"errors short circuit", rlisptest.TestSequence{
		{"(+ 1 (unbound-sym) 3)", "#<error symbol unbound-sym is unbound>", ""},
		{"(list (print 1) (car 5) (print 2))", "#<error expected type cons but found type integer>", "1\n"},
		{"(nope 1)", "#<error symbol nope is unbound>", ""},
		{"(1 2)", "#<error expected type function but found type integer>", ""},
		{"(+ 1 . 2)", "#<error found an improper list where a proper one was expected>", ""},
		{"(progn (car 5) (print 3))", "#<error expected type cons but found type integer>", ""},
	}},
	{"special variables", rlisptest.TestSequence{
		{"(defvar *x* 10)", "*x*", ""},
		{"(defun get-x () *x*)", "get-x", ""},
		{"(get-x)", "10", ""},
		{"(let ((*x* 20)) (get-x))", "20", ""},
		{"(get-x)", "10", ""},
		{"(defvar *x* 30)", "*x*", ""},
		{"*x*", "10", ""},
		{"(defun with-x (*x*) (get-x))", "with-x", ""},
		{"(with-x 5)", "5", ""},
		{"(progn (setq *x* 11) (get-x))", "11", ""},
		{"(defvar *y*)", "*y*", ""},
		{"*y*", "nil", ""},
		{"(errorp (defvar :k 1))", "t", ""},
	}},
	{"closures", rlisptest.TestSequence{
		{"(defun make-counter () (let ((n 0)) (lambda () (setq n (+ n 1)))))", "make-counter", ""},
		{"(setq c (make-counter))", "#<function lambda>", ""},
		{"(funcall c)", "1", ""},
		{"(progn (gc) (funcall c))", "2", ""},
		{"(let ((d (make-counter))) (funcall d) (gc) (funcall d))", "2", ""},
		{"(funcall c)", "3", ""},
		{"n", "#<error symbol n is unbound>", ""},
		{"(let ((x 1)) (defun get-captured () x))", "get-captured", ""},
		{"(progn (gc) (get-captured))", "1", ""},
	}},
	{"catch-error", rlisptest.TestSequence{
		{"(catch-error 5 (t 0))", "5", ""},
		{"(catch-error (car 5) (arithmetic-error 1))", "#<error expected type cons but found type integer>", ""},
		{`(catch-error (error 'my-error "bad" 42) (my-error (error-message err)))`, `"my-error: bad 42"`, ""},
		{"(catch-error (/ 1 0) (arithmetic-error (error-kind err)))", "arithmetic-error", ""},
		{"(catch-error (car 5) (other 1) (wrong-type-error 2) (t 3))", "2", ""},
		{"(catch-error (car 5) (t (print 'handled) 4))", "4", "handled\n"},
		{"(catch-error (car 5) (5 1))", "#<error expected type symbol but found type integer>", ""},
		{"(error-kind (car 5))", "wrong-type-error", ""},
		{"(error-kind 1)", "#<error expected type error but found type integer>", ""},
		{"(error-message (nth 3 '(a)))", `"index 3 out of bounds for length 1"`, ""},
		{"(errorp (car 5))", "t", ""},
		{"(errorp 1)", "nil", ""},
		{"(errorp (error 'e))", "t", ""},
	}},
	{"arithmetic", rlisptest.TestSequence{
		{"(+)", "0", ""},
		{"(*)", "1", ""},
		{"(- 5)", "-5", ""},
		{"(- 10 1 2)", "7", ""},
		{"(-)", "#<error wanted at least 1 args but found only 0>", ""},
		{"(* 1.5 2)", "3.0", ""},
		{"(+ 2147483647 1)", "2.147483648e+09", ""},
		{"(* 65536 65536)", "4.294967296e+09", ""},
		{"(/ 4 2)", "2", ""},
		{"(/ 1 2)", "0.5", ""},
		{"(/ 2)", "0.5", ""},
		{"(/ 1.0 0)", "+inf.0", ""},
		{"(list 1e400 -inf.0 (- +inf.0 +inf.0))", "(+inf.0 -inf.0 +nan.0)", ""},
		{"(= (/ 1.0 0) +inf.0)", "t", ""},
		{"(/ 1 0)", "#<error arithmetic-error: division by zero>", ""},
		{"(mod 7 3)", "1", ""},
		{"(mod -7 3)", "2", ""},
		{"(mod 7 -3)", "-2", ""},
		{"(+ 1 \"a\")", "#<error expected type float but found type string>", ""},
		{"(= 1 1.0)", "t", ""},
		{"(eq 1 1.0)", "nil", ""},
		{"(< 1 2 3)", "t", ""},
		{"(< 1 3 2)", "nil", ""},
		{"(>= 3 3 1)", "t", ""},
		{"(<)", "#<error wanted at least 1 args but found only 0>", ""},
	}},
	{"special forms", rlisptest.TestSequence{
		{"(if nil 1 2)", "2", ""},
		{"(if 0 1 2)", "1", ""},
		{"(if nil 1)", "nil", ""},
		{"(cond ((= 1 2) 'a) ((= 1 1) 'b))", "b", ""},
		{"(cond (nil 1))", "nil", ""},
		{"(cond (5))", "5", ""},
		{"(let (x) x)", "nil", ""},
		{"(let ((x 1)) (let ((x 2) (y x)) y))", "1", ""},
		{"(let* ((x 1) (y (+ x 1))) y)", "2", ""},
		{"(and 1 2)", "2", ""},
		{"(and)", "t", ""},
		{"(and nil (car 5))", "nil", ""},
		{"(or nil 3)", "3", ""},
		{"(or)", "nil", ""},
		{"(progn 1 2 3)", "3", ""},
		{"(setq i 0)", "0", ""},
		{"(while (< i 3) (setq i (+ i 1)))", "nil", ""},
		{"i", "3", ""},
		{"(setq a 1 b 2)", "2", ""},
		{"(list a b)", "(1 2)", ""},
		{"(errorp (setq a))", "t", ""},
		{"(errorp (setq :k 1))", "t", ""},
		{"(check-type 1 integer)", "1", ""},
		{`(check-type "a" integer)`, "#<error expected type integer but found type string>", ""},
		{"(check-type 1 widget)", "#<error widget is not a type designator>", ""},
		{"(check-type nil list)", "nil", ""},
		{`(defun documented () "docs" 1)`, "documented", ""},
		{"(documented)", "1", ""},
		{`(defun only-string () "value")`, "only-string", ""},
		{"(only-string)", `"value"`, ""},
	}},
	{"builtins", rlisptest.TestSequence{
		{"car", "#<builtin car>", ""},
		{"if", "#<special if>", ""},
		{"(lambda (x) x)", "#<function lambda>", ""},
		{"square", "#<error symbol square is unbound>", ""},
		{"(car '(1 2))", "1", ""},
		{"(cdr '(1 2))", "(2)", ""},
		{"(car nil)", "nil", ""},
		{"(list)", "nil", ""},
		{"(length '(1 2 3))", "3", ""},
		{"(reverse '(1 2 3))", "(3 2 1)", ""},
		{"(append '(1 2) '(3) 4)", "(1 2 3 . 4)", ""},
		{"(append)", "nil", ""},
		{"(nth 1 '(a b c))", "b", ""},
		{"(nth 5 '(a))", "#<error index 5 out of bounds for length 1>", ""},
		{"(type-of 1)", "integer", ""},
		{"(type-of 1.0)", "float", ""},
		{`(type-of "s")`, "string", ""},
		{"(type-of nil)", "boolean", ""},
		{"(type-of '(1))", "cons", ""},
		{"(type-of car)", "function", ""},
		{`(equal '(1 "a") (list 1 "a"))`, "t", ""},
		{`(eq "a" "a")`, "nil", ""},
		{"(eq 'a 'a)", "t", ""},
		{"(not nil)", "t", ""},
		{"(null '(1))", "nil", ""},
		{"(list (consp nil) (listp nil) (numberp 1.5) (integerp 1.5) (floatp 1.5))", "(nil t t nil t)", ""},
		{`(list (symbolp 'a) (stringp "a") (functionp car) (functionp 'car))`, "(t t t nil)", ""},
		{"(mapcar (lambda (x) (* x x)) '(1 2 3))", "(1 4 9)", ""},
		{"(mapcar + '(1 2) '(10 20 30))", "(11 22)", ""},
		{"(mapcar car '(5))", "#<error expected type cons but found type integer>", ""},
		{"(apply + 1 '(2 3))", "6", ""},
		{"(funcall + 1 2)", "3", ""},
		{"(apply if '(t 1 2))", "#<error special-form-error: cannot apply special form if>", ""},
		{`(symbol-name 'abc)`, `"abc"`, ""},
		{`(intern "abc")`, "abc", ""},
		{"(boundp 'zzz)", "nil", ""},
		{"(setq zzz 1)", "1", ""},
		{"(boundp 'zzz)", "t", ""},
		{"(makunbound 'zzz)", "zzz", ""},
		{"(boundp 'zzz)", "nil", ""},
		{`(format-object '(1 "a"))`, `"(1 \"a\")"`, ""},
		{"(progn (gc) (car (gc-stats)))", ":cycles", ""},
	}},
	{"printing", rlisptest.TestSequence{
		{`(print "hi")`, `"hi"`, "\"hi\"\n"},
		{`(princ "hi")`, `"hi"`, "hi"},
		{`(princ '(1 "a"))`, `(1 "a")`, "(1 a)"},
		{"(print 1.0)", "1.0", "1.0\n"},
		{`(error-message (error 'e "x" "y"))`, `"e: x y"`, ""},
	}},
}

func TestEval(t *testing.T) {
	rlisptest.RunTestSuite(t, evalTests)
}

// Every collection checkpoint collects with a threshold of one, so any
// object the evaluator fails to root is freed while still in use.
func TestEvalCollectAlways(t *testing.T) {
	rlisptest.RunTestSuite(t, evalTests, lisp.WithGCThreshold(1))
}

func TestStackOverflow(t *testing.T) {
	rlisptest.RunTestSuite(t, rlisptest.TestSuite{
		{"recursion", rlisptest.TestSequence{
			{"(defun forever (n) (forever n))", "forever", ""},
			{"(forever 1)", "#<error stack-overflow: call stack height exceeds 50>", ""},
			{"(defun down (n) (if (= n 0) 'done (down (- n 1))))", "down", ""},
			{"(down 10)", "done", ""},
		}},
	}, lisp.WithMaxCallDepth(50))
}

func TestRep(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	out, err := rt.Rep([]byte("(defun double (x) (* 2 x)) (double 21)"))
	require.NoError(t, err)
	assert.Equal(t, "42", out)
	assert.Equal(t, 0, rt.StackHeight())

	_, err = rt.Rep([]byte("(car 5)"))
	var ev *lisp.ErrorVal
	require.True(t, errors.As(err, &ev))
	assert.Equal(t, "wrong-type-error", ev.Name)
	assert.Equal(t, 0, rt.StackHeight())
	assert.Len(t, rt.Scope(), 1)

	_, err = rt.Rep([]byte("(unclosed"))
	assert.Error(t, err)
}

func TestLoadStopsAtError(t *testing.T) {
	var out bytes.Buffer
	rt := rlisptest.NewRuntime(t, lisp.WithStdout(&out))
	v := rt.LoadString("test", "(print 1) (car 5) (print 2)")
	require.True(t, v.IsError())
	assert.Equal(t, "1\n", out.String())
	assert.Equal(t, 0, rt.StackHeight())

	v = rt.LoadFile("testdata/does-not-exist.lisp")
	assert.True(t, v.IsError())
}

func TestApplyFromGo(t *testing.T) {
	rt := rlisptest.NewRuntime(t)
	require.False(t, rt.LoadString("test", "(defun add3 (a b c) (+ a b c))").IsError())
	fn := rt.GetSymbol(rt.Intern("add3"))
	v := rt.Apply(fn, lisp.Int(1), lisp.Int(2), lisp.Int(3))
	assert.Equal(t, lisp.Int(6), v)
	assert.Equal(t, 0, rt.StackHeight())
	assert.True(t, rt.Apply(lisp.Int(1)).IsError())
}

func TestGCLoggingOutput(t *testing.T) {
	var stderr bytes.Buffer
	rt := rlisptest.NewRuntime(t, lisp.WithGCLogging(true), lisp.WithStderr(&stderr))
	require.False(t, rt.LoadString("test", "(gc)").IsError())
	assert.Contains(t, stderr.String(), "gc: cycle")
}

type countingProfiler struct {
	starts int
	ends   int
	gcs    int
}

func (p *countingProfiler) IsEnabled() bool { return true }
func (p *countingProfiler) Enable() error   { return nil }
func (p *countingProfiler) Complete() error { return nil }

func (p *countingProfiler) StartGC() func() {
	p.gcs++
	return func() {}
}

func (p *countingProfiler) Start(lisp.Object) func() {
	p.starts++
	return func() { p.ends++ }
}

func TestProfilerHooks(t *testing.T) {
	p := &countingProfiler{}
	rt := rlisptest.NewRuntime(t, lisp.WithProfiler(p))
	require.False(t, rt.LoadString("test", "(+ 1 (* 2 3)) (gc)").IsError())
	assert.Equal(t, 3, p.starts)
	assert.Equal(t, 3, p.ends)
	assert.GreaterOrEqual(t, p.gcs, 1)
}
