// Copyright © 2018 The ELPS authors

package libmath

import (
	"math"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the prefix of the symbols bound by LoadPackage.
const DefaultPackageName = "math"

// LoadPackage binds the math functions and constants in the global
// namespace of rt.
func LoadPackage(rt *lisp.Runtime) lisp.Object {
	rt.Define(rt.Intern(libutil.Qualify(DefaultPackageName, "pi")), lisp.Float(math.Pi))
	rt.Define(rt.Intern(libutil.Qualify(DefaultPackageName, "inf")), lisp.Float(math.Inf(1)))
	rt.Define(rt.Intern(libutil.Qualify(DefaultPackageName, "-inf")), lisp.Float(math.Inf(-1)))
	for _, fn := range builtins {
		if e := rt.AddBuiltins(fn); e != lisp.Nil {
			return e
		}
	}
	return lisp.Nil
}

func fn(name string, formals []string, fun lisp.NativeFn, docs string) *libutil.Builtin {
	return libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, name), formals, fun, docs)
}

var builtins = []*libutil.Builtin{
	fn("nan?", lisp.Formals("number"), builtinIsNaN,
		`Returns t if number is IEEE 754 NaN (not-a-number). Integers
		are never NaN.`),
	fn("abs", lisp.Formals("number"), builtinAbs,
		`Returns the absolute value of number. An integer argument
		returns an integer unless the result overflows.`),
	fn("ceil", lisp.Formals("number"), builtinCeil,
		`Returns the smallest integral value not less than number.
		Integers are returned unchanged.`),
	fn("floor", lisp.Formals("number"), builtinFloor,
		`Returns the largest integral value not greater than number.
		Integers are returned unchanged.`),
	fn("sqrt", lisp.Formals("number"), unary(math.Sqrt),
		`Returns the square root of number as a float.`),
	fn("exp", lisp.Formals("number"), unary(math.Exp),
		`Returns e raised to the power of number as a float.`),
	fn("ln", lisp.Formals("number"), unary(math.Log),
		`Returns the natural logarithm of number as a float.`),
	fn("log", lisp.Formals("base", "number"), builtinLog,
		`Returns the logarithm of number in the given base as a float.`),
	fn("pow", lisp.Formals("base", "exponent"), builtinPow,
		`Returns base raised to exponent. Two integers with a
		non-negative exponent produce an integer when the result fits.`),
	fn("sin", lisp.Formals("radians"), unary(math.Sin),
		`Returns the sine of radians as a float.`),
	fn("cos", lisp.Formals("radians"), unary(math.Cos),
		`Returns the cosine of radians as a float.`),
	fn("tan", lisp.Formals("radians"), unary(math.Tan),
		`Returns the tangent of radians as a float.`),
	fn("atan", lisp.Formals("radians", lisp.OptArgSymbol, "quotient"), builtinAtan,
		`Returns the arctangent as a float. With two arguments returns
		atan2(radians, quotient).`),
}

func number(rt *lisp.Runtime, x lisp.Object) (float64, lisp.Object) {
	f, ok := x.Number()
	if !ok {
		return 0, rt.WrongType(lisp.TFloat, x)
	}
	return f, lisp.Nil
}

func unary(op func(float64) float64) lisp.NativeFn {
	return func(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
		x, lerr := number(rt, args[0])
		if lerr != lisp.Nil {
			return lerr
		}
		return lisp.Float(op(x))
	}
}

func builtinIsNaN(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	x := args[0]
	switch {
	case x.IsInt():
		return lisp.Nil
	case x.IsFloat():
		return lisp.Bool(math.IsNaN(x.AsFloat()))
	}
	return rt.WrongType(lisp.TFloat, x)
}

func builtinAbs(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	x := args[0]
	if x.IsInt() {
		n := int64(x.AsInt())
		if n < 0 {
			n = -n
		}
		if n > math.MaxInt32 {
			return lisp.Float(float64(n))
		}
		return lisp.Int(int32(n))
	}
	f, lerr := number(rt, x)
	if lerr != lisp.Nil {
		return lerr
	}
	return lisp.Float(math.Abs(f))
}

func builtinCeil(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	if args[0].IsInt() {
		return args[0]
	}
	return unary(math.Ceil)(rt, args)
}

func builtinFloor(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	if args[0].IsInt() {
		return args[0]
	}
	return unary(math.Floor)(rt, args)
}

func builtinLog(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	base, lerr := number(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	x, lerr := number(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	return lisp.Float(math.Log(x) / math.Log(base))
}

func builtinPow(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	base, lerr := number(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	exp, lerr := number(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	p := math.Pow(base, exp)
	if args[0].IsInt() && args[1].IsInt() && exp >= 0 && p >= math.MinInt32 && p <= math.MaxInt32 {
		return lisp.Int(int32(p))
	}
	return lisp.Float(p)
}

func builtinAtan(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	y, lerr := number(rt, args[0])
	if lerr != lisp.Nil {
		return lerr
	}
	if args[1] == lisp.Nil {
		return lisp.Float(math.Atan(y))
	}
	x, lerr := number(rt, args[1])
	if lerr != lisp.Nil {
		return lerr
	}
	return lisp.Float(math.Atan2(y, x))
}
