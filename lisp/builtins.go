// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"math"
	"strings"
)

// BuiltinDef is a Go function bound in the global namespace.
type BuiltinDef interface {
	Name() string
	// Formals returns the parameter names of the function, including
	// &optional and &rest markers.  A nil slice makes the function
	// unchecked.
	Formals() []string
	Eval(rt *Runtime, args []Object) Object
}

// Documented is implemented by builtins carrying a docstring.
type Documented interface {
	Docstring() string
}

// Formals returns its arguments.  It makes builtin tables read like lambda
// lists.
func Formals(argSymbols ...string) []string {
	if argSymbols == nil {
		return []string{}
	}
	return argSymbols
}

// Parameter list markers.
const (
	OptArgSymbol = markerOptional
	VarArgSymbol = markerRest
)

type langBuiltin struct {
	name    string
	formals []string
	fun     NativeFn
	docs    string
}

func (fun *langBuiltin) Name() string {
	return fun.name
}

func (fun *langBuiltin) Formals() []string {
	return fun.formals
}

func (fun *langBuiltin) Eval(rt *Runtime, args []Object) Object {
	return fun.fun(rt, args)
}

func (fun *langBuiltin) Docstring() string {
	return fun.docs
}

// NewBuiltin returns a BuiltinDef for fn.
func NewBuiltin(name string, formals []string, fn NativeFn, docs string) BuiltinDef {
	return &langBuiltin{name, formals, fn, docs}
}

// AddBuiltins binds each def in the global namespace as an ordinary
// function.
func (rt *Runtime) AddBuiltins(defs ...BuiltinDef) Object {
	return rt.addNatives(FuncNative, defs)
}

// AddSpecialOps binds each def in the global namespace as a special form.
func (rt *Runtime) AddSpecialOps(defs ...BuiltinDef) Object {
	return rt.addNatives(FuncSpecial, defs)
}

func (rt *Runtime) addNatives(kind FuncKind, defs []BuiltinDef) Object {
	for _, def := range defs {
		fn, lerr := rt.newNative(kind, def.Name(), def.Formals(), def.Eval)
		if lerr != Nil {
			return lerr
		}
		if doc, ok := def.(Documented); ok {
			rt.Function(fn).Doc = dedent(doc.Docstring())
		}
		rt.Define(rt.Intern(def.Name()), fn)
	}
	return Nil
}

// dedent strips the common indentation of continuation lines in a raw
// string literal docstring.
func dedent(doc string) string {
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimLeft(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

var langBuiltins = []BuiltinDef{
	&langBuiltin{"car", Formals("lis"), builtinCar,
		`Returns the first element of a list, or nil for the empty list.`},
	&langBuiltin{"cdr", Formals("lis"), builtinCdr,
		`Returns the list following the first element of lis, or nil for
		the empty list.`},
	&langBuiltin{"cons", Formals("head", "tail"), builtinCons,
		`Returns a new cons cell holding head and tail.`},
	&langBuiltin{"list", nil, builtinList,
		`Returns a new list of its arguments.`},
	&langBuiltin{"length", Formals("lis"), builtinLength,
		`Returns the number of elements in a proper list.`},
	&langBuiltin{"reverse", Formals("lis"), builtinReverse,
		`Returns a new list with the elements of lis in reverse order.`},
	&langBuiltin{"append", nil, builtinAppend,
		`Returns the concatenation of its list arguments. Every argument
		but the last is copied; the last is shared.`},
	&langBuiltin{"nth", Formals("n", "lis"), builtinNth,
		`Returns element n of lis, counting from zero. Signals
		index-out-of-bounds-error when n is not a valid index.`},
	&langBuiltin{"+", nil, builtinAdd,
		`Returns the sum of its arguments. Integer results that overflow
		32 bits are returned as floats.`},
	&langBuiltin{"-", nil, builtinSub,
		`Subtracts the remaining arguments from the first. With a single
		argument returns its negation.`},
	&langBuiltin{"*", nil, builtinMul,
		`Returns the product of its arguments.`},
	&langBuiltin{"/", nil, builtinDiv,
		`Divides the first argument by the remaining arguments. Integer
		division is exact when possible and yields a float otherwise.
		Dividing an integer by zero signals arithmetic-error.`},
	&langBuiltin{"mod", Formals("x", "y"), builtinMod,
		`Returns x modulo y. The result has the sign of y.`},
	&langBuiltin{"=", nil, builtinNumEq,
		`Returns t if all arguments are numerically equal.`},
	&langBuiltin{"<", nil, builtinLT,
		`Returns t if the arguments are in strictly increasing order.`},
	&langBuiltin{">", nil, builtinGT,
		`Returns t if the arguments are in strictly decreasing order.`},
	&langBuiltin{"<=", nil, builtinLEq,
		`Returns t if the arguments are in nondecreasing order.`},
	&langBuiltin{">=", nil, builtinGEq,
		`Returns t if the arguments are in nonincreasing order.`},
	&langBuiltin{"eq", Formals("a", "b"), builtinEq,
		`Returns t if a and b are the identical object. The integer 1 and
		the float 1.0 are not eq.`},
	&langBuiltin{"equal", Formals("a", "b"), builtinEqual,
		`Returns t if a and b are structurally equal: conses with equal
		elements, strings with the same characters or eq objects.`},
	&langBuiltin{"not", Formals("x"), builtinNot,
		`Returns t if x is nil and nil otherwise.`},
	&langBuiltin{"null", Formals("x"), builtinNot,
		`Returns t if x is the empty list.`},
	&langBuiltin{"consp", Formals("x"), typePredicate(Object.IsCons),
		`Returns t if x is a cons cell.`},
	&langBuiltin{"listp", Formals("x"), typePredicate(Object.IsList),
		`Returns t if x is a cons cell or nil.`},
	&langBuiltin{"numberp", Formals("x"), typePredicate(Object.IsNumber),
		`Returns t if x is an integer or a float.`},
	&langBuiltin{"integerp", Formals("x"), typePredicate(Object.IsInt),
		`Returns t if x is an integer.`},
	&langBuiltin{"floatp", Formals("x"), typePredicate(Object.IsFloat),
		`Returns t if x is a float.`},
	&langBuiltin{"symbolp", Formals("x"), typePredicate(Object.IsSymbol),
		`Returns t if x is a symbol.`},
	&langBuiltin{"stringp", Formals("x"), typePredicate(Object.IsString),
		`Returns t if x is a string.`},
	&langBuiltin{"functionp", Formals("x"), typePredicate(Object.IsFunction),
		`Returns t if x is a function.`},
	&langBuiltin{"type-of", Formals("x"), builtinTypeOf,
		`Returns a symbol naming the type of x.`},
	&langBuiltin{"funcall", nil, builtinFunCall,
		`Calls the first argument with the remaining arguments.`},
	&langBuiltin{"apply", nil, builtinApply,
		`Calls the first argument with the remaining arguments, the last of
		which must be a list that is spread into individual arguments.`},
	&langBuiltin{"mapcar", nil, builtinMapcar,
		`Calls fn with successive elements of one or more lists and
		returns the list of results. Stops at the end of the shortest
		list.`},
	&langBuiltin{"print", Formals("object"), builtinPrint,
		`Writes the printed representation of object and a newline to
		standard output. Returns object.`},
	&langBuiltin{"princ", Formals("object"), builtinPrinc,
		`Writes object to standard output without quoting strings.
		Returns object.`},
	&langBuiltin{"format-object", Formals("object"), builtinFormatObject,
		`Returns a string holding the printed representation of object.`},
	&langBuiltin{"error", Formals("kind", VarArgSymbol, "args"), builtinError,
		`Returns an error of the given kind symbol. The message joins the
		displayed args with spaces.`},
	&langBuiltin{"symbol-name", Formals("sym"), builtinSymbolName,
		`Returns the name of sym as a string.`},
	&langBuiltin{"intern", Formals("name"), builtinIntern,
		`Returns the symbol with the given name.`},
	&langBuiltin{"makunbound", Formals("sym"), builtinMakunbound,
		`Removes the innermost binding of sym. For a special variable the
		current dynamic binding is left without a value. Returns sym.`},
	&langBuiltin{"boundp", Formals("sym"), builtinBoundp,
		`Returns t if sym has a value in the current scope.`},
	&langBuiltin{"gc", Formals(), builtinGC,
		`Runs a garbage collection and returns the number of objects
		freed.`},
	&langBuiltin{"gc-stats", Formals(), builtinGCStats,
		`Returns a property list describing the last collection with the
		keys :cycles, :live, :freed and :threshold.`},
}

func builtinCar(rt *Runtime, args []Object) Object {
	lis := args[0]
	switch {
	case lis == Nil:
		return Nil
	case lis.IsCons():
		return rt.ConsCell(lis).Car
	}
	return rt.WrongType(TCons, lis)
}

func builtinCdr(rt *Runtime, args []Object) Object {
	lis := args[0]
	switch {
	case lis == Nil:
		return Nil
	case lis.IsCons():
		return rt.ConsCell(lis).Cdr
	}
	return rt.WrongType(TCons, lis)
}

func builtinCons(rt *Runtime, args []Object) Object {
	return rt.Cons(args[0], args[1])
}

func builtinList(rt *Runtime, args []Object) Object {
	return rt.List(args...)
}

func builtinLength(rt *Runtime, args []Object) Object {
	if !args[0].IsList() {
		return rt.WrongType(TCons, args[0])
	}
	n, lerr := rt.Length(args[0])
	if lerr != Nil {
		return lerr
	}
	return Int(int32(n))
}

func builtinReverse(rt *Runtime, args []Object) Object {
	if !args[0].IsList() {
		return rt.WrongType(TCons, args[0])
	}
	return rt.Reverse(args[0])
}

func builtinAppend(rt *Runtime, args []Object) Object {
	if len(args) == 0 {
		return Nil
	}
	var items []Object
	for _, lis := range args[:len(args)-1] {
		if !lis.IsList() {
			return rt.WrongType(TCons, lis)
		}
		elems, lerr := rt.ListToSlice(lis)
		if lerr != Nil {
			return lerr
		}
		items = append(items, elems...)
	}
	result := args[len(args)-1]
	for i := len(items) - 1; i >= 0; i-- {
		result = rt.Cons(items[i], result)
	}
	return result
}

func builtinNth(rt *Runtime, args []Object) Object {
	n, lis := args[0], args[1]
	if !n.IsInt() {
		return rt.WrongType(TInt, n)
	}
	if !lis.IsList() {
		return rt.WrongType(TCons, lis)
	}
	items, lerr := rt.ListToSlice(lis)
	if lerr != Nil {
		return lerr
	}
	i := int(n.AsInt())
	if i < 0 || i >= len(items) {
		return rt.IndexError(i, len(items))
	}
	return items[i]
}

// checkNumbers returns an error value for the first non-number in args.
func checkNumbers(rt *Runtime, args []Object) Object {
	for _, x := range args {
		if !x.IsNumber() {
			return rt.WrongType(TFloat, x)
		}
	}
	return Nil
}

// intResult returns x as an integer Object when it fits in 32 bits and as
// a float otherwise.
func intResult(x int64) Object {
	if x < math.MinInt32 || x > math.MaxInt32 {
		return Float(float64(x))
	}
	return Int(int32(x))
}

type arithOp struct {
	ints   func(a, b int64) int64
	floats func(a, b float64) float64
}

var (
	opAdd = arithOp{
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b },
	}
	opSub = arithOp{
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b },
	}
	opMul = arithOp{
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b },
	}
)

func (op arithOp) apply(a, b Object) Object {
	if a.IsInt() && b.IsInt() {
		return intResult(op.ints(int64(a.AsInt()), int64(b.AsInt())))
	}
	x, _ := a.Number()
	y, _ := b.Number()
	return Float(op.floats(x, y))
}

func (op arithOp) fold(rt *Runtime, acc Object, args []Object) Object {
	if lerr := checkNumbers(rt, args); lerr != Nil {
		return lerr
	}
	for _, x := range args {
		acc = op.apply(acc, x)
	}
	return acc
}

func builtinAdd(rt *Runtime, args []Object) Object {
	return opAdd.fold(rt, Int(0), args)
}

func builtinMul(rt *Runtime, args []Object) Object {
	return opMul.fold(rt, Int(1), args)
}

func builtinSub(rt *Runtime, args []Object) Object {
	if len(args) == 0 {
		return rt.ArgsCount(0, 1, -1)
	}
	if len(args) == 1 {
		return opSub.fold(rt, Int(0), args)
	}
	if lerr := checkNumbers(rt, args[:1]); lerr != Nil {
		return lerr
	}
	return opSub.fold(rt, args[0], args[1:])
}

func builtinDiv(rt *Runtime, args []Object) Object {
	if len(args) == 0 {
		return rt.ArgsCount(0, 1, -1)
	}
	if lerr := checkNumbers(rt, args); lerr != Nil {
		return lerr
	}
	acc, rest := args[0], args[1:]
	if len(args) == 1 {
		acc, rest = Int(1), args
	}
	for _, x := range rest {
		acc = divide(rt, acc, x)
		if acc.IsError() {
			return acc
		}
	}
	return acc
}

func divide(rt *Runtime, a, b Object) Object {
	if a.IsInt() && b.IsInt() {
		x, y := int64(a.AsInt()), int64(b.AsInt())
		if y == 0 {
			return rt.Errorf("arithmetic-error", "division by zero")
		}
		if x%y == 0 {
			return intResult(x / y)
		}
		return Float(float64(x) / float64(y))
	}
	x, _ := a.Number()
	y, _ := b.Number()
	return Float(x / y)
}

func builtinMod(rt *Runtime, args []Object) Object {
	if lerr := checkNumbers(rt, args); lerr != Nil {
		return lerr
	}
	a, b := args[0], args[1]
	if a.IsInt() && b.IsInt() {
		x, y := int64(a.AsInt()), int64(b.AsInt())
		if y == 0 {
			return rt.Errorf("arithmetic-error", "division by zero")
		}
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return intResult(m)
	}
	x, _ := a.Number()
	y, _ := b.Number()
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return Float(m)
}

func compareChain(rt *Runtime, args []Object, ok func(x, y float64) bool) Object {
	if len(args) == 0 {
		return rt.ArgsCount(0, 1, -1)
	}
	if lerr := checkNumbers(rt, args); lerr != Nil {
		return lerr
	}
	for i := 1; i < len(args); i++ {
		x, _ := args[i-1].Number()
		y, _ := args[i].Number()
		if !ok(x, y) {
			return Nil
		}
	}
	return T
}

func builtinNumEq(rt *Runtime, args []Object) Object {
	return compareChain(rt, args, func(x, y float64) bool { return x == y })
}

func builtinLT(rt *Runtime, args []Object) Object {
	return compareChain(rt, args, func(x, y float64) bool { return x < y })
}

func builtinGT(rt *Runtime, args []Object) Object {
	return compareChain(rt, args, func(x, y float64) bool { return x > y })
}

func builtinLEq(rt *Runtime, args []Object) Object {
	return compareChain(rt, args, func(x, y float64) bool { return x <= y })
}

func builtinGEq(rt *Runtime, args []Object) Object {
	return compareChain(rt, args, func(x, y float64) bool { return x >= y })
}

func builtinEq(rt *Runtime, args []Object) Object {
	return Bool(Eq(args[0], args[1]))
}

func builtinEqual(rt *Runtime, args []Object) Object {
	return Bool(rt.Equal(args[0], args[1]))
}

// Equal reports whether a and b are structurally equal.
func (rt *Runtime) Equal(a, b Object) bool {
	for {
		if a == b {
			return true
		}
		switch {
		case a.IsString() && b.IsString():
			return string(rt.StringValue(a).Bytes) == string(rt.StringValue(b).Bytes)
		case a.IsCons() && b.IsCons():
			ca, cb := rt.ConsCell(a), rt.ConsCell(b)
			if !rt.Equal(ca.Car, cb.Car) {
				return false
			}
			a, b = ca.Cdr, cb.Cdr
		default:
			return false
		}
	}
}

func builtinNot(rt *Runtime, args []Object) Object {
	return Bool(args[0] == Nil)
}

func typePredicate(is func(Object) bool) NativeFn {
	return func(rt *Runtime, args []Object) Object {
		return Bool(is(args[0]))
	}
}

func builtinTypeOf(rt *Runtime, args []Object) Object {
	return rt.Intern(args[0].Type().String())
}

func builtinFunCall(rt *Runtime, args []Object) Object {
	if len(args) == 0 {
		return rt.ArgsCount(0, 1, -1)
	}
	return rt.Apply(args[0], args[1:]...)
}

func builtinApply(rt *Runtime, args []Object) Object {
	if len(args) < 2 {
		return rt.ArgsCount(len(args), 2, -1)
	}
	last := args[len(args)-1]
	if !last.IsList() {
		return rt.WrongType(TCons, last)
	}
	spread, lerr := rt.ListToSlice(last)
	if lerr != Nil {
		return lerr
	}
	callArgs := make([]Object, 0, len(args)-2+len(spread))
	callArgs = append(callArgs, args[1:len(args)-1]...)
	callArgs = append(callArgs, spread...)
	return rt.Apply(args[0], callArgs...)
}

func builtinMapcar(rt *Runtime, args []Object) Object {
	if len(args) < 2 {
		return rt.ArgsCount(len(args), 2, -1)
	}
	fn := args[0]
	lists := make([]Object, len(args)-1)
	for i, lis := range args[1:] {
		if !lis.IsList() {
			return rt.WrongType(TCons, lis)
		}
		lists[i] = lis
	}
	base := rt.StackHeight()
	defer rt.truncate(base)
	callArgs := make([]Object, len(lists))
	for {
		for i, lis := range lists {
			if lis == Nil {
				return rt.List(rt.stack[base:]...)
			}
			if !lis.IsCons() {
				return rt.ImproperList()
			}
			cell := rt.ConsCell(lis)
			callArgs[i] = cell.Car
			lists[i] = cell.Cdr
		}
		v := rt.Apply(fn, callArgs...)
		if v.IsError() {
			return v
		}
		rt.Push(v)
	}
}

func builtinPrint(rt *Runtime, args []Object) Object {
	fmt.Fprintln(rt.Stdout, rt.Format(args[0])) //nolint:errcheck // output is best effort
	return args[0]
}

func builtinPrinc(rt *Runtime, args []Object) Object {
	fmt.Fprint(rt.Stdout, rt.Display(args[0])) //nolint:errcheck // output is best effort
	return args[0]
}

func builtinFormatObject(rt *Runtime, args []Object) Object {
	return rt.NewString(rt.Format(args[0]))
}

func builtinError(rt *Runtime, args []Object) Object {
	kind := args[0]
	if !kind.IsSymbol() {
		return rt.WrongType(TSymbol, kind)
	}
	items, lerr := rt.ListToSlice(args[1])
	if lerr != Nil {
		return lerr
	}
	parts := make([]string, len(items))
	for i, x := range items {
		parts[i] = rt.Display(x)
	}
	return rt.CustomError(kind, strings.Join(parts, " "))
}

func builtinSymbolName(rt *Runtime, args []Object) Object {
	if !args[0].IsSymbol() {
		return rt.WrongType(TSymbol, args[0])
	}
	return rt.NewString(rt.SymbolName(args[0]))
}

func builtinIntern(rt *Runtime, args []Object) Object {
	if !args[0].IsString() {
		return rt.WrongType(TString, args[0])
	}
	return rt.Intern(rt.Text(args[0]))
}

func builtinMakunbound(rt *Runtime, args []Object) Object {
	sym := args[0]
	if !sym.IsSymbol() {
		return rt.WrongType(TSymbol, sym)
	}
	rt.Unbind(sym)
	return sym
}

func builtinBoundp(rt *Runtime, args []Object) Object {
	if !args[0].IsSymbol() {
		return rt.WrongType(TSymbol, args[0])
	}
	return Bool(rt.IsBound(args[0]))
}

func builtinGC(rt *Runtime, args []Object) Object {
	return Int(int32(rt.Collect().Freed))
}

func builtinGCStats(rt *Runtime, args []Object) Object {
	s := rt.GCStats()
	return rt.List(
		rt.Intern(":cycles"), Int(int32(s.Cycles)),
		rt.Intern(":live"), Int(int32(s.Live)),
		rt.Intern(":freed"), Int(int32(s.Freed)),
		rt.Intern(":threshold"), Int(int32(s.Threshold)),
	)
}
