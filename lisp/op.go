// Copyright © 2018 The ELPS authors

package lisp

var langSpecialOps = []BuiltinDef{
	&langBuiltin{"quote", Formals("expr"), opQuote,
		`Returns its argument unevaluated. This is the operator behind
		the ' prefix syntax.`},
	&langBuiltin{"if", Formals("test", "then", OptArgSymbol, "else"), opIf,
		`Evaluates test. If the result is non-nil evaluates and returns
		then, otherwise evaluates and returns else (or nil).`},
	&langBuiltin{"cond", Formals(VarArgSymbol, "clauses"), opCond,
		`Each clause has the form (test expr...). Evaluates the tests in
		order and, for the first non-nil one, evaluates its exprs and
		returns the last value. A clause without exprs returns the value
		of its test. Returns nil when no test succeeds.`},
	&langBuiltin{"let", Formals("bindings", VarArgSymbol, "body"), opLet,
		`Creates local variable bindings evaluated in parallel. Each
		binding is (symbol value) or a bare symbol bound to nil. Binding
		a special variable shadows its dynamic value until the let
		returns. Returns the last body value.`},
	&langBuiltin{"let*", Formals("bindings", VarArgSymbol, "body"), opLetSeq,
		`Like let but the bindings are evaluated sequentially so each one
		can refer to the symbols bound before it.`},
	&langBuiltin{"setq", Formals(VarArgSymbol, "pairs"), opSetq,
		`Takes alternating symbols and value expressions. Evaluates each
		value and assigns it to the innermost binding of its symbol,
		creating a global binding when there is none. Returns the last
		value.`},
	&langBuiltin{"defun", Formals("name", "formals", VarArgSymbol, "body"), opDefun,
		`Defines a named function in the global namespace closing over
		the current scope. Formals may contain &optional and &rest
		markers. A string before the body is the function's docstring.
		Returns name.`},
	&langBuiltin{"lambda", Formals("formals", VarArgSymbol, "body"), opLambda,
		`Returns an anonymous function closing over the current scope.`},
	&langBuiltin{"progn", Formals(VarArgSymbol, "body"), opProgn,
		`Evaluates each expression in order and returns the last value.`},
	&langBuiltin{"defvar", Formals("name", OptArgSymbol, "value"), opDefvar,
		`Declares name a special variable. When name has no value, value
		is evaluated and becomes its global value. Later let bindings of
		name are dynamic. Returns name.`},
	&langBuiltin{"catch-error", Formals("expr", VarArgSymbol, "clauses"), opCatchError,
		`Evaluates expr. If it yields an error, the first clause
		(kind handler...) whose kind names the error, or is t, evaluates
		its handlers with err bound to the error. Without a matching
		clause the error is returned.`},
	&langBuiltin{"check-type", Formals("expr", "type"), opCheckType,
		`Evaluates expr and returns the value if it has the designated
		type: cons, list, number, integer, float, boolean, symbol, string,
		function, error or namespace. Otherwise returns a
		wrong-type-error.`},
	&langBuiltin{"and", Formals(VarArgSymbol, "exprs"), opAnd,
		`Evaluates exprs in order until one is nil. Returns the last value
		evaluated, or t when there are no exprs.`},
	&langBuiltin{"or", Formals(VarArgSymbol, "exprs"), opOr,
		`Evaluates exprs in order until one is non-nil and returns it.
		Returns nil when every expr is nil.`},
	&langBuiltin{"while", Formals("test", VarArgSymbol, "body"), opWhile,
		`Evaluates body repeatedly while test evaluates to non-nil.
		Returns nil.`},
	&langBuiltin{"errorp", Formals("expr"), opErrorp,
		`Evaluates expr and returns t if the result is an error. Unlike an
		ordinary function, errorp receives the error instead of
		propagating it.`},
	&langBuiltin{"error-kind", Formals("expr"), opErrorKind,
		`Evaluates expr, which must yield an error, and returns the symbol
		catch-error matches the error against.`},
	&langBuiltin{"error-message", Formals("expr"), opErrorMessage,
		`Evaluates expr, which must yield an error, and returns its
		message as a string.`},
}

func opQuote(rt *Runtime, args []Object) Object {
	return args[0]
}

func opIf(rt *Runtime, args []Object) Object {
	test := rt.Evaluate(args[0])
	if test.IsError() {
		return test
	}
	if test.Truthy() {
		return rt.Evaluate(args[1])
	}
	return rt.Evaluate(args[2])
}

func opCond(rt *Runtime, args []Object) Object {
	clauses, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	for _, clause := range clauses {
		if !clause.IsCons() {
			return rt.WrongType(TCons, clause)
		}
		cell := rt.ConsCell(clause)
		test := rt.Evaluate(cell.Car)
		if test.IsError() {
			return test
		}
		if !test.Truthy() {
			continue
		}
		body, lerr := rt.ListToSlice(cell.Cdr)
		if lerr != Nil {
			return lerr
		}
		if len(body) == 0 {
			return test
		}
		return rt.Progn(body)
	}
	return Nil
}

// letBinding splits a let binding into its symbol and value form.
func (rt *Runtime) letBinding(b Object) (sym, form, lerr Object) {
	if b.IsSymbol() {
		return b, Nil, rt.checkBindable(b)
	}
	if !b.IsCons() {
		return Nil, Nil, rt.WrongType(TCons, b)
	}
	parts, lerr := rt.ListToSlice(b)
	if lerr != Nil {
		return Nil, Nil, lerr
	}
	if len(parts) > 2 {
		return Nil, Nil, rt.Errorf("syntax-error", "let binding has %d elements", len(parts))
	}
	sym = parts[0]
	if !sym.IsSymbol() {
		return Nil, Nil, rt.WrongType(TSymbol, sym)
	}
	if len(parts) == 2 {
		form = parts[1]
	} else {
		form = Nil
	}
	return sym, form, rt.checkBindable(sym)
}

// checkBindable returns an error value if sym is a constant.
func (rt *Runtime) checkBindable(sym Object) Object {
	if rt.Symbol(sym).IsKeyword() {
		return rt.Errorf("syntax-error", "cannot bind constant %s", rt.SymbolName(sym))
	}
	return Nil
}

// letScope tracks the bindings established by let and let*.
type letScope struct {
	rt       *Runtime
	frame    *Namespace
	specials []*Symbol
}

func (rt *Runtime) beginLet() *letScope {
	ns := rt.NewNamespace(rt.Intern("let"))
	rt.NewScope(ns)
	return &letScope{rt: rt, frame: rt.Namespace(ns)}
}

func (l *letScope) bind(sym, val Object) {
	if s := l.rt.Symbol(sym); s.special {
		s.binding.Push(val)
		l.specials = append(l.specials, s)
		return
	}
	l.frame.Set(sym, val)
}

func (l *letScope) end() {
	for _, s := range l.specials {
		s.binding.Pop()
	}
	l.rt.EndScope()
}

func opLet(rt *Runtime, args []Object) Object {
	bindings, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	body, lerr := rt.ListToSlice(args[1])
	if lerr != Nil {
		return lerr
	}
	syms := make([]Object, len(bindings))
	base := rt.StackHeight()
	defer rt.truncate(base)
	for i, b := range bindings {
		sym, form, lerr := rt.letBinding(b)
		if lerr != Nil {
			return lerr
		}
		v := rt.Evaluate(form)
		if v.IsError() {
			return v
		}
		syms[i] = sym
		rt.Push(v)
	}
	vals := rt.stack[base:]
	let := rt.beginLet()
	for i := range syms {
		let.bind(syms[i], vals[i])
	}
	result := rt.Progn(body)
	let.end()
	return result
}

func opLetSeq(rt *Runtime, args []Object) Object {
	bindings, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	body, lerr := rt.ListToSlice(args[1])
	if lerr != Nil {
		return lerr
	}
	let := rt.beginLet()
	defer let.end()
	for _, b := range bindings {
		sym, form, lerr := rt.letBinding(b)
		if lerr != Nil {
			return lerr
		}
		v := rt.Evaluate(form)
		if v.IsError() {
			return v
		}
		let.bind(sym, v)
	}
	return rt.Progn(body)
}

func opSetq(rt *Runtime, args []Object) Object {
	pairs, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	if len(pairs)%2 != 0 {
		return rt.Errorf("syntax-error", "setq given an odd number of arguments")
	}
	result := Nil
	for i := 0; i < len(pairs); i += 2 {
		sym := pairs[i]
		if !sym.IsSymbol() {
			return rt.WrongType(TSymbol, sym)
		}
		if lerr := rt.checkBindable(sym); lerr != Nil {
			return lerr
		}
		result = rt.Evaluate(pairs[i+1])
		if result.IsError() {
			return result
		}
		rt.SetSymbol(sym, result)
	}
	return result
}

func opDefun(rt *Runtime, args []Object) Object {
	name := args[0]
	if !name.IsSymbol() {
		return rt.WrongType(TSymbol, name)
	}
	body, lerr := rt.ListToSlice(args[2])
	if lerr != Nil {
		return lerr
	}
	fn := rt.NewLispFunc(name, args[1], body)
	if fn.IsError() {
		return fn
	}
	rt.Define(name, fn)
	return name
}

func opLambda(rt *Runtime, args []Object) Object {
	body, lerr := rt.ListToSlice(args[1])
	if lerr != Nil {
		return lerr
	}
	return rt.NewLispFunc(Nil, args[0], body)
}

func opProgn(rt *Runtime, args []Object) Object {
	body, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	return rt.Progn(body)
}

func opDefvar(rt *Runtime, args []Object) Object {
	sym := args[0]
	if !sym.IsSymbol() {
		return rt.WrongType(TSymbol, sym)
	}
	if lerr := rt.checkBindable(sym); lerr != Nil {
		return lerr
	}
	rt.declareSpecial(sym)
	s := rt.Symbol(sym)
	if _, ok := s.binding.Value(); ok {
		return sym
	}
	v := rt.Evaluate(args[1])
	if v.IsError() {
		return v
	}
	s.binding.Set(v)
	return sym
}

func opCatchError(rt *Runtime, args []Object) Object {
	v := rt.Evaluate(args[0])
	if !v.IsError() {
		return v
	}
	rt.Push(v)
	defer rt.Pop()
	clauses, lerr := rt.ListToSlice(args[1])
	if lerr != Nil {
		return lerr
	}
	name := rt.ErrorName(v)
	for _, clause := range clauses {
		if !clause.IsCons() {
			return rt.WrongType(TCons, clause)
		}
		cell := rt.ConsCell(clause)
		kind := cell.Car
		switch {
		case kind == T:
		case kind.IsSymbol():
			if n := rt.SymbolName(kind); n != "t" && n != name {
				continue
			}
		default:
			return rt.WrongType(TSymbol, kind)
		}
		handlers, lerr := rt.ListToSlice(cell.Cdr)
		if lerr != Nil {
			return lerr
		}
		let := rt.beginLet()
		let.bind(rt.Intern("err"), v)
		result := rt.Progn(handlers)
		let.end()
		return result
	}
	return v
}

// typeDesignators maps check-type designators to predicates.
var typeDesignators = map[string]func(Object) bool{
	"cons":      Object.IsCons,
	"list":      Object.IsList,
	"number":    Object.IsNumber,
	"integer":   Object.IsInt,
	"float":     Object.IsFloat,
	"boolean":   Object.IsBool,
	"symbol":    Object.IsSymbol,
	"string":    Object.IsString,
	"function":  Object.IsFunction,
	"error":     Object.IsError,
	"namespace": Object.IsNamespace,
}

// designatorTypes is the Type reported for a failed check.
var designatorTypes = map[string]Type{
	"cons":      TCons,
	"list":      TCons,
	"number":    TFloat,
	"integer":   TInt,
	"float":     TFloat,
	"boolean":   TBool,
	"symbol":    TSymbol,
	"string":    TString,
	"function":  TFunction,
	"error":     TError,
	"namespace": TNamespace,
}

func opCheckType(rt *Runtime, args []Object) Object {
	designator := args[1]
	if !designator.IsSymbol() {
		return rt.NotAType(designator)
	}
	is, ok := typeDesignators[rt.SymbolName(designator)]
	if !ok {
		return rt.NotAType(designator)
	}
	v := rt.Evaluate(args[0])
	if v.IsError() {
		return v
	}
	if !is(v) {
		return rt.WrongType(designatorTypes[rt.SymbolName(designator)], v)
	}
	return v
}

func opAnd(rt *Runtime, args []Object) Object {
	exprs, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	result := T
	for _, expr := range exprs {
		result = rt.Evaluate(expr)
		if result.IsError() || !result.Truthy() {
			return result
		}
	}
	return result
}

func opOr(rt *Runtime, args []Object) Object {
	exprs, lerr := rt.ListToSlice(args[0])
	if lerr != Nil {
		return lerr
	}
	for _, expr := range exprs {
		v := rt.Evaluate(expr)
		if v.IsError() || v.Truthy() {
			return v
		}
	}
	return Nil
}

func opWhile(rt *Runtime, args []Object) Object {
	body, lerr := rt.ListToSlice(args[1])
	if lerr != Nil {
		return lerr
	}
	for {
		test := rt.Evaluate(args[0])
		if test.IsError() {
			return test
		}
		if !test.Truthy() {
			return Nil
		}
		if v := rt.Progn(body); v.IsError() {
			return v
		}
	}
}

func opErrorp(rt *Runtime, args []Object) Object {
	return Bool(rt.Evaluate(args[0]).IsError())
}

func opErrorKind(rt *Runtime, args []Object) Object {
	v := rt.Evaluate(args[0])
	if !v.IsError() {
		return rt.WrongType(TError, v)
	}
	return rt.Intern(rt.ErrorName(v))
}

func opErrorMessage(rt *Runtime, args []Object) Object {
	v := rt.Evaluate(args[0])
	if !v.IsError() {
		return rt.WrongType(TError, v)
	}
	return rt.NewString(rt.ErrorMessage(v))
}
