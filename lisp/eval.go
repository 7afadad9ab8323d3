// Copyright © 2018 The ELPS authors

package lisp

import "fmt"

// Evaluate evaluates input in the current scope.  The input is pushed onto
// the evaluation stack for the duration of the evaluation, so it and
// everything reachable from it survives a collection.  Whatever the
// evaluation leaves on the stack above the input is dropped on return.
func (rt *Runtime) Evaluate(input Object) Object {
	base := len(rt.stack)
	rt.stack = append(rt.stack, input)
	rt.checkpoint()
	var result Object
	switch input.tag() {
	case tagSymbol:
		result = rt.GetSymbol(input)
	case tagCons:
		result = rt.evalCall(input)
	default:
		result = input
	}
	if len(rt.stack) <= base || rt.stack[base] != input {
		panic(fmt.Sprintf("lisp: evaluation stack corrupted at height %d", base))
	}
	rt.stack = rt.stack[:base]
	return result
}

// evalCall evaluates the application form.
func (rt *Runtime) evalCall(form Object) Object {
	cell := rt.ConsCell(form)
	fn := rt.Evaluate(cell.Car)
	if fn.IsError() {
		return fn
	}
	if !fn.IsFunction() {
		return rt.WrongType(TFunction, fn)
	}
	rt.Push(fn)
	f := rt.Function(fn)
	base := len(rt.stack)
	n := 0
	for rest := cell.Cdr; rest != Nil; n++ {
		if !rest.IsCons() {
			return rt.ImproperList()
		}
		arg := rt.ConsCell(rest)
		rest = arg.Cdr
		if f.Kind == FuncSpecial {
			rt.Push(arg.Car)
			continue
		}
		v := rt.Evaluate(arg.Car)
		if v.IsError() {
			return v
		}
		rt.Push(v)
	}
	args := rt.stack[base : base+n : base+n]
	rt.Push(Int(int32(n)))
	return rt.call(fn, f, args)
}

// Apply calls the function fn with already evaluated arguments.  Special
// forms cannot be applied.
func (rt *Runtime) Apply(fn Object, args ...Object) Object {
	if !fn.IsFunction() {
		return rt.WrongType(TFunction, fn)
	}
	f := rt.Function(fn)
	if f.Kind == FuncSpecial {
		return rt.Errorf("special-form-error", "cannot apply special form %s", rt.FunName(fn))
	}
	base := len(rt.stack)
	rt.Push(fn)
	rt.stack = append(rt.stack, args...)
	frame := rt.stack[base+1 : base+1+len(args) : base+1+len(args)]
	rt.Push(Int(int32(len(args))))
	result := rt.call(fn, f, frame)
	rt.truncate(base)
	return result
}

// call invokes f with the argument frame args.  The caller has fn and args
// on the evaluation stack.
func (rt *Runtime) call(fn Object, f *Function, args []Object) Object {
	err := rt.Stack.Push(CallFrame{
		Fun:    fn,
		Name:   rt.FunName(fn),
		Kind:   f.Kind,
		Height: len(rt.stack),
	})
	if err != nil {
		return rt.Errorf("stack-overflow", "%v", err)
	}
	var end func()
	if rt.Profiler != nil && rt.Profiler.IsEnabled() {
		end = rt.Profiler.Start(fn)
	}
	var result Object
	switch f.Kind {
	case FuncLisp:
		result = rt.callLisp(f, args)
	default:
		result = rt.callNative(f, args)
	}
	if end != nil {
		end()
	}
	rt.Stack.Pop()
	return result
}

func (rt *Runtime) callNative(f *Function, args []Object) Object {
	if f.sig != nil {
		bound, lerr := rt.bindArgs(f.sig, args)
		if lerr != Nil {
			return lerr
		}
		args = bound
	}
	return f.Native(rt, args)
}

// bindArgs checks args against sig and returns one value per parameter:
// missing optionals are nil and &rest parameters get a list of the
// remaining arguments.  The returned values are pushed onto the evaluation
// stack.
func (rt *Runtime) bindArgs(sig *signature, args []Object) ([]Object, Object) {
	min, max := sig.arity()
	n := len(args)
	if n < min || (max >= 0 && n > max) {
		return nil, rt.ArgsCount(n, min, max)
	}
	nparam := len(sig.required) + len(sig.optional)
	if sig.hasRest {
		nparam++
	}
	base := len(rt.stack)
	fixed := len(sig.required) + len(sig.optional)
	for i := 0; i < fixed; i++ {
		if i < n {
			rt.Push(args[i])
		} else {
			rt.Push(Nil)
		}
	}
	if sig.hasRest {
		rest := Nil
		for i := n - 1; i >= fixed; i-- {
			rest = rt.Cons(args[i], rest)
		}
		rt.Push(rest)
	}
	return rt.stack[base : base+nparam : base+nparam], Nil
}

// callLisp binds args in a fresh namespace and evaluates the body of f in
// the scope f captured.
func (rt *Runtime) callLisp(f *Function, args []Object) Object {
	vals, lerr := rt.bindArgs(f.sig, args)
	if lerr != Nil {
		return lerr
	}
	ns := rt.NewNamespace(f.Name)
	frame := rt.Namespace(ns)
	params := f.sig.params()
	var specials []*Symbol
	for i, param := range params {
		if s := rt.Symbol(param); s.special {
			s.binding.Push(vals[i])
			specials = append(specials, s)
			continue
		}
		frame.Set(param, vals[i])
	}

	scope := make([]Object, 0, len(f.Scope)+1)
	scope = append(scope, f.Scope...)
	scope = append(scope, ns)
	rt.callScopes = append(rt.callScopes, rt.scope)
	rt.scope = scope

	result := Nil
	for _, form := range f.Body {
		result = rt.Evaluate(form)
		if result.IsError() {
			break
		}
	}

	for _, s := range specials {
		s.binding.Pop()
	}
	n := len(rt.callScopes)
	rt.scope = rt.callScopes[n-1]
	rt.callScopes = rt.callScopes[:n-1]
	return result
}

// params returns the parameter symbols in binding order.
func (s *signature) params() []Object {
	params := make([]Object, 0, len(s.required)+len(s.optional)+1)
	params = append(params, s.required...)
	params = append(params, s.optional...)
	if s.hasRest {
		params = append(params, s.rest)
	}
	return params
}

// Progn evaluates forms in order and returns the value of the last one.
// Evaluation stops at the first error.
func (rt *Runtime) Progn(forms []Object) Object {
	result := Nil
	for _, form := range forms {
		result = rt.Evaluate(form)
		if result.IsError() {
			return result
		}
	}
	return result
}
