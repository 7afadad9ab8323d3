// Copyright © 2018 The ELPS authors

package lisp

// Intern returns the symbol named name, allocating it the first time the
// name is seen.  Interned symbols are identical, so Eq compares them by
// name.
func (rt *Runtime) Intern(name string) Object {
	if sym, ok := rt.symbols[name]; ok {
		return sym
	}
	sym := rt.Heap.alloc(tagSymbol, &Symbol{Name: name})
	rt.symbols[name] = sym
	return sym
}

// SymbolName returns the name of the symbol o.
func (rt *Runtime) SymbolName(o Object) string {
	return rt.Symbol(o).Name
}

// Global returns the global namespace, frame 0 of every scope.
func (rt *Runtime) Global() Object {
	return rt.global
}

// Scope returns a copy of the active namespace frames, outermost first.
func (rt *Runtime) Scope() []Object {
	return append([]Object(nil), rt.scope...)
}

// GetSymbol returns the value of sym in the current scope.  The symbols nil
// and t evaluate to themselves, as do keywords.  The dynamic binding of a
// special variable takes precedence over lexical frames.  An unbound symbol
// produces an error value.
func (rt *Runtime) GetSymbol(sym Object) Object {
	s := rt.Symbol(sym)
	switch s.Name {
	case "nil":
		return Nil
	case "t":
		return T
	}
	if s.IsKeyword() {
		return sym
	}
	if s.special {
		if v, ok := s.binding.Value(); ok {
			return v
		}
		return rt.Unbound(sym)
	}
	for i := len(rt.scope) - 1; i >= 0; i-- {
		if v, ok := rt.Namespace(rt.scope[i]).Get(sym); ok {
			return v
		}
	}
	return rt.Unbound(sym)
}

// SetSymbol assigns val to sym.  The innermost frame binding sym is
// updated; when no frame binds it the global namespace gets a new binding.
func (rt *Runtime) SetSymbol(sym, val Object) {
	s := rt.Symbol(sym)
	if s.special {
		s.binding.Set(val)
		return
	}
	for i := len(rt.scope) - 1; i >= 0; i-- {
		ns := rt.Namespace(rt.scope[i])
		if _, ok := ns.Get(sym); ok {
			ns.Set(sym, val)
			return
		}
	}
	rt.Namespace(rt.global).Set(sym, val)
}

// Define binds sym to val in the global namespace.
func (rt *Runtime) Define(sym, val Object) {
	rt.Namespace(rt.global).Set(sym, val)
}

// IsBound reports whether sym has a value in the current scope.
func (rt *Runtime) IsBound(sym Object) bool {
	return !rt.GetSymbol(sym).IsError()
}

// NewScope pushes the namespace ns as the innermost frame.
func (rt *Runtime) NewScope(ns Object) {
	if !ns.IsNamespace() {
		panic("lisp: scope frame is not a namespace")
	}
	rt.scope = append(rt.scope, ns)
}

// EndScope pops the innermost frame.  The global frame is permanent;
// popping it panics.
func (rt *Runtime) EndScope() {
	if len(rt.scope) <= 1 {
		panic("lisp: attempt to pop the global namespace")
	}
	rt.scope = rt.scope[:len(rt.scope)-1]
}

// Specials returns the symbols declared special, in declaration order.
func (rt *Runtime) Specials() []Object {
	return append([]Object(nil), rt.specials...)
}

// declareSpecial marks sym as a special variable.  Its current global
// value, if any, moves to the symbol's binding stack.  Special symbols are
// collector roots since no namespace refers to them.
func (rt *Runtime) declareSpecial(sym Object) {
	s := rt.Symbol(sym)
	if s.special {
		return
	}
	s.special = true
	rt.specials = append(rt.specials, sym)
	global := rt.Namespace(rt.global)
	if v, ok := global.Get(sym); ok {
		s.binding.Push(v)
		global.Delete(sym)
		return
	}
	s.binding.PushUnbound()
}

// Unbind removes the innermost binding of sym.  The current dynamic binding
// of a special variable is reset instead.
func (rt *Runtime) Unbind(sym Object) {
	s := rt.Symbol(sym)
	if s.special {
		s.binding.Reset()
		return
	}
	for i := len(rt.scope) - 1; i >= 0; i-- {
		ns := rt.Namespace(rt.scope[i])
		if _, ok := ns.Get(sym); ok {
			ns.Delete(sym)
			return
		}
	}
}
