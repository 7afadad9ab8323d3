// Copyright © 2018 The ELPS authors

package lisp

import "sort"

// ConsCell is a pair.  Lists are chains of cons cells terminated by nil.
type ConsCell struct {
	Car Object
	Cdr Object
}

func (c *ConsCell) markChildren(gray []Object) []Object {
	return append(gray, c.Car, c.Cdr)
}

// Symbol is an interned name.  The binding stack holds the dynamic value of
// a special variable (see defvar); lexical bindings live in Namespaces.
type Symbol struct {
	Name    string
	special bool
	binding Binding
}

// Special reports whether the symbol was declared a special variable.
func (s *Symbol) Special() bool {
	return s.special
}

// Binding returns the dynamic binding stack of the symbol.
func (s *Symbol) Binding() *Binding {
	return &s.binding
}

// IsKeyword reports whether the symbol self-evaluates.
func (s *Symbol) IsKeyword() bool {
	return len(s.Name) > 1 && s.Name[0] == ':'
}

func (s *Symbol) markChildren(gray []Object) []Object {
	s.binding.each(func(v Object) {
		gray = append(gray, v)
	})
	return gray
}

// Binding is a stack of optional values.  The top frame holds the current
// value; a frame without a value leaves the symbol unbound.
type Binding struct {
	top   *bindingFrame
	depth int
}

type bindingFrame struct {
	value Object
	bound bool
	prev  *bindingFrame
}

// Push shadows the current value with v.
func (b *Binding) Push(v Object) {
	b.top = &bindingFrame{value: v, bound: true, prev: b.top}
	b.depth++
}

// PushUnbound shadows the current value with an unbound frame.
func (b *Binding) PushUnbound() {
	b.top = &bindingFrame{prev: b.top}
	b.depth++
}

// Pop removes the innermost frame, exposing the previous value.  Pop panics
// if the stack is empty.
func (b *Binding) Pop() {
	if b.top == nil {
		panic("lisp: pop of empty binding stack")
	}
	b.top = b.top.prev
	b.depth--
}

// Set replaces the value of the innermost frame.  Set on an empty stack
// pushes the first frame.
func (b *Binding) Set(v Object) {
	if b.top == nil {
		b.Push(v)
		return
	}
	b.top.value = v
	b.top.bound = true
}

// Reset makes the innermost frame unbound without changing the depth.
func (b *Binding) Reset() {
	if b.top == nil {
		return
	}
	b.top.value = Nil
	b.top.bound = false
}

// Value returns the current value and whether there is one.
func (b *Binding) Value() (Object, bool) {
	if b.top == nil || !b.top.bound {
		return Nil, false
	}
	return b.top.value, true
}

// Depth returns the number of frames on the stack.
func (b *Binding) Depth() int {
	return b.depth
}

func (b *Binding) each(fn func(Object)) {
	for f := b.top; f != nil; f = f.prev {
		if f.bound {
			fn(f.value)
		}
	}
}

// String is an immutable byte string.
type String struct {
	Bytes []byte
}

func (s *String) markChildren(gray []Object) []Object {
	return gray
}

// Namespace is one frame of bindings keyed by symbol.
type Namespace struct {
	Name  Object
	table map[Object]Object
}

// Get returns the value bound to sym in the frame.
func (ns *Namespace) Get(sym Object) (Object, bool) {
	v, ok := ns.table[sym]
	return v, ok
}

// Set binds sym to v in the frame.
func (ns *Namespace) Set(sym, v Object) {
	ns.table[sym] = v
}

// Delete removes the binding of sym from the frame.
func (ns *Namespace) Delete(sym Object) {
	delete(ns.table, sym)
}

// Len returns the number of bindings in the frame.
func (ns *Namespace) Len() int {
	return len(ns.table)
}

// Symbols returns the bound symbols ordered by name.
func (ns *Namespace) Symbols(rt *Runtime) []Object {
	syms := make([]Object, 0, len(ns.table))
	for sym := range ns.table {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return rt.Symbol(syms[i]).Name < rt.Symbol(syms[j]).Name
	})
	return syms
}

func (ns *Namespace) markChildren(gray []Object) []Object {
	gray = append(gray, ns.Name)
	for sym, v := range ns.table {
		gray = append(gray, sym, v)
	}
	return gray
}
