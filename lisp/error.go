// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"fmt"
	"io"
)

// ErrorKind classifies error values.
type ErrorKind uint8

// Possible ErrorKind values.
const (
	ErrWrongType ErrorKind = iota
	ErrBadArgsCount
	ErrImproperList
	ErrUnboundSymbol
	ErrUndefinedSymbol
	ErrNotAType
	ErrIndexOutOfBounds
	ErrCustom
	ErrHost
)

var errorKindNames = []string{
	ErrWrongType:        "wrong-type-error",
	ErrBadArgsCount:     "wrong-arg-count-error",
	ErrImproperList:     "improper-list-error",
	ErrUnboundSymbol:    "unbound-symbol-error",
	ErrUndefinedSymbol:  "undefined-symbol-error",
	ErrNotAType:         "not-a-type-error",
	ErrIndexOutOfBounds: "index-out-of-bounds-error",
	ErrCustom:           "error",
	ErrHost:             "internal-error",
}

func (k ErrorKind) String() string {
	if int(k) >= len(errorKindNames) {
		return "INVALID"
	}
	return errorKindNames[k]
}

// Error is a first-class error value.  Only the fields relevant to Kind are
// set.
type Error struct {
	Kind ErrorKind

	Wanted Type   // ErrWrongType
	Found  Type   // ErrWrongType
	Value  Object // ErrWrongType offending value, ErrNotAType designator
	Sym    Object // ErrUnboundSymbol, ErrUndefinedSymbol, ErrCustom kind

	Count int // ErrBadArgsCount found, ErrIndexOutOfBounds index
	Min   int // ErrBadArgsCount
	Max   int // ErrBadArgsCount (-1 for unbounded), ErrIndexOutOfBounds length

	Info string // ErrCustom
	Err  error  // ErrHost

	// Stack holds the call stack at the time the error was created,
	// innermost frame last.
	Stack []string
}

func (e *Error) markChildren(gray []Object) []Object {
	return append(gray, e.Value, e.Sym)
}

func (rt *Runtime) newError(e *Error) Object {
	e.Stack = rt.Stack.Names()
	return rt.Heap.alloc(tagError, e)
}

// WrongType returns an error for a value of the wrong type.
func (rt *Runtime) WrongType(wanted Type, found Object) Object {
	return rt.newError(&Error{Kind: ErrWrongType, Wanted: wanted, Found: found.Type(), Value: found, Sym: Nil})
}

// ArgsCount returns an error for a call with the wrong number of
// arguments.  A negative max means there is no upper bound.
func (rt *Runtime) ArgsCount(found, min, max int) Object {
	return rt.newError(&Error{Kind: ErrBadArgsCount, Count: found, Min: min, Max: max, Value: Nil, Sym: Nil})
}

// ImproperList returns an error for a list that does not end in nil.
func (rt *Runtime) ImproperList() Object {
	return rt.newError(&Error{Kind: ErrImproperList, Value: Nil, Sym: Nil})
}

// Unbound returns an error for a reference to an unbound symbol.
func (rt *Runtime) Unbound(sym Object) Object {
	return rt.newError(&Error{Kind: ErrUnboundSymbol, Sym: sym, Value: Nil})
}

// Undefined returns an error for a symbol that names no function.
func (rt *Runtime) Undefined(sym Object) Object {
	return rt.newError(&Error{Kind: ErrUndefinedSymbol, Sym: sym, Value: Nil})
}

// NotAType returns an error for an unknown type designator.
func (rt *Runtime) NotAType(designator Object) Object {
	return rt.newError(&Error{Kind: ErrNotAType, Value: designator, Sym: Nil})
}

// IndexError returns an error for an index outside [0, length).
func (rt *Runtime) IndexError(index, length int) Object {
	return rt.newError(&Error{Kind: ErrIndexOutOfBounds, Count: index, Max: length, Value: Nil, Sym: Nil})
}

// Errorf returns a custom error whose kind is the symbol named kind.
func (rt *Runtime) Errorf(kind string, format string, v ...interface{}) Object {
	return rt.newError(&Error{Kind: ErrCustom, Sym: rt.Intern(kind), Info: fmt.Sprintf(format, v...), Value: Nil})
}

// CustomError returns a custom error with the given kind symbol.
func (rt *Runtime) CustomError(kind Object, info string) Object {
	return rt.newError(&Error{Kind: ErrCustom, Sym: kind, Info: info, Value: Nil})
}

// HostError wraps a Go error.
func (rt *Runtime) HostError(err error) Object {
	return rt.newError(&Error{Kind: ErrHost, Err: err, Value: Nil, Sym: Nil})
}

// ErrorName returns the name catch-error matches against the error o.
func (rt *Runtime) ErrorName(o Object) string {
	e := rt.Error(o)
	if e.Kind == ErrCustom && e.Sym.IsSymbol() {
		return rt.Symbol(e.Sym).Name
	}
	return e.Kind.String()
}

// ErrorMessage renders the error o for display.
func (rt *Runtime) ErrorMessage(o Object) string {
	e := rt.Error(o)
	switch e.Kind {
	case ErrWrongType:
		return fmt.Sprintf("expected type %s but found type %s", e.Wanted, e.Found)
	case ErrBadArgsCount:
		if e.Max < 0 {
			return fmt.Sprintf("wanted at least %d args but found only %d", e.Min, e.Count)
		}
		if e.Min == e.Max {
			return fmt.Sprintf("wanted %d args but found %d", e.Min, e.Count)
		}
		return fmt.Sprintf("wanted between %d and %d args but found %d", e.Min, e.Max, e.Count)
	case ErrImproperList:
		return "found an improper list where a proper one was expected"
	case ErrUnboundSymbol:
		return fmt.Sprintf("symbol %s is unbound", rt.Format(e.Sym))
	case ErrUndefinedSymbol:
		return fmt.Sprintf("symbol %s is undefined", rt.Format(e.Sym))
	case ErrNotAType:
		return fmt.Sprintf("%s is not a type designator", rt.Format(e.Value))
	case ErrIndexOutOfBounds:
		return fmt.Sprintf("index %d out of bounds for length %d", e.Count, e.Max)
	case ErrCustom:
		return fmt.Sprintf("%s: %s", rt.Format(e.Sym), e.Info)
	case ErrHost:
		return fmt.Sprintf("INTERNAL: %v", e.Err)
	}
	return "unknown error"
}

// ErrorVal adapts a lisp error value to the Go error interface.  It copies
// everything it needs out of the heap so it remains valid after the error
// value is collected.
type ErrorVal struct {
	Name    string
	Message string
	Stack   []string
	cause   error
}

// Error implements the error interface.
func (e *ErrorVal) Error() string {
	return e.Message
}

// Unwrap returns the Go error wrapped by a host error, if any.
func (e *ErrorVal) Unwrap() error {
	return e.cause
}

// WriteTrace writes the error and the call stack it was created in to w.
func (e *ErrorVal) WriteTrace(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	n, err := fmt.Fprintf(bw, "%s: %s\n", e.Name, e.Message)
	if err != nil {
		return n, err
	}
	if len(e.Stack) > 0 {
		_n, err := fmt.Fprintln(bw, "Stack Trace [most recent call last]:")
		n += _n
		if err != nil {
			return n, err
		}
		for i, name := range e.Stack {
			_n, err := fmt.Fprintf(bw, "  %d: %s\n", i, name)
			n += _n
			if err != nil {
				return n, err
			}
		}
	}
	return n, bw.Flush()
}

// GoError returns an *ErrorVal for the error value v or nil if v is not an
// error.
func (rt *Runtime) GoError(v Object) error {
	if !v.IsError() {
		return nil
	}
	e := rt.Error(v)
	return &ErrorVal{
		Name:    rt.ErrorName(v),
		Message: rt.ErrorMessage(v),
		Stack:   append([]string(nil), e.Stack...),
		cause:   e.Err,
	}
}
