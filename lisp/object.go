// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"math"
)

// Object is the tagged value manipulated by the interpreter.  An Object is
// either an IEEE-754 double stored directly or a quiet NaN carrying a 4-bit
// tag and a 48-bit payload.  Heap objects carry the index of their slot in
// the runtime Heap as payload.  Objects are plain values; copying one
// aliases the heap object it refers to.
type Object uint64

// Type classifies Objects.
type Type uint8

// Possible Type values.
const (
	TFloat Type = iota
	TInt
	TBool
	TCons
	TSymbol
	TString
	TFunction
	TError
	TNamespace
)

var typeStrings = []string{
	TFloat:     "float",
	TInt:       "integer",
	TBool:      "boolean",
	TCons:      "cons",
	TSymbol:    "symbol",
	TString:    "string",
	TFunction:  "function",
	TError:     "error",
	TNamespace: "namespace",
}

func (t Type) String() string {
	if int(t) >= len(typeStrings) {
		return "INVALID"
	}
	return typeStrings[t]
}

type tag uint64

const (
	tagNone tag = iota
	tagCons
	tagSymbol
	tagString
	tagFunction
	tagError
	tagNamespace
	tagImmediate
)

const (
	qnan        uint64 = 0x7FF8000000000000
	tagShift           = 48
	tagBits     uint64 = 0xF << tagShift
	payloadMask uint64 = 1<<tagShift - 1
	immShift           = 32
	immBits     uint64 = 0xF << immShift
	immValue    uint64 = 1<<immShift - 1
)

const (
	immBool uint64 = 1 + iota
	immInt
)

// MaxPayload is the largest payload a tagged Object can carry.
const MaxPayload = payloadMask

// The constants nil and t.
const (
	Nil = Object(qnan ^ uint64(tagImmediate)<<tagShift ^ immBool<<immShift)
	T   = Nil ^ 1
)

// NaN is the canonical float NaN.
const NaN = Object(qnan)

func tagObject(t tag, payload uint64) Object {
	if payload > payloadMask {
		panic(fmt.Sprintf("lisp: payload %#x does not fit in 48 bits", payload))
	}
	return Object(qnan ^ uint64(t)<<tagShift ^ payload)
}

// tag decodes the tag of o.  Any bit pattern that is a legitimate double
// decodes to tagNone.
func (o Object) tag() tag {
	if uint64(o)>>52 != 0x7FF {
		return tagNone
	}
	t := tag((uint64(o) ^ qnan) & tagBits >> tagShift)
	if t > tagImmediate {
		return tagNone
	}
	return t
}

func (o Object) payload() uint64 {
	return (uint64(o) ^ qnan) & payloadMask
}

// untag returns the payload of o.  It panics if o does not carry tag t.
func (o Object) untag(t tag) uint64 {
	if o.tag() != t {
		panic(fmt.Sprintf("lisp: untag %v: object has tag %d", t, o.tag()))
	}
	return o.payload()
}

func immediate(kind uint64, v uint64) Object {
	return tagObject(tagImmediate, kind<<immShift|v&immValue)
}

func (o Object) immKind() uint64 {
	if o.tag() != tagImmediate {
		return 0
	}
	return o.payload() & immBits >> immShift
}

// Int returns an integer Object.
func Int(x int32) Object {
	return immediate(immInt, uint64(uint32(x)))
}

// Float returns a float Object.  NaNs that would collide with tagged bit
// patterns are canonicalized.
func Float(f float64) Object {
	o := Object(math.Float64bits(f))
	if o.tag() != tagNone {
		return NaN
	}
	return o
}

// Bool returns T if b is true and Nil otherwise.
func Bool(b bool) Object {
	if b {
		return T
	}
	return Nil
}

// Type returns the type of o.
func (o Object) Type() Type {
	switch o.tag() {
	case tagNone:
		return TFloat
	case tagCons:
		return TCons
	case tagSymbol:
		return TSymbol
	case tagString:
		return TString
	case tagFunction:
		return TFunction
	case tagError:
		return TError
	case tagNamespace:
		return TNamespace
	}
	if o.immKind() == immInt {
		return TInt
	}
	return TBool
}

// Is reports whether o has type t.
func (o Object) Is(t Type) bool {
	return o.Type() == t
}

func (o Object) IsFloat() bool     { return o.tag() == tagNone }
func (o Object) IsInt() bool       { return o.immKind() == immInt }
func (o Object) IsBool() bool      { return o.immKind() == immBool }
func (o Object) IsCons() bool      { return o.tag() == tagCons }
func (o Object) IsSymbol() bool    { return o.tag() == tagSymbol }
func (o Object) IsString() bool    { return o.tag() == tagString }
func (o Object) IsFunction() bool  { return o.tag() == tagFunction }
func (o Object) IsError() bool     { return o.tag() == tagError }
func (o Object) IsNamespace() bool { return o.tag() == tagNamespace }

// IsNumber reports whether o is an integer or a float.
func (o Object) IsNumber() bool {
	return o.IsFloat() || o.IsInt()
}

// IsNil reports whether o is nil, the empty list.
func (o Object) IsNil() bool {
	return o == Nil
}

// IsList reports whether o is nil or a cons.
func (o Object) IsList() bool {
	return o == Nil || o.IsCons()
}

// Truthy reports whether o counts as true in a conditional.  Only nil is
// false.
func (o Object) Truthy() bool {
	return o != Nil
}

// isHeap reports whether o refers to a heap slot.
func (o Object) isHeap() bool {
	t := o.tag()
	return t != tagNone && t != tagImmediate
}

// AsInt returns the integer value of o.
func (o Object) AsInt() int32 {
	if o.immKind() != immInt {
		panic(fmt.Sprintf("lisp: %v is not an integer", o.Type()))
	}
	return int32(uint32(o.payload() & immValue))
}

// AsFloat returns the float value of o.
func (o Object) AsFloat() float64 {
	if o.tag() != tagNone {
		panic(fmt.Sprintf("lisp: %v is not a float", o.Type()))
	}
	return math.Float64frombits(uint64(o))
}

// AsBool returns the boolean value of o.
func (o Object) AsBool() bool {
	if o.immKind() != immBool {
		panic(fmt.Sprintf("lisp: %v is not a boolean", o.Type()))
	}
	return o.payload()&immValue != 0
}

// Number returns the numeric value of o as a float64 and whether o is a
// number at all.
func (o Object) Number() (float64, bool) {
	switch {
	case o.IsInt():
		return float64(o.AsInt()), true
	case o.IsFloat():
		return o.AsFloat(), true
	}
	return 0, false
}

// Eq reports whether a and b are identical.  Identity is bit equality, so
// the integer 1 and the float 1.0 are not Eq.
func Eq(a, b Object) bool {
	return a == b
}

// NumEqual reports whether a and b are numbers with the same value.
func NumEqual(a, b Object) bool {
	x, ok := a.Number()
	if !ok {
		return false
	}
	y, ok := b.Number()
	if !ok {
		return false
	}
	return x == y
}
