// Copyright © 2018 The ELPS authors

package lisp

import "fmt"

// heapObject is implemented by every type stored in the Heap.
type heapObject interface {
	// markChildren appends every Object referenced by the receiver to
	// gray and returns the extended worklist.
	markChildren(gray []Object) []Object
}

type heapSlot struct {
	obj  heapObject
	mark uint64
}

// Heap owns every heap object of a Runtime.  Objects refer to heap values
// by slot index.  Slots of swept objects are recycled through a free list.
type Heap struct {
	slots []heapSlot
	live  []Object
	free  []uint64

	// mark is the current marking generation.  New objects are stamped
	// with the sentinel 0, which mark never takes.
	mark uint64

	threshold    int
	minThreshold int
	due          bool
}

// DefaultGCThreshold is the live object count that triggers the first
// collection when no threshold is configured.
const DefaultGCThreshold = 4096

func newHeap(threshold int) *Heap {
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}
	return &Heap{
		mark:         1,
		threshold:    threshold,
		minThreshold: threshold,
	}
}

// alloc stores obj in the heap and returns an Object tagged with t.
// Allocation never collects; it flags a collection as due once the live
// object count exceeds the threshold.
func (h *Heap) alloc(t tag, obj heapObject) Object {
	var idx uint64
	if n := len(h.free); n > 0 {
		idx = h.free[n-1]
		h.free = h.free[:n-1]
		h.slots[idx] = heapSlot{obj: obj}
	} else {
		idx = uint64(len(h.slots))
		if idx > MaxPayload {
			panic("lisp: heap exhausted")
		}
		h.slots = append(h.slots, heapSlot{obj: obj})
	}
	o := tagObject(t, idx)
	h.live = append(h.live, o)
	if len(h.live) > h.threshold {
		h.due = true
	}
	return o
}

func (h *Heap) get(t tag, o Object) heapObject {
	idx := o.untag(t)
	if idx >= uint64(len(h.slots)) || h.slots[idx].obj == nil {
		panic(fmt.Sprintf("lisp: dangling reference to heap slot %d", idx))
	}
	return h.slots[idx].obj
}

// Live returns the number of objects on the live-object list.
func (h *Heap) Live() int {
	return len(h.live)
}

// Threshold returns the live object count above which a collection is due.
func (h *Heap) Threshold() int {
	return h.threshold
}

// Contains reports whether o refers to a live heap object.  Immediate and
// float Objects are never contained.
func (h *Heap) Contains(o Object) bool {
	if !o.isHeap() {
		return false
	}
	idx := o.payload()
	if idx >= uint64(len(h.slots)) {
		return false
	}
	s := h.slots[idx]
	return s.obj != nil && tagOf(s.obj) == o.tag()
}

func tagOf(obj heapObject) tag {
	switch obj.(type) {
	case *ConsCell:
		return tagCons
	case *Symbol:
		return tagSymbol
	case *String:
		return tagString
	case *Function:
		return tagFunction
	case *Error:
		return tagError
	case *Namespace:
		return tagNamespace
	}
	return tagNone
}

// Cons allocates a new cons cell.
func (rt *Runtime) Cons(car, cdr Object) Object {
	return rt.Heap.alloc(tagCons, &ConsCell{Car: car, Cdr: cdr})
}

// NewString allocates a string.
func (rt *Runtime) NewString(s string) Object {
	return rt.Heap.alloc(tagString, &String{Bytes: []byte(s)})
}

// NewNamespace allocates an empty namespace.  The name may be Nil.
func (rt *Runtime) NewNamespace(name Object) Object {
	return rt.Heap.alloc(tagNamespace, &Namespace{Name: name, table: make(map[Object]Object)})
}

// ConsCell returns the cons cell o refers to.
func (rt *Runtime) ConsCell(o Object) *ConsCell {
	return rt.Heap.get(tagCons, o).(*ConsCell)
}

// Symbol returns the symbol o refers to.
func (rt *Runtime) Symbol(o Object) *Symbol {
	return rt.Heap.get(tagSymbol, o).(*Symbol)
}

// StringValue returns the string o refers to.
func (rt *Runtime) StringValue(o Object) *String {
	return rt.Heap.get(tagString, o).(*String)
}

// Text returns the contents of the string o as a Go string.
func (rt *Runtime) Text(o Object) string {
	return string(rt.StringValue(o).Bytes)
}

// Function returns the function o refers to.
func (rt *Runtime) Function(o Object) *Function {
	return rt.Heap.get(tagFunction, o).(*Function)
}

// Error returns the error o refers to.
func (rt *Runtime) Error(o Object) *Error {
	return rt.Heap.get(tagError, o).(*Error)
}

// Namespace returns the namespace o refers to.
func (rt *Runtime) Namespace(o Object) *Namespace {
	return rt.Heap.get(tagNamespace, o).(*Namespace)
}

// Car returns the car of a cons, or nil for nil.
func (rt *Runtime) Car(o Object) Object {
	if o == Nil {
		return Nil
	}
	return rt.ConsCell(o).Car
}

// Cdr returns the cdr of a cons, or nil for nil.
func (rt *Runtime) Cdr(o Object) Object {
	if o == Nil {
		return Nil
	}
	return rt.ConsCell(o).Cdr
}
