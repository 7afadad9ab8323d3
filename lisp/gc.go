// Copyright © 2018 The ELPS authors

package lisp

import "fmt"

// GCStats describes the state of the collector after a cycle.
type GCStats struct {
	Cycles    int
	Live      int
	Freed     int
	Threshold int
}

func (s GCStats) String() string {
	return fmt.Sprintf("gc: cycle %d: %d live, %d freed, next at %d", s.Cycles, s.Live, s.Freed, s.Threshold)
}

// GCStats returns statistics about the most recent collection.
func (rt *Runtime) GCStats() GCStats {
	return rt.gcStats
}

// checkpoint collects if allocation has pushed the live object count over
// the threshold.  Callers must have every object they still need reachable
// from the evaluation stack or the scope.
func (rt *Runtime) checkpoint() {
	if rt.Heap.due {
		rt.Collect()
	}
}

// Collect runs a full mark-sweep cycle.  Roots are the evaluation stack,
// the active scope, scopes saved by calls in progress, the functions on the
// call stack and special variables.
func (rt *Runtime) Collect() GCStats {
	if rt.Profiler != nil && rt.Profiler.IsEnabled() {
		defer rt.Profiler.StartGC()()
	}
	gray := make([]Object, 0, len(rt.stack)+len(rt.scope)+64)
	gray = append(gray, rt.stack...)
	gray = append(gray, rt.scope...)
	for _, scope := range rt.callScopes {
		gray = append(gray, scope...)
	}
	for i := range rt.Stack.Frames {
		gray = append(gray, rt.Stack.Frames[i].Fun)
	}
	gray = append(gray, rt.specials...)
	rt.mark(gray)
	freed := rt.sweep()

	h := rt.Heap
	h.threshold = 2 * len(h.live)
	if h.threshold < h.minThreshold {
		h.threshold = h.minThreshold
	}
	h.due = false

	rt.gcStats = GCStats{
		Cycles:    rt.gcStats.Cycles + 1,
		Live:      len(h.live),
		Freed:     freed,
		Threshold: h.threshold,
	}
	if rt.gcLogging {
		fmt.Fprintln(rt.Stderr, rt.gcStats) //nolint:errcheck // best-effort diagnostics
	}
	return rt.gcStats
}

// mark stamps every object reachable from gray with the current marking.
func (rt *Runtime) mark(gray []Object) {
	h := rt.Heap
	for len(gray) > 0 {
		o := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		if !o.isHeap() {
			continue
		}
		s := &h.slots[o.payload()]
		if s.obj == nil {
			panic(fmt.Sprintf("lisp: root refers to freed heap slot %d", o.payload()))
		}
		if s.mark == h.mark {
			continue
		}
		s.mark = h.mark
		gray = s.obj.markChildren(gray)
	}
}

// sweep frees every object on the live list not stamped with the current
// marking and advances the marking.  It returns the number of objects
// freed.
func (rt *Runtime) sweep() int {
	h := rt.Heap
	kept := h.live[:0]
	freed := 0
	for _, o := range h.live {
		idx := o.payload()
		s := &h.slots[idx]
		if s.mark == h.mark {
			kept = append(kept, o)
			continue
		}
		if sym, ok := s.obj.(*Symbol); ok && rt.symbols[sym.Name] == o {
			delete(rt.symbols, sym.Name)
		}
		*s = heapSlot{}
		h.free = append(h.free, idx)
		freed++
	}
	h.live = kept
	h.mark++
	return freed
}
