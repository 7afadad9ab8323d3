// Copyright © 2018 The ELPS authors

package debugger

import (
	"sort"
	"sync"

	"github.com/luthersystems/rlisp/lisp"
)

// Breakpoint pauses execution when the named function is called.
type Breakpoint struct {
	ID        int
	Function  string
	Condition string // optional lisp expression
	Enabled   bool
	Hits      int
}

// BreakpointStore holds function breakpoints keyed by function name.  It is
// safe for concurrent use by the protocol goroutine and the eval goroutine.
type BreakpointStore struct {
	mu     sync.RWMutex
	byName map[string]*Breakpoint
	nextID int
}

// NewBreakpointStore returns an empty breakpoint store.
func NewBreakpointStore() *BreakpointStore {
	return &BreakpointStore{
		byName: make(map[string]*Breakpoint),
	}
}

// Set adds a breakpoint on function name or updates the condition of an
// existing one.
func (s *BreakpointStore) Set(name string, condition string) *Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(name, condition)
}

func (s *BreakpointStore) set(name string, condition string) *Breakpoint {
	bp, ok := s.byName[name]
	if ok {
		bp.Condition = condition
		bp.Enabled = true
		return bp
	}
	s.nextID++
	bp = &Breakpoint{
		ID:        s.nextID,
		Function:  name,
		Condition: condition,
		Enabled:   true,
	}
	s.byName[name] = bp
	return bp
}

// Remove deletes the breakpoint on name and reports whether it existed.
func (s *BreakpointStore) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byName[name]
	delete(s.byName, name)
	return ok
}

// Replace discards every breakpoint and sets one per name, the way the
// setFunctionBreakpoints request works.  Conditions are matched to names
// by index.
func (s *BreakpointStore) Replace(names []string, conditions []string) []*Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName = make(map[string]*Breakpoint, len(names))
	result := make([]*Breakpoint, len(names))
	for i, name := range names {
		var cond string
		if i < len(conditions) {
			cond = conditions[i]
		}
		result[i] = s.set(name, cond)
	}
	return result
}

// Match returns the enabled breakpoint on name, or nil.  A match counts as
// a hit.
func (s *BreakpointStore) Match(name string) *Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.byName[name]
	if !ok || !bp.Enabled {
		return nil
	}
	bp.Hits++
	return bp
}

// All returns the breakpoints ordered by ID.
func (s *BreakpointStore) All() []*Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Breakpoint, 0, len(s.byName))
	for _, bp := range s.byName {
		all = append(all, bp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// EvalCondition evaluates condition in the current scope of rt with the
// parameters of the innermost call bound.  An empty condition is
// satisfied.  Conditions that evaluate to nil or an error are not.
func EvalCondition(rt *lisp.Runtime, condition string) bool {
	if condition == "" {
		return true
	}
	result := evalInFrame(rt, "breakpoint-condition", condition)
	return result != lisp.Nil && !result.IsError()
}
