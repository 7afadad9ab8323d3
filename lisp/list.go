// Copyright © 2018 The ELPS authors

package lisp

// List returns a proper list of items.
func (rt *Runtime) List(items ...Object) Object {
	lis := Nil
	for i := len(items) - 1; i >= 0; i-- {
		lis = rt.Cons(items[i], lis)
	}
	return lis
}

// ListToSlice returns the elements of the proper list lis.  An improper
// list produces an error value.
func (rt *Runtime) ListToSlice(lis Object) ([]Object, Object) {
	var items []Object
	for cur := lis; cur != Nil; {
		if !cur.IsCons() {
			return nil, rt.ImproperList()
		}
		cell := rt.ConsCell(cur)
		items = append(items, cell.Car)
		cur = cell.Cdr
	}
	return items, Nil
}

// Length returns the number of elements in the proper list lis.
func (rt *Runtime) Length(lis Object) (int, Object) {
	n := 0
	for cur := lis; cur != Nil; n++ {
		if !cur.IsCons() {
			return 0, rt.ImproperList()
		}
		cur = rt.ConsCell(cur).Cdr
	}
	return n, Nil
}

// Reverse returns a fresh list with the elements of lis in reverse order.
func (rt *Runtime) Reverse(lis Object) Object {
	rev := Nil
	for cur := lis; cur != Nil; {
		if !cur.IsCons() {
			return rt.ImproperList()
		}
		cell := rt.ConsCell(cur)
		rev = rt.Cons(cell.Car, rev)
		cur = cell.Cdr
	}
	return rev
}
