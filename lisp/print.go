// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
)

// Format returns the printed representation of o.  Values other than
// functions, errors and namespaces print in a form the reader accepts.
func (rt *Runtime) Format(o Object) string {
	var buf bytes.Buffer
	rt.writeObject(&buf, o, true)
	return buf.String()
}

// Display returns the representation of o used by princ: strings print
// without quotes or escapes.
func (rt *Runtime) Display(o Object) string {
	var buf bytes.Buffer
	rt.writeObject(&buf, o, false)
	return buf.String()
}

// WriteObject writes the printed representation of o to w.
func (rt *Runtime) WriteObject(w io.Writer, o Object) (int, error) {
	return io.WriteString(w, rt.Format(o))
}

func (rt *Runtime) writeObject(buf *bytes.Buffer, o Object, readable bool) {
	switch o.Type() {
	case TBool:
		if o.AsBool() {
			buf.WriteString("t")
		} else {
			buf.WriteString("nil")
		}
	case TInt:
		buf.WriteString(strconv.FormatInt(int64(o.AsInt()), 10))
	case TFloat:
		buf.WriteString(FormatFloat(o.AsFloat()))
	case TSymbol:
		buf.WriteString(rt.Symbol(o).Name)
	case TString:
		if readable {
			writeQuoted(buf, rt.StringValue(o).Bytes)
		} else {
			buf.Write(rt.StringValue(o).Bytes)
		}
	case TCons:
		rt.writeList(buf, o, readable)
	case TFunction:
		buf.WriteString("#<")
		buf.WriteString(rt.Function(o).Kind.String())
		buf.WriteString(" ")
		buf.WriteString(rt.FunName(o))
		buf.WriteString(">")
	case TError:
		buf.WriteString("#<error ")
		buf.WriteString(rt.ErrorMessage(o))
		buf.WriteString(">")
	case TNamespace:
		buf.WriteString("#<namespace ")
		name := rt.Namespace(o).Name
		if name.IsSymbol() {
			buf.WriteString(rt.Symbol(name).Name)
		} else {
			buf.WriteString("anonymous")
		}
		buf.WriteString(">")
	}
}

func (rt *Runtime) writeList(buf *bytes.Buffer, o Object, readable bool) {
	buf.WriteString("(")
	for first := true; ; first = false {
		cell := rt.ConsCell(o)
		if !first {
			buf.WriteString(" ")
		}
		rt.writeObject(buf, cell.Car, readable)
		o = cell.Cdr
		if o == Nil {
			break
		}
		if !o.IsCons() {
			buf.WriteString(" . ")
			rt.writeObject(buf, o, readable)
			break
		}
	}
	buf.WriteString(")")
}

// FormatFloat formats f so that it reads back as a float.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "+nan.0"
	case math.IsInf(f, 1):
		return "+inf.0"
	case math.IsInf(f, -1):
		return "-inf.0"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func writeQuoted(buf *bytes.Buffer, b []byte) {
	buf.WriteByte('"')
	for _, c := range b {
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}
