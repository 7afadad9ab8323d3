// Copyright © 2018 The ELPS authors

// Package libtime binds functions on timestamps.  Instants are RFC 3339
// strings or Unix times in seconds and durations are seconds, both as
// floats.
package libtime

import (
	"time"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the prefix of the symbols bound by LoadPackage.
const DefaultPackageName = "time"

// ErrTimeFormat is the kind of the error signaled for unparsable input.
const ErrTimeFormat = "time-format-error"

// LoadPackage binds the time functions in the global namespace of rt.
func LoadPackage(rt *lisp.Runtime) lisp.Object {
	for _, fn := range builtins {
		if e := rt.AddBuiltins(fn); e != lisp.Nil {
			return e
		}
	}
	return lisp.Nil
}

func fn(name string, formals []string, fun lisp.NativeFn, docs string) *libutil.Builtin {
	return libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, name), formals, fun, docs)
}

var builtins = []*libutil.Builtin{
	fn("utc-now", lisp.Formals(), builtinUTCNow,
		`Returns the current time in UTC as an RFC 3339 string with
		nanosecond precision.`),
	fn("unix-now", lisp.Formals(), builtinUnixNow,
		`Returns the current Unix time in seconds as a float.`),
	fn("parse-rfc3339", lisp.Formals("timestamp"), builtinParseRFC3339,
		`Parses an RFC 3339 timestamp such as "2023-01-15T10:30:00Z" and
		returns its Unix time in seconds as a float. Fractional seconds
		are accepted. Signals time-format-error for malformed input.`),
	fn("format-rfc3339", lisp.Formals("seconds"), builtinFormatRFC3339,
		`Formats a Unix time in seconds as an RFC 3339 string in UTC.
		Fractional seconds are kept.`),
	fn("parse-duration", lisp.Formals("duration-string"), builtinParseDuration,
		`Parses a duration string such as "1h30m" or "500ms" and returns
		the number of seconds as a float. Valid units are "ns", "us",
		"ms", "s", "m" and "h".`),
}

func builtinUTCNow(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	return rt.NewString(time.Now().UTC().Format(time.RFC3339Nano))
}

func builtinUnixNow(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	return lisp.Float(seconds(time.Now()))
}

func builtinParseRFC3339(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	stamp := args[0]
	if !stamp.IsString() {
		return rt.WrongType(lisp.TString, stamp)
	}
	t, err := time.Parse(time.RFC3339Nano, rt.Text(stamp))
	if err != nil {
		return rt.Errorf(ErrTimeFormat, "%v", err)
	}
	return lisp.Float(seconds(t))
}

func builtinFormatRFC3339(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	secs := args[0]
	if !secs.IsNumber() {
		return rt.WrongType(lisp.TFloat, secs)
	}
	var f float64
	if secs.IsInt() {
		f = float64(secs.AsInt())
	} else {
		f = secs.AsFloat()
	}
	whole := int64(f)
	nanos := int64((f - float64(whole)) * 1e9)
	return rt.NewString(time.Unix(whole, nanos).UTC().Format(time.RFC3339Nano))
}

func builtinParseDuration(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
	s := args[0]
	if !s.IsString() {
		return rt.WrongType(lisp.TString, s)
	}
	d, err := time.ParseDuration(rt.Text(s))
	if err != nil {
		return rt.Errorf(ErrTimeFormat, "%v", err)
	}
	return lisp.Float(d.Seconds())
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
