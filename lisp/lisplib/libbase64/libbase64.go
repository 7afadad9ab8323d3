// Copyright © 2018 The ELPS authors

package libbase64

import (
	"encoding/base64"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the prefix of the symbols bound by LoadPackage.
const DefaultPackageName = "base64"

// LoadPackage binds the base64 functions in the global namespace of rt.
func LoadPackage(rt *lisp.Runtime) lisp.Object {
	for _, fn := range builtins {
		if e := rt.AddBuiltins(fn); e != lisp.Nil {
			return e
		}
	}
	return lisp.Nil
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, "encode"), lisp.Formals("str"),
		encoder(base64.StdEncoding),
		`Returns the standard base64 encoding of str.`),
	libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, "decode"), lisp.Formals("base64-str"),
		decoder(base64.StdEncoding),
		`Decodes standard base64 text and returns the result as a
		string. Signals invalid-base64 if the input is not valid
		base64.`),
	libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, "encode-url"), lisp.Formals("str"),
		encoder(base64.URLEncoding),
		`Returns the URL-safe base64 encoding of str.`),
	libutil.FunctionDoc(libutil.Qualify(DefaultPackageName, "decode-url"), lisp.Formals("base64-str"),
		decoder(base64.URLEncoding),
		`Decodes URL-safe base64 text and returns the result as a
		string.`),
}

func encoder(enc *base64.Encoding) lisp.NativeFn {
	return func(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
		v := args[0]
		if !v.IsString() {
			return rt.WrongType(lisp.TString, v)
		}
		return rt.NewString(enc.EncodeToString([]byte(rt.Text(v))))
	}
}

func decoder(enc *base64.Encoding) lisp.NativeFn {
	return func(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
		v := args[0]
		if !v.IsString() {
			return rt.WrongType(lisp.TString, v)
		}
		b, err := enc.DecodeString(rt.Text(v))
		if err != nil {
			return rt.Errorf("invalid-base64", "%v", err)
		}
		return rt.NewString(string(b))
	}
}
