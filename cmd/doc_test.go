// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDoc(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := DocCommand(WithLibrary(func(rt *lisp.Runtime) lisp.Object {
		fn, lerr := rt.NewNativeFunc("my-helper", []string{"x"}, func(rt *lisp.Runtime, args []lisp.Object) lisp.Object {
			return args[0]
		})
		if lerr != lisp.Nil {
			return lerr
		}
		rt.Function(fn).Doc = "Returns x unchanged."
		rt.Define(rt.Intern("my-helper"), fn)
		return lisp.Nil
	}))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDocCommand_DefaultFlags(t *testing.T) {
	cmd := DocCommand()
	assert.Equal(t, "doc [flags] QUERY", cmd.Use)
	for _, name := range []string{"package", "source-file", "missing", "guide"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestDocCommand_Builtin(t *testing.T) {
	out, err := runDoc(t, "car")
	require.NoError(t, err)
	assert.Contains(t, out, "car")
}

func TestDocCommand_WithLibrary(t *testing.T) {
	out, err := runDoc(t, "my-helper")
	require.NoError(t, err)
	assert.Contains(t, out, "Returns x unchanged.")
}

func TestDocCommand_SourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.lisp")
	src := `(defun greet (name) "Greets someone by name." (list 'hello name))`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	out, err := runDoc(t, "-f", path, "greet")
	require.NoError(t, err)
	assert.Contains(t, out, "Greets someone by name.")
}

func TestDocCommand_Package(t *testing.T) {
	_, err := runDoc(t, "-p", "no-such-package")
	assert.Error(t, err)
}

func TestDocCommand_Guide(t *testing.T) {
	out, err := runDoc(t, "--guide", "lang")
	require.NoError(t, err)
	assert.Contains(t, out, "# rlisp language reference")

	out, err = runDoc(t, "--guide", "debugging")
	require.NoError(t, err)
	assert.Contains(t, out, "function breakpoints")

	_, err = runDoc(t, "--guide", "nope")
	assert.ErrorContains(t, err, "available: debugging, lang")
}

func TestDocCommand_PackageListing(t *testing.T) {
	out, err := runDoc(t, "-p", "regexp")
	require.NoError(t, err)
	assert.Contains(t, out, "regexp:find-all")
}
