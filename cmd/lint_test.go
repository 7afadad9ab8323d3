// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLintClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.lisp")
	require.NoError(t, os.WriteFile(path, []byte("(defun f (x) x)\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := lintExit(strings.NewReader(""), &stdout, &stderr, []string{path})
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
}

func TestLintStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := lintExit(strings.NewReader("(a)\n(b))\n"), &stdout, &stderr, nil)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "--> <stdin>:2")
	assert.Contains(t, stderr.String(), "(b))")
	assert.Contains(t, stderr.String(), "^^^^")
}

func TestLintJSON(t *testing.T) {
	lintJSON = true
	t.Cleanup(func() { lintJSON = false })

	dir := t.TempDir()
	good := filepath.Join(dir, "good.lisp")
	bad := filepath.Join(dir, "bad.lisp")
	require.NoError(t, os.WriteFile(good, []byte("(a)"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("(a\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := lintExit(strings.NewReader(""), &stdout, &stderr, []string{dir + "/..."})
	assert.Equal(t, 1, code)

	var diags []lintDiagnostic
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, bad, diags[0].File)
	assert.NotEmpty(t, diags[0].Message)
}

func TestLintMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := lintExit(strings.NewReader(""), &stdout, &stderr, []string{filepath.Join(t.TempDir(), "nope.lisp")})
	assert.Equal(t, 2, code)
	assert.NotEmpty(t, stderr.String())
}
