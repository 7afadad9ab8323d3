// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luthersystems/rlisp/docs"
	"github.com/luthersystems/rlisp/lisp/lisplib/libhelp"
	"github.com/spf13/cobra"
)

type docFlags struct {
	pkg        bool
	sourceFile string
	missing    bool
	guide      string
}

// DocCommand creates the "doc" cobra command.  Embedders can pass
// WithLibrary to document their own builtins.
func DocCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)
	var flags docFlags
	cmd := &cobra.Command{
		Use:   "doc [flags] QUERY",
		Short: "Show rlisp documentation for functions and packages",
		Long: `Show built-in documentation for rlisp functions, special forms and
variables.

By default, looks up a function or variable by name.  Use -p to list every
binding named with a package prefix, such as math or string.  Use -f to
load a source file first, which documents functions defined with a
docstring.  Use --missing to list functions without documentation.  Use
--guide to print the language reference ("lang") or the debugging guide
("debugging").

Examples:
  rlisp doc car                      Show docs for car
  rlisp doc math:sqrt                Show docs for a library function
  rlisp doc -p string                List the string functions
  rlisp doc -f mylib.lisp my-func    Load a file, then show docs for my-func
  rlisp doc --missing                List undocumented functions
  rlisp doc --guide lang             Print the language reference`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.guide != "" {
				return writeGuide(cmd.OutOrStdout(), flags.guide)
			}
			if !flags.missing && len(args) != 1 {
				return cmd.Help()
			}
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush() //nolint:errcheck // best-effort flush on exit
			return docExec(out, cmd.ErrOrStderr(), cfg, flags, query)
		},
	}
	cmd.Flags().BoolVarP(&flags.pkg, "package", "p", false,
		"Interpret the argument as a package name.")
	cmd.Flags().StringVarP(&flags.sourceFile, "source-file", "f", "",
		"Evaluate a lisp source file before querying documentation.")
	cmd.Flags().BoolVar(&flags.missing, "missing", false,
		"List functions that have no documentation.")
	cmd.Flags().StringVar(&flags.guide, "guide", "",
		"Print a guide: lang or debugging.")
	return cmd
}

func writeGuide(w io.Writer, name string) error {
	text, ok := docs.Guides[name]
	if !ok {
		names := make([]string, 0, len(docs.Guides))
		for n := range docs.Guides {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown guide %q (available: %s)", name, strings.Join(names, ", "))
	}
	_, err := io.WriteString(w, text)
	return err
}

func docExec(out, stderr io.Writer, cfg *cmdConfig, flags docFlags, query string) error {
	// Runtime output is discarded unless initialization fails.
	errbuf := &bytes.Buffer{}
	dumperr := func() { _, _ = stderr.Write(errbuf.Bytes()) }
	rt, err := newRuntime(errbuf, errbuf, cfg.runtimeConfig...)
	if err != nil {
		dumperr()
		return err
	}
	if err := cfg.loadLibraries(rt); err != nil {
		dumperr()
		return err
	}
	if flags.sourceFile != "" {
		if err := rt.GoError(rt.LoadFile(flags.sourceFile)); err != nil {
			dumperr()
			writeLispError(stderr, err)
			return fmt.Errorf("unable to load %s", flags.sourceFile)
		}
	}
	switch {
	case flags.missing:
		for _, m := range libhelp.CheckMissing(rt) {
			if _, err := fmt.Fprintf(out, "%s %s\n", m.Kind, m.Name); err != nil {
				return err
			}
		}
		return nil
	case flags.pkg:
		return libhelp.RenderPackage(out, rt, query)
	}
	return libhelp.RenderVar(out, rt, query)
}

func init() {
	rootCmd.AddCommand(DocCommand())
}
