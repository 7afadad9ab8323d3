// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/rlisp/diagnostic"
	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/lisplib"
	"github.com/luthersystems/rlisp/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys.  Each may be set in the config file or through an
// environment variable such as RLISP_GC_THRESHOLD.
const (
	keyGCThreshold  = "gc.threshold"
	keyGCLog        = "gc.log"
	keyMaxCallDepth = "eval.max_call_depth"
	keyReplPrompt   = "repl.prompt"
	keyReplHistory  = "repl.history"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rlisp",
	Short: "A small Lisp interpreter",
	Long: `rlisp is a small dynamically typed Lisp with a tree-walking evaluator
and a mark-sweep garbage collector.

Getting started:
  rlisp run file.lisp          Run a Lisp source file
  rlisp run -e '(+ 1 2)'       Evaluate an expression
  rlisp repl                   Start an interactive REPL
  rlisp doc car                Show documentation for a function
  rlisp doc -p math            List the math functions
  rlisp lint file.lisp         Check files for syntax errors
  rlisp debug file.lisp        Debug a file with a DAP client
  rlisp lsp                    Start the language server

Configuration is read from $HOME/.rlisp.yaml and RLISP_* environment
variables:
  gc.threshold          live objects that trigger the first collection
  gc.log                print a line after every collection
  eval.max_call_depth   maximum call stack height (0 is unlimited)
  repl.prompt           REPL prompt
  repl.history          REPL history file`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rlisp.yaml)")

	viper.SetDefault(keyGCThreshold, lisp.DefaultGCThreshold)
	viper.SetDefault(keyGCLog, false)
	viper.SetDefault(keyMaxCallDepth, lisp.DefaultMaxCallDepth)
	viper.SetDefault(keyReplPrompt, "rlisp> ")
	viper.SetDefault(keyReplHistory, "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".rlisp" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".rlisp")
		}
	}

	viper.SetEnvPrefix("rlisp")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			fmt.Fprintf(os.Stderr, "unable to read config file %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}
}

// runtimeConfig returns the runtime configuration from viper.
func runtimeConfig() []lisp.Config {
	return []lisp.Config{
		lisp.WithGCThreshold(viper.GetInt(keyGCThreshold)),
		lisp.WithMaxCallDepth(viper.GetInt(keyMaxCallDepth)),
		lisp.WithGCLogging(viper.GetBool(keyGCLog)),
	}
}

// newRuntime returns a configured runtime with the standard library
// loaded.  Extra config is applied last.
func newRuntime(stdout, stderr io.Writer, extra ...lisp.Config) (*lisp.Runtime, error) {
	config := append([]lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStdout(stdout),
		lisp.WithStderr(stderr),
	}, runtimeConfig()...)
	config = append(config, extra...)
	rt, err := lisp.NewRuntime(config...)
	if err != nil {
		return nil, err
	}
	if err := rt.GoError(lisplib.LoadLibrary(rt)); err != nil {
		return nil, fmt.Errorf("load-library: %w", err)
	}
	return rt, nil
}

// writeLispError prints err as a diagnostic.  Syntax errors show the
// offending source line and lisp errors their call stack.
func writeLispError(w io.Writer, err error) {
	r := &diagnostic.Renderer{}
	if rerr := r.Render(w, diagnostic.FromError(err)); rerr != nil {
		fmt.Fprintln(w, err) //nolint:errcheck // best-effort error display
	}
}
