// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"

	"github.com/luthersystems/rlisp/repl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive rlisp REPL",
	Long: `Start an interactive read-eval-print loop.

The standard library is loaded automatically.  A form may span several
lines; it is evaluated once its parentheses balance.  Line editing, history
and tab completion of bound names are supported via readline.  Use Ctrl-D
to exit and Ctrl-C to discard the current input.

Example REPL session:
  rlisp> (+ 1 2)
  3
  rlisp> (defun square (x) (* x x))
  square
  rlisp> (square 5)
  25
  rlisp> (help 'car)
  ...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := []repl.Option{
			repl.WithRuntimeConfig(runtimeConfig()...),
		}
		if history := viper.GetString(keyReplHistory); history != "" {
			opts = append(opts, repl.WithHistoryFile(history))
		}
		return repl.RunRepl(viper.GetString(keyReplPrompt), append(opts, repl.WithStdin(os.Stdin))...)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
