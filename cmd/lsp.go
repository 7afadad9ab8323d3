// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/luthersystems/rlisp/lsp"
	"github.com/spf13/cobra"
)

// LSPCommand creates the "lsp" cobra command.  Embedders can pass
// WithLibrary so that their builtins are completed and documented.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the rlisp Language Server Protocol server",
		Long: `Start an LSP server for rlisp source files.

The language server provides syntax diagnostics, hover documentation,
go-to-definition, find references, completion, signature help, document
and workspace symbols, folding and rename support.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  rlisp lsp                  Start with stdio transport
  rlisp lsp --port 7998      Start with TCP on port 7998`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			serverOpts := []lsp.Option{
				lsp.WithRuntimeConfig(append(runtimeConfig(), cfg.runtimeConfig...)...),
			}
			for _, load := range cfg.libraries {
				serverOpts = append(serverOpts, lsp.WithLibrary(load))
			}

			srv := lsp.New(serverOpts...)

			var err error
			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Printf("rlisp LSP server listening on %s", addr)
				err = srv.RunTCP(addr)
			} else {
				err = srv.RunStdio()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
