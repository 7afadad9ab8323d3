// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/x/debugger/dapserver"
	"github.com/spf13/cobra"
)

var (
	debugPort  int
	debugStdio bool
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags]",
	Short: "Start a DAP debug adapter",
	Long: `Start a debug adapter for editors that speak the Debug Adapter
Protocol (VS Code, Neovim, Helix, etc.).

The client names the program to debug in its launch request:
  {"program": "file.lisp", "stopOnEntry": false}

Breakpoints are set on function names.  Execution pauses when a function
with a breakpoint is called, and stepping moves between function calls.

Transport modes:
  --port N     Listen for a DAP client on TCP port N (default: 4711)
  --stdio      Use stdin/stdout for DAP communication (for editors that
               launch the debug adapter as a child process)

Examples:
  rlisp debug                  Serve a DAP client on port 4711
  rlisp debug --port 9229      Serve a DAP client on port 9229
  rlisp debug --stdio          Serve a DAP client on stdio`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := dapserver.New(debugRuntimeFactory)
		if debugStdio {
			log.SetOutput(os.Stderr)
			return srv.ServeStdio(os.Stdin, os.Stdout)
		}
		addr := fmt.Sprintf("localhost:%d", debugPort)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("cannot listen on %s: %w", addr, err)
		}
		defer ln.Close() //nolint:errcheck // best-effort cleanup
		log.Printf("DAP debugger listening on %s", addr)
		return srv.ServeListener(ln)
	},
}

// debugRuntimeFactory creates a configured runtime for a debugged program.
func debugRuntimeFactory(stdout, stderr io.Writer) (*lisp.Runtime, error) {
	return newRuntime(stdout, stderr)
}

func init() {
	rootCmd.AddCommand(debugCmd)

	debugCmd.Flags().IntVar(&debugPort, "port", 4711,
		"TCP port for DAP server")
	debugCmd.Flags().BoolVar(&debugStdio, "stdio", false,
		"Use stdin/stdout for DAP communication")
}
