// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/x/profiler"
	"github.com/spf13/cobra"
)

var (
	runExpression bool
	runPrint      bool
	runExcludes   []string
	runCallgrind  string
	runCPUProfile string
	runTrace      string
	runTraceAPI   string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] FILE...",
	Short: "Run lisp code",
	Long: `Run lisp code supplied via the command line or files.

Files are loaded in order into a single runtime.  A directory argument
ending in "/..." runs every .lisp file beneath the directory.  With -e the
arguments are lisp expressions instead of file names.

Profiling:
  --callgrind FILE    Write a callgrind profile of lisp calls
  --cpuprofile FILE   Write a pprof CPU profile labelled by lisp function
  --trace FILE        Write a span per lisp call to FILE, using the
                      OpenTelemetry SDK or OpenCensus (--trace-api)

Examples:
  rlisp run prog.lisp
  rlisp run -p -e '(+ 1 2)' '(list 1 2)'
  rlisp run --callgrind callgrind.out prog.lisp`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := runMain(os.Stdout, os.Stderr, args)
		if err != nil {
			return err
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

// runMain runs args and returns the process exit code.  Lisp errors are
// written to stderr and produce exit code 1; configuration errors are
// returned.
func runMain(stdout, stderr io.Writer, args []string) (int, error) {
	rt, err := newRuntime(stdout, stderr)
	if err != nil {
		return 0, err
	}
	stop, err := startProfiling(rt, stderr)
	if err != nil {
		return 0, err
	}
	defer stop()

	if runExpression {
		for i, expr := range args {
			name := fmt.Sprintf("expr%d", i)
			if code := runSource(rt, stdout, stderr, rt.LoadString(name, expr)); code != 0 {
				return code, nil
			}
		}
		return 0, nil
	}
	files, err := expandArgs(args, runExcludes)
	if err != nil {
		return 0, err
	}
	for _, path := range files {
		if code := runSource(rt, stdout, stderr, rt.LoadFile(path)); code != 0 {
			return code, nil
		}
	}
	return 0, nil
}

func runSource(rt *lisp.Runtime, stdout, stderr io.Writer, result lisp.Object) int {
	if err := rt.GoError(result); err != nil {
		writeLispError(stderr, err)
		rt.CleanStack()
		return 1
	}
	if runPrint {
		fmt.Fprintln(stdout, rt.Format(result)) //nolint:errcheck // best-effort output
	}
	return 0
}

// startProfiling installs the profiler selected by flags and returns a
// function that completes it.  At most one profiler may be selected.
func startProfiling(rt *lisp.Runtime, stderr io.Writer) (func(), error) {
	selected := 0
	for _, f := range []string{runCallgrind, runCPUProfile, runTrace} {
		if f != "" {
			selected++
		}
	}
	if selected > 1 {
		return nil, fmt.Errorf("only one of --callgrind, --cpuprofile and --trace may be used")
	}
	var (
		p       lisp.Profiler
		cleanup []func() error
	)
	switch {
	case runCallgrind != "":
		cg := profiler.NewCallgrindProfiler(rt)
		if err := cg.SetFile(runCallgrind); err != nil {
			return nil, err
		}
		p = cg
	case runCPUProfile != "":
		f, err := os.Create(runCPUProfile)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close() //nolint:errcheck // already failing
			return nil, err
		}
		cleanup = append(cleanup, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
		p = profiler.NewPprofAnnotator(rt, context.Background(), profiler.WithDocLabeler())
	case runTrace != "":
		f, err := os.Create(runTrace)
		if err != nil {
			return nil, err
		}
		var shutdown func() error
		p, shutdown, err = newTraceProfiler(rt, runTraceAPI, f)
		if err != nil {
			f.Close() //nolint:errcheck // already failing
			return nil, err
		}
		cleanup = append(cleanup, shutdown, f.Close)
	default:
		return func() {}, nil
	}
	if err := p.Enable(); err != nil {
		return nil, err
	}
	return func() {
		if err := p.Complete(); err != nil {
			fmt.Fprintf(stderr, "profiler: %v\n", err) //nolint:errcheck // best-effort
		}
		for _, fn := range cleanup {
			if err := fn(); err != nil {
				fmt.Fprintf(stderr, "profiler: %v\n", err) //nolint:errcheck // best-effort
			}
		}
	}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Here flags for the run command are defined
	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as lisp expressions")
	runCmd.Flags().BoolVarP(&runPrint, "print", "p", false,
		"Print expression values to stdout")
	runCmd.Flags().StringArrayVar(&runExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated)")
	runCmd.Flags().StringVar(&runCallgrind, "callgrind", "",
		"Write a callgrind profile to the given file")
	runCmd.Flags().StringVar(&runCPUProfile, "cpuprofile", "",
		"Write a pprof CPU profile to the given file")
	runCmd.Flags().StringVar(&runTrace, "trace", "",
		"Write a line per traced lisp call to the given file")
	runCmd.Flags().StringVar(&runTraceAPI, "trace-api", traceOpenTelemetry,
		`Tracing API used by --trace: "opentelemetry" or "opencensus"`)
}
