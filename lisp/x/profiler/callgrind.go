// Copyright © 2018 The ELPS authors

package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/luthersystems/rlisp/lisp"
)

// Version is written to the creator line of callgrind files.
const Version = "rlisp"

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

// callgrindProfiler writes a callgrind file that can be opened in
// KCacheGrind or QCacheGrind.  Costs are wall time in nanoseconds and bytes
// allocated by the Go runtime.  Lisp functions have no source positions, so
// the file name of every entry is the function kind.
type callgrindProfiler struct {
	profiler
	sync.Mutex
	writer    io.Writer
	closer    io.Closer
	writeErr  error
	startTime time.Time
	refs      map[string]int
	current   *callRef
}

var _ lisp.Profiler = &callgrindProfiler{}

// NewCallgrindProfiler returns a callgrind profiler for runtime.  An output
// must be set with SetWriter or SetFile before it is enabled.
func NewCallgrindProfiler(runtime *lisp.Runtime, opts ...Option) *callgrindProfiler {
	p := new(callgrindProfiler)
	p.runtime = runtime
	p.applyConfigs(opts...)
	return p
}

// callRef represents something that got called.
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	file        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
}

// SetWriter directs the profile to w.
func (p *callgrindProfiler) SetWriter(w io.Writer) error {
	p.Lock()
	defer p.Unlock()
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	p.writer = w
	return nil
}

// SetFile creates filename and directs the profile to it.  Complete closes
// the file.
func (p *callgrindProfiler) SetFile(filename string) error {
	f, err := os.Create(filename) //#nosec G304
	if err != nil {
		return err
	}
	if err := p.SetWriter(f); err != nil {
		f.Close() //nolint:errcheck // already failing
		return err
	}
	p.closer = f
	return nil
}

func (p *callgrindProfiler) Enable() error {
	p.Lock()
	if p.writer == nil {
		p.Unlock()
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.writer}
	w.printf("version: 1\ncreator: %s (Go %s)\n", Version, runtime.Version())
	w.print("cmd: Eval\npart: 1\npositions: line\n\n")
	w.print("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		p.Unlock()
		return w.err
	}
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.current = nil
	p.Unlock()
	p.pushCallRef("ENTRYPOINT", "-")
	p.runtime.Profiler = p
	return p.profiler.Enable()
}

func (p *callgrindProfiler) Complete() error {
	p.Lock()
	defer p.Unlock()
	if !p.enabled {
		return errors.New("profiler not enabled")
	}
	p.enabled = false
	if p.writeErr != nil {
		return p.writeErr
	}
	ref := p.popCallRef()
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	p.writeChildren(w, ref)
	w.print("\n")
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", time.Since(p.startTime).Nanoseconds(), ms.TotalAlloc)
	if w.err != nil {
		return w.err
	}
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// getRef compresses repeated names as callgrind allows.
func (p *callgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	ref := len(p.refs) + 1
	p.refs[name] = ref
	return fmt.Sprintf("(%d) %s", ref, name)
}

func (p *callgrindProfiler) Start(fun lisp.Object) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	label, _ := p.funLabels(fun)
	p.pushCallRef(label, p.funKind(fun))
	return p.end
}

func (p *callgrindProfiler) StartGC() func() {
	if !p.enabled {
		return func() {}
	}
	p.pushCallRef(GCLabel, "runtime")
	return p.end
}

func (p *callgrindProfiler) pushCallRef(name, file string) {
	p.Lock()
	defer p.Unlock()
	ref := &callRef{name: name, file: file, prev: p.current}
	if p.current != nil {
		p.current.children = append(p.current.children, ref)
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.startMemory = ms.TotalAlloc
	ref.start = time.Now()
	p.current = ref
}

func (p *callgrindProfiler) popCallRef() *callRef {
	ref := p.current
	if ref == nil {
		panic("profiler: call ref stack is empty")
	}
	p.current = ref.prev
	return ref
}

func (p *callgrindProfiler) end() {
	p.Lock()
	defer p.Unlock()
	if !p.enabled || p.writeErr != nil {
		return
	}
	ref := p.popCallRef()
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	memory := ms.TotalAlloc - ref.startMemory
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, memory)
	p.writeChildren(w, ref)
	w.print("\n")
	p.writeErr = w.err
}

func (p *callgrindProfiler) writeChildren(w *errWriter, ref *callRef) {
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0\n")
		w.printf("%d %d %d\n", 0, entry.duration, 0)
	}
}
