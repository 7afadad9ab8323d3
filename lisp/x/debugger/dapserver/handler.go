// Copyright © 2018 The ELPS authors

package dapserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/go-dap"
	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/x/debugger"
)

// launchArgs are the arguments of a launch request.
type launchArgs struct {
	Program     string `json:"program"`
	StopOnEntry bool   `json:"stopOnEntry"`
	NoDebug     bool   `json:"noDebug"`
}

var errNotLaunched = errors.New("no program launched")

// handler dispatches incoming DAP messages to the appropriate method.
type handler struct {
	server      *Server
	breakpoints *debugger.BreakpointStore

	mu         sync.Mutex
	engine     *debugger.Engine
	program    string
	source     []byte
	started    bool
	terminated bool
	// refs holds the expandable values shown while paused, keyed by
	// variable reference.  It is cleared whenever the values may have
	// been collected.
	refs    map[int]lisp.Object
	nextRef int
}

func newHandler(s *Server) *handler {
	return &handler{
		server:      s,
		breakpoints: debugger.NewBreakpointStore(),
	}
}

// send sends a DAP message and logs any write error.
func (h *handler) send(msg dap.Message) {
	if err := h.server.send(msg); err != nil {
		log.Printf("dap: send error: %v", err)
	}
}

func (h *handler) handle(msg dap.Message) {
	switch req := msg.(type) {
	case *dap.InitializeRequest:
		h.onInitialize(req)
	case *dap.LaunchRequest:
		h.onLaunch(req)
	case *dap.SetBreakpointsRequest:
		h.onSetBreakpoints(req)
	case *dap.SetFunctionBreakpointsRequest:
		h.onSetFunctionBreakpoints(req)
	case *dap.SetExceptionBreakpointsRequest:
		h.onSetExceptionBreakpoints(req)
	case *dap.ConfigurationDoneRequest:
		h.onConfigurationDone(req)
	case *dap.ThreadsRequest:
		h.onThreads(req)
	case *dap.StackTraceRequest:
		h.onStackTrace(req)
	case *dap.ScopesRequest:
		h.onScopes(req)
	case *dap.VariablesRequest:
		h.onVariables(req)
	case *dap.ContinueRequest:
		resp := &dap.ContinueResponse{}
		resp.Response = h.newResponse(req.Seq, req.Command)
		resp.Body.AllThreadsContinued = true
		h.resume(req.Request, resp, (*debugger.Engine).Resume)
	case *dap.NextRequest:
		resp := &dap.NextResponse{}
		resp.Response = h.newResponse(req.Seq, req.Command)
		h.resume(req.Request, resp, (*debugger.Engine).StepOver)
	case *dap.StepInRequest:
		resp := &dap.StepInResponse{}
		resp.Response = h.newResponse(req.Seq, req.Command)
		h.resume(req.Request, resp, (*debugger.Engine).StepInto)
	case *dap.StepOutRequest:
		resp := &dap.StepOutResponse{}
		resp.Response = h.newResponse(req.Seq, req.Command)
		h.resume(req.Request, resp, (*debugger.Engine).StepOut)
	case *dap.PauseRequest:
		h.onPause(req)
	case *dap.EvaluateRequest:
		h.onEvaluate(req)
	case *dap.CompletionsRequest:
		h.onCompletions(req)
	case *dap.DisconnectRequest:
		h.onDisconnect(req)
	default:
		log.Printf("dap: unhandled message type: %T", msg)
		if r, ok := msg.(dap.RequestMessage); ok {
			req := r.GetRequest()
			h.sendError(req.Seq, req.Command, fmt.Sprintf("unsupported request: %s", req.Command))
		}
	}
}

func (h *handler) onInitialize(req *dap.InitializeRequest) {
	resp := &dap.InitializeResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body = dap.Capabilities{
		SupportsConfigurationDoneRequest: true,
		SupportsFunctionBreakpoints:      true,
		SupportsConditionalBreakpoints:   true,
		SupportsEvaluateForHovers:        true,
		SupportsCompletionsRequest:       true,
		SupportTerminateDebuggee:         true,
	}
	h.send(resp)

	// Tell the client it can send configuration.
	h.send(&dap.InitializedEvent{
		Event: h.newEvent("initialized"),
	})
}

func (h *handler) onLaunch(req *dap.LaunchRequest) {
	var args launchArgs
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		h.sendError(req.Seq, req.Command, fmt.Sprintf("invalid launch arguments: %v", err))
		return
	}
	if args.Program == "" {
		h.sendError(req.Seq, req.Command, "launch requires a program")
		return
	}
	source, err := os.ReadFile(args.Program) //#nosec G304
	if err != nil {
		h.sendError(req.Seq, req.Command, err.Error())
		return
	}
	rt, err := h.server.factory(&outputWriter{h: h, category: "stdout"}, &outputWriter{h: h, category: "stderr"})
	if err != nil {
		h.sendError(req.Seq, req.Command, fmt.Sprintf("failed to create runtime: %v", err))
		return
	}
	engine := debugger.New(rt,
		debugger.WithBreakpoints(h.breakpoints),
		debugger.WithStopOnEntry(args.StopOnEntry && !args.NoDebug),
		debugger.WithEventCallback(h.onEngineEvent),
	)
	if !args.NoDebug {
		if err := engine.Enable(); err != nil {
			h.sendError(req.Seq, req.Command, err.Error())
			return
		}
	}

	h.mu.Lock()
	h.engine = engine
	h.program = args.Program
	h.source = source
	h.mu.Unlock()

	resp := &dap.LaunchResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
}

// onSetBreakpoints rejects line breakpoints.  Objects carry no source
// positions so only function breakpoints can be honored.
func (h *handler) onSetBreakpoints(req *dap.SetBreakpointsRequest) {
	resp := &dap.SetBreakpointsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Breakpoints = make([]dap.Breakpoint, len(req.Arguments.Breakpoints))
	for i, bp := range req.Arguments.Breakpoints {
		resp.Body.Breakpoints[i] = dap.Breakpoint{
			Verified: false,
			Line:     bp.Line,
			Message:  "line breakpoints are not supported; use function breakpoints",
		}
	}
	h.send(resp)
}

func (h *handler) onSetFunctionBreakpoints(req *dap.SetFunctionBreakpointsRequest) {
	names := make([]string, len(req.Arguments.Breakpoints))
	conditions := make([]string, len(req.Arguments.Breakpoints))
	for i, bp := range req.Arguments.Breakpoints {
		names[i] = bp.Name
		conditions[i] = bp.Condition
	}
	bps := h.breakpoints.Replace(names, conditions)

	resp := &dap.SetFunctionBreakpointsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Breakpoints = translateBreakpoints(bps)
	h.send(resp)
}

func (h *handler) onSetExceptionBreakpoints(req *dap.SetExceptionBreakpointsRequest) {
	resp := &dap.SetExceptionBreakpointsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
}

func (h *handler) onConfigurationDone(req *dap.ConfigurationDoneRequest) {
	resp := &dap.ConfigurationDoneResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)

	h.mu.Lock()
	engine := h.engine
	if engine == nil || h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	name := filepath.Base(h.program)
	source := h.source
	h.mu.Unlock()

	go func() {
		_ = engine.Run(name, bytes.NewReader(source))
	}()
}

func (h *handler) onThreads(req *dap.ThreadsRequest) {
	resp := &dap.ThreadsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Threads = []dap.Thread{
		{Id: threadID, Name: "main"},
	}
	h.send(resp)
}

func (h *handler) onStackTrace(req *dap.StackTraceRequest) {
	var frames []dap.StackFrame
	err := h.inspect(func(rt *lisp.Runtime) {
		frames = translateStackFrames(rt.Stack)
	})
	if err != nil {
		h.sendError(req.Seq, req.Command, err.Error())
		return
	}

	resp := &dap.StackTraceResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.TotalFrames = len(frames)
	start := req.Arguments.StartFrame
	if start > len(frames) {
		start = len(frames)
	}
	end := len(frames)
	if req.Arguments.Levels > 0 && start+req.Arguments.Levels < end {
		end = start + req.Arguments.Levels
	}
	resp.Body.StackFrames = frames[start:end]
	h.send(resp)
}

func (h *handler) onScopes(req *dap.ScopesRequest) {
	frameID := req.Arguments.FrameId
	var height int
	err := h.inspect(func(rt *lisp.Runtime) {
		height = rt.Stack.Height()
	})
	if err != nil {
		h.sendError(req.Seq, req.Command, err.Error())
		return
	}

	resp := &dap.ScopesResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Scopes = []dap.Scope{
		{
			Name:               "Arguments",
			PresentationHint:   "arguments",
			VariablesReference: scopeRef(frameID, scopeArguments),
		},
	}
	// The current scope is the one the innermost call is evaluated in.
	if frameID == height {
		resp.Body.Scopes = append(resp.Body.Scopes, dap.Scope{
			Name:               "Locals",
			PresentationHint:   "locals",
			VariablesReference: scopeRef(frameID, scopeLocals),
		})
	}
	resp.Body.Scopes = append(resp.Body.Scopes, dap.Scope{
		Name:               "Globals",
		VariablesReference: scopeRef(0, scopeGlobals),
		Expensive:          true,
	})
	h.send(resp)
}

func (h *handler) onVariables(req *dap.VariablesRequest) {
	ref := req.Arguments.VariablesReference
	var vars []dap.Variable
	err := h.inspect(func(rt *lisp.Runtime) {
		if ref >= valueRefBase {
			if v, ok := h.lookupRef(ref); ok {
				vars = expandVariable(rt, v, h.allocRef)
			}
			return
		}
		var bindings []debugger.ScopeBinding
		frameID, kind := decodeScopeRef(ref)
		switch kind {
		case scopeArguments:
			if frame := frameAt(rt.Stack, frameID); frame != nil {
				bindings = debugger.InspectArguments(rt, frame)
			}
		case scopeLocals:
			bindings = debugger.InspectLocals(rt)
		case scopeGlobals:
			bindings = debugger.InspectGlobals(rt)
		}
		vars = translateVariables(rt, bindings, h.allocRef)
	})
	if err != nil {
		h.sendError(req.Seq, req.Command, err.Error())
		return
	}

	resp := &dap.VariablesResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Variables = vars
	if resp.Body.Variables == nil {
		resp.Body.Variables = []dap.Variable{}
	}
	h.send(resp)
}

// resume sends resp and then continues the paused program with fn.
func (h *handler) resume(req dap.Request, resp dap.Message, fn func(*debugger.Engine) error) {
	engine := h.currentEngine()
	if engine == nil || !engine.IsPaused() {
		h.sendError(req.Seq, req.Command, debugger.ErrNotPaused.Error())
		return
	}
	h.send(resp)
	h.clearRefs()
	if err := fn(engine); err != nil {
		log.Printf("dap: %s: %v", req.Command, err)
	}
}

func (h *handler) onPause(req *dap.PauseRequest) {
	engine := h.currentEngine()
	if engine == nil {
		h.sendError(req.Seq, req.Command, errNotLaunched.Error())
		return
	}
	engine.RequestPause()
	resp := &dap.PauseResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
}

func (h *handler) onEvaluate(req *dap.EvaluateRequest) {
	engine := h.currentEngine()
	if engine == nil {
		h.sendError(req.Seq, req.Command, errNotLaunched.Error())
		return
	}
	// Evaluation may collect values behind outstanding references.
	h.clearRefs()
	result, err := engine.Eval(req.Arguments.Expression)
	if err != nil {
		h.sendError(req.Seq, req.Command, errorText(err))
		return
	}
	resp := &dap.EvaluateResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Result = result
	h.send(resp)
}

func (h *handler) onCompletions(req *dap.CompletionsRequest) {
	var candidates []debugger.CompletionCandidate
	prefix := debugger.ExtractPrefix(req.Arguments.Text, req.Arguments.Column)
	err := h.inspect(func(rt *lisp.Runtime) {
		candidates = debugger.CompleteInContext(rt, prefix)
	})
	if err != nil && !errors.Is(err, errNotLaunched) {
		h.sendError(req.Seq, req.Command, err.Error())
		return
	}
	resp := &dap.CompletionsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Targets = translateCompletions(candidates)
	h.send(resp)
}

func (h *handler) onDisconnect(req *dap.DisconnectRequest) {
	resp := &dap.DisconnectResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)

	if engine := h.currentEngine(); engine != nil {
		engine.Disconnect()
	}
	h.terminate()
	h.server.close()
}

// onEngineEvent forwards engine events to the client.  It runs on the eval
// goroutine.
func (h *handler) onEngineEvent(evt debugger.Event) {
	switch evt.Type {
	case debugger.EventStopped:
		h.clearRefs()
		var bpIDs []int
		if evt.BP != nil {
			bpIDs = []int{evt.BP.ID}
		}
		h.sendStoppedEvent(evt.Reason, evt.Function, bpIDs)
	case debugger.EventExited:
		if evt.Err != nil {
			h.sendOutput("stderr", traceText(evt.Err))
		}
		exited := &dap.ExitedEvent{Event: h.newEvent("exited")}
		exited.Body.ExitCode = evt.ExitCode
		h.send(exited)
		h.terminate()
	}
}

// terminate sends the terminated event once.
func (h *handler) terminate() {
	h.mu.Lock()
	done := h.terminated
	h.terminated = true
	h.mu.Unlock()
	if !done {
		h.send(&dap.TerminatedEvent{
			Event: h.newEvent("terminated"),
		})
	}
}

func (h *handler) sendStoppedEvent(reason debugger.StopReason, fun string, bpIDs []int) {
	evt := &dap.StoppedEvent{
		Event: h.newEvent("stopped"),
	}
	evt.Body.Reason = string(reason)
	evt.Body.Description = fmt.Sprintf("Paused on call to %s", fun)
	evt.Body.ThreadId = threadID
	evt.Body.AllThreadsStopped = true
	if len(bpIDs) > 0 {
		evt.Body.HitBreakpointIds = bpIDs
	}
	h.send(evt)
}

func (h *handler) sendOutput(category string, text string) error {
	evt := &dap.OutputEvent{Event: h.newEvent("output")}
	evt.Body.Category = category
	evt.Body.Output = text
	return h.server.send(evt)
}

// outputWriter forwards program output to the client.
type outputWriter struct {
	h        *handler
	category string
}

func (w *outputWriter) Write(p []byte) (int, error) {
	if err := w.h.sendOutput(w.category, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// --- helpers ---

func (h *handler) currentEngine() *debugger.Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine
}

func (h *handler) inspect(fn func(rt *lisp.Runtime)) error {
	engine := h.currentEngine()
	if engine == nil {
		return errNotLaunched
	}
	return engine.Inspect(fn)
}

func (h *handler) allocRef(v lisp.Object) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs == nil {
		h.refs = make(map[int]lisp.Object)
		h.nextRef = valueRefBase
	}
	ref := h.nextRef
	h.nextRef++
	h.refs[ref] = v
	return ref
}

func (h *handler) lookupRef(ref int) (lisp.Object, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.refs[ref]
	return v, ok
}

func (h *handler) clearRefs() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs = nil
}

func (h *handler) sendError(seq int, command string, message string) {
	resp := &dap.ErrorResponse{}
	resp.Response = h.newResponse(seq, command)
	resp.Success = false
	resp.Message = message
	h.send(resp)
}

func errorText(err error) string {
	var lerr *lisp.ErrorVal
	if errors.As(err, &lerr) {
		return fmt.Sprintf("%s: %s", lerr.Name, lerr.Message)
	}
	return err.Error()
}

func traceText(err error) string {
	var lerr *lisp.ErrorVal
	if errors.As(err, &lerr) {
		var buf bytes.Buffer
		if _, werr := lerr.WriteTrace(&buf); werr == nil {
			return buf.String()
		}
	}
	return err.Error() + "\n"
}

func (h *handler) newResponse(reqSeq int, command string) dap.Response {
	return dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: h.server.nextSeq(), Type: "response"},
		RequestSeq:      reqSeq,
		Success:         true,
		Command:         command,
	}
}

func (h *handler) newEvent(event string) dap.Event {
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Seq: h.server.nextSeq(), Type: "event"},
		Event:           event,
	}
}
