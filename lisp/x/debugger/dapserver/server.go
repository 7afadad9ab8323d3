// Copyright © 2018 The ELPS authors

// Package dapserver implements a DAP (Debug Adapter Protocol) server for
// the rlisp debugger engine.  It translates between the DAP wire protocol
// and debugger.Engine.
//
// The server supports two transport modes:
//   - TCP: the server listens on a port and accepts a single client
//     connection.
//   - Stdio: the server reads requests from stdin and writes to stdout, as
//     editors expect when they launch a debug adapter as a child process.
//
// A launch request names the program to debug.  The server creates a fresh
// runtime for it with the RuntimeFactory given to New and runs the program
// after the client sends configurationDone.
package dapserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/go-dap"
	"github.com/luthersystems/rlisp/lisp"
)

// RuntimeFactory creates the runtime for a launched program.  Output the
// program writes to stdout and stderr is forwarded to the client as output
// events.
type RuntimeFactory func(stdout, stderr io.Writer) (*lisp.Runtime, error)

// Server is a DAP protocol server for a single debug session.
type Server struct {
	factory RuntimeFactory

	mu     sync.Mutex
	seq    int
	writer io.Writer

	// done is closed when the server should stop processing messages.
	done chan struct{}
}

// New returns a server which creates program runtimes with factory.
func New(factory RuntimeFactory) *Server {
	return &Server{
		factory: factory,
		done:    make(chan struct{}),
	}
}

// ServeConn serves DAP messages on a single connection.  It blocks until
// the connection is closed or a disconnect request is received.
func (s *Server) ServeConn(conn io.ReadWriteCloser) error {
	defer conn.Close() //nolint:errcheck // best-effort cleanup
	return s.serve(conn, conn)
}

// ServeTCP listens on the given address and serves a single DAP client.
// It blocks until the client disconnects.
func (s *Server) ServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close() //nolint:errcheck // best-effort cleanup
	return s.ServeListener(ln)
}

// ServeListener accepts a single connection from the listener and serves
// DAP messages on it.
func (s *Server) ServeListener(ln net.Listener) error {
	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	return s.ServeConn(conn)
}

// ServeStdio serves DAP messages on the given reader and writer,
// typically os.Stdin and os.Stdout.
func (s *Server) ServeStdio(r io.Reader, w io.Writer) error {
	return s.serve(r, w)
}

func (s *Server) serve(r io.Reader, w io.Writer) error {
	s.mu.Lock()
	s.writer = w
	s.mu.Unlock()
	reader := bufio.NewReader(r)
	h := newHandler(s)

	for {
		select {
		case <-s.done:
			return nil
		default:
		}

		msg, err := dap.ReadProtocolMessage(reader)
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		h.handle(msg)
	}
}

// send writes a DAP protocol message to the client.  The caller sets the
// Seq field through the newResponse and newEvent helpers.
func (s *Server) send(msg dap.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dap.WriteProtocolMessage(s.writer, msg)
}

// nextSeq returns the next sequence number for outgoing messages.
func (s *Server) nextSeq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// close signals the server to stop processing messages.
func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
