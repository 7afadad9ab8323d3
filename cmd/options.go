// Copyright © 2024 The ELPS authors

package cmd

import "github.com/luthersystems/rlisp/lisp"

// Option configures an exported command factory (DocCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	runtimeConfig []lisp.Config
	libraries     []func(rt *lisp.Runtime) lisp.Object
}

// WithRuntimeConfig adds configuration to the runtimes created by a
// command.
func WithRuntimeConfig(config ...lisp.Config) Option {
	return func(c *cmdConfig) {
		c.runtimeConfig = append(c.runtimeConfig, config...)
	}
}

// WithLibrary registers a function that binds embedder-provided builtins
// in runtimes created by a command.  The function returns an error value
// or nil.
func WithLibrary(load func(rt *lisp.Runtime) lisp.Object) Option {
	return func(c *cmdConfig) {
		c.libraries = append(c.libraries, load)
	}
}

func newCmdConfig(opts ...Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// loadLibraries runs the registered library loaders on rt.
func (c *cmdConfig) loadLibraries(rt *lisp.Runtime) error {
	for _, load := range c.libraries {
		if err := rt.GoError(load(rt)); err != nil {
			return err
		}
	}
	return nil
}
