// Package tsn is the public facade over the middle end: a Context wires a
// Loader (the external lexer/parser collaborator) to the compiler,
// optimizer, and VM backend, and Compile/Run drive a module through them
// without the caller touching internal/* directly, mirroring the role the
// teacher's pkg/dwscript engine facade plays over its own internal packages.
package tsn

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/compiler"
	"github.com/tsn-lang/tsn/internal/config"
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ffi"
	"github.com/tsn-lang/tsn/internal/optimize"
	"github.com/tsn-lang/tsn/internal/pipeline"
	"github.com/tsn-lang/tsn/internal/vm"
)

// Context owns one compile's Type Registry, Symbol Table, and diagnostics,
// and the Loader used to resolve module names to ASTs.
type Context struct {
	compiler *compiler.Context
	loader   pipeline.Loader
	optimize bool
	maxPass  int
	vmConfig vm.Config
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithLoader supplies the module loader, the external lexer/parser
// collaborator. Required — NewContext without one produces a Context that
// fails to compile anything.
func WithLoader(l pipeline.Loader) Option {
	return func(c *Context) { c.loader = l }
}

// WithOptimization toggles the optimizer pass manager; defaults to enabled.
func WithOptimization(enabled bool) Option {
	return func(c *Context) { c.optimize = enabled }
}

// WithMaxPassIterations overrides the optimizer's fixpoint iteration cap.
func WithMaxPassIterations(n int) Option {
	return func(c *Context) { c.maxPass = n }
}

// WithVMConfig overrides the VM backend's stack tunables.
func WithVMConfig(cfg vm.Config) Option {
	return func(c *Context) { c.vmConfig = cfg }
}

// NewContext builds a Context ready to Compile. Defaults match
// internal/config.Default(): optimization on, 32 max pass iterations, the
// VM's package-default stack sizing.
func NewContext(opts ...Option) *Context {
	def := config.Default()
	c := &Context{
		compiler: compiler.NewContext(),
		optimize: def.Optimize,
		maxPass:  optimize.DefaultMaxIterations,
		vmConfig: vm.Config{StackSize: def.StackSize, StackPadding: def.StackPadding},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the underlying compiler Context, for callers that need to
// register host (FFI) bindings before compiling.
func (c *Context) Registry() *compiler.Context { return c.compiler }

// FFI returns the host-binding registry scripts call into and are called
// from.
func (c *Context) FFI() *ffi.Registry { return c.compiler.FFI }

// Diagnostics returns every diag.Message reported so far across all
// Compile calls on this Context.
func (c *Context) Diagnostics() []diag.Message { return c.compiler.Diag.Messages() }

// Program is a successfully compiled and lowered module graph: the
// Context it was compiled under, plus the linked VM program ready to Run.
type Program struct {
	ctx     *Context
	Module  *pipeline.Module
	Backend *vm.Program
}

// Disassemble renders the linked backend program for the CLI's
// `-o backend` output mode.
func (p *Program) Disassemble() string {
	if p.Backend == nil {
		return ""
	}
	return vm.Disassemble(p.Backend)
}

// Run executes entryFunc on the VM backend, returning the RuntimeError (if
// any) the interpreter loop raised.
func (p *Program) Run(entryFunc string) error {
	if p.Backend == nil {
		return fmt.Errorf("tsn: program has no linked backend")
	}
	entry := -1
	for i, fn := range p.Backend.Functions {
		if fn.Name == entryFunc {
			entry = i
			break
		}
	}
	if entry == -1 {
		return fmt.Errorf("tsn: no function named %q in the linked program", entryFunc)
	}

	machine := vm.NewVM(p.Backend, p.ctx.compiler.FFI, p.ctx.vmConfig)
	if rerr := machine.Run(p.Backend.Functions[entry].Entry); rerr != nil {
		return rerr
	}
	return nil
}

// Compile resolves entry and every module it transitively imports,
// compiles each to IR, optimizes (unless disabled), and links a single VM
// program out of the whole graph.
func (c *Context) Compile(entry string) (*Program, error) {
	if c.loader == nil {
		return nil, fmt.Errorf("tsn: Context has no Loader (use WithLoader)")
	}

	pl := pipeline.New(c.compiler, c.loader)
	pl.Optimize = c.optimize
	if c.maxPass > 0 {
		pl.MaxPassIterations = c.maxPass
	}
	pl.VMConfig = c.vmConfig

	mod, prog, err := pl.Run(entry)
	if err != nil {
		return &Program{ctx: c, Module: mod}, err
	}
	if c.compiler.Diag.HasErrors() {
		return &Program{ctx: c, Module: mod, Backend: prog}, fmt.Errorf("tsn: compilation of %q failed with diagnostics", entry)
	}
	return &Program{ctx: c, Module: mod, Backend: prog}, nil
}
