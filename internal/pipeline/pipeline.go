// Package pipeline drives one Context's module compile state machine:
// unloaded -> parsed -> compiled -> optimized -> lowered -> ready, with
// recursive import resolution and cycle detection, as a multi-stage,
// observable driver rather than a single one-shot compile call.
package pipeline

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/compiler"
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/optimize"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/vm"
)

// ModuleState names one step of a module's life within a compile run.
type ModuleState int

const (
	Unloaded ModuleState = iota
	Parsed
	Compiled
	Optimized
	Lowered
	Ready
)

func (s ModuleState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Parsed:
		return "parsed"
	case Compiled:
		return "compiled"
	case Optimized:
		return "optimized"
	case Lowered:
		return "lowered"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Loader resolves a module name to its parsed AST. The lexer and parser
// that produce an *ast.Program are external collaborators; the pipeline
// only consumes the Program they hand back.
type Loader interface {
	Load(name string) (*ast.Program, error)
}

// Module tracks one named module's progress through the state machine. A
// module freezes at its last successful state on error; downstream code
// must check State() before trusting Program/VM.
type Module struct {
	Name    string
	state   ModuleState
	Program *ast.Program
	err     error
}

// State returns the module's current (possibly frozen-on-error) state.
func (m *Module) State() ModuleState { return m.state }

// Err returns the error that froze this module, if any.
func (m *Module) Err() error { return m.err }

// Pipeline owns one Context's full compile-and-link run: module loading,
// recursive import resolution with cycle detection, IR compilation,
// optimization, and VM lowering into a single linked Program.
type Pipeline struct {
	Ctx      *compiler.Context
	Loader   Loader
	Optimize bool
	MaxPassIterations int
	VMConfig vm.Config

	modules map[string]*Module
	order   []string // topological compile order, entry module last
}

// New returns a Pipeline wired to ctx, loading modules through loader.
func New(ctx *compiler.Context, loader Loader) *Pipeline {
	return &Pipeline{
		Ctx:               ctx,
		Loader:            loader,
		Optimize:          true,
		MaxPassIterations: optimize.DefaultMaxIterations,
		VMConfig:          vm.DefaultConfig(),
		modules:           make(map[string]*Module),
	}
}

func (p *Pipeline) report(sev diag.Severity, code int, pos source.Position, format string, args ...any) {
	p.Ctx.Diag.Report(diag.Message{
		Prefix:   diag.PrefixGeneric,
		Code:     code,
		Severity: sev,
		Pos:      pos,
		Text:     fmt.Sprintf(format, args...),
	})
}

const codeStageTransition = 1

func (p *Pipeline) transition(m *Module, to ModuleState) {
	from := m.state
	m.state = to
	p.report(diag.Info, codeStageTransition, source.Position{}, "module %s: %s -> %s", m.Name, from, to)
}

// Run compiles entry and every module it (transitively) imports, then
// optimizes and lowers the whole program into one linked vm.Program. It
// returns the module graph's entry Module and the linked Program, or an
// error if any stage failed — in which case every touched Module is frozen
// at its last successful state and p.Ctx.Diag holds the reported messages.
func (p *Pipeline) Run(entry string) (*Module, *vm.Program, error) {
	visiting := make(map[string]bool)
	m, err := p.load(entry, visiting)
	if err != nil {
		return m, nil, err
	}

	if p.Optimize {
		mgr := optimize.NewManager()
		if p.MaxPassIterations > 0 {
			mgr.MaxIterations = p.MaxPassIterations
		}
		for _, holder := range p.Ctx.Code {
			mgr.Run(holder, p.Ctx.Diag)
		}
	}
	for _, name := range p.order {
		p.transition(p.modules[name], Optimized)
	}

	holders := make([]*ir.CodeHolder, 0, len(p.Ctx.Code))
	for _, h := range p.Ctx.Code {
		holders = append(holders, h)
	}
	prog, err := vm.Lower(holders)
	if err != nil {
		for _, name := range p.order {
			p.modules[name].err = err
		}
		return m, nil, fmt.Errorf("pipeline: lowering: %w", err)
	}
	for _, name := range p.order {
		mod := p.modules[name]
		p.transition(mod, Lowered)
		p.transition(mod, Ready)
	}

	return m, prog, nil
}

// load resolves name recursively: its own imports compile first (so a
// later module can reference earlier-compiled names), with a cycle
// detected via the visiting set and reported under compiler.CodeImportCycle
// as c_import_cycle.
func (p *Pipeline) load(name string, visiting map[string]bool) (*Module, error) {
	if existing, ok := p.modules[name]; ok {
		return existing, existing.err
	}

	if visiting[name] {
		m := &Module{Name: name, state: Unloaded}
		m.err = fmt.Errorf("pipeline: import cycle detected at module %q", name)
		p.Ctx.Diag.Errorf(source.Position{}, compiler.CodeImportCycle, "c_import_cycle: %s", name)
		p.modules[name] = m
		return m, m.err
	}
	visiting[name] = true
	defer delete(visiting, name)

	m := &Module{Name: name, state: Unloaded}

	prog, err := p.Loader.Load(name)
	if err != nil {
		m.err = fmt.Errorf("pipeline: loading %q: %w", name, err)
		p.modules[name] = m
		return m, m.err
	}
	m.Program = prog
	p.transition(m, Parsed)

	for _, imp := range prog.Imports {
		if _, err := p.load(imp.Module, visiting); err != nil {
			m.err = err
			p.modules[name] = m
			return m, err
		}
	}

	if err := compiler.Compile(p.Ctx, prog); err != nil {
		m.err = fmt.Errorf("pipeline: compiling %q: %w", name, err)
		p.modules[name] = m
		return m, m.err
	}
	p.transition(m, Compiled)
	p.modules[name] = m
	p.order = append(p.order, name)

	return m, nil
}
