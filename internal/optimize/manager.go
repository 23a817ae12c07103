// Package optimize implements the IR optimization pass manager: ordered
// groups of ordered passes, each group run to a fixpoint before the next
// group starts.
package optimize

import (
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ir"
)

// Pass rewrites a CodeHolder in place and reports whether it changed
// anything and whether its enclosing group should repeat.
type Pass interface {
	Name() string
	Run(code *ir.CodeHolder, d *diag.Sink) (changed bool, shouldRepeat bool)
}

// Group is an ordered set of passes run together to a fixpoint.
type Group struct {
	Name  string
	Passes []Pass
}

// Manager holds ordered groups and a per-group iteration cap, configurable
// per run with a default of 32.
type Manager struct {
	Groups        []Group
	MaxIterations int
}

// DefaultMaxIterations is the default cap on group fixpoint loops.
const DefaultMaxIterations = 32

// NewManager returns a Manager with the standard group ordering: constant
// folding and reduce-memory-access share a fixpoint group (each can expose
// opportunities for the other), then dead code elimination runs alone.
// No basic-block construction pass is run.
func NewManager() *Manager {
	return &Manager{
		Groups: []Group{
			{Name: "simplify", Passes: []Pass{NewConstantFolding(), NewReduceMemoryAccess()}},
			{Name: "dce", Passes: []Pass{NewDeadCodeElimination()}},
		},
		MaxIterations: DefaultMaxIterations,
	}
}

// Run runs every group over code in order, each to its own fixpoint.
func (m *Manager) Run(code *ir.CodeHolder, d *diag.Sink) {
	max := m.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}
	for _, group := range m.Groups {
		for iter := 0; iter < max; iter++ {
			anyChanged := false
			repeat := false
			for _, pass := range group.Passes {
				changed, shouldRepeat := pass.Run(code, d)
				anyChanged = anyChanged || changed
				repeat = repeat || shouldRepeat
			}
			if !anyChanged && !repeat {
				break
			}
		}
	}
}
