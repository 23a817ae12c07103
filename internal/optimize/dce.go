package optimize

import (
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ir"
)

// DeadCodeElimination removes instructions whose assigned register is never
// read and which have no side effect, via a single backward liveness scan
// per run. It also drops OpInvalid placeholders left behind by
// ReduceMemoryAccess.
type DeadCodeElimination struct{}

func NewDeadCodeElimination() *DeadCodeElimination { return &DeadCodeElimination{} }

func (p *DeadCodeElimination) Name() string { return "dead-code-elimination" }

func (p *DeadCodeElimination) Run(code *ir.CodeHolder, d *diag.Sink) (bool, bool) {
	live := make(map[int]bool)

	// Labels are control-flow targets; branch/jump reference them by id, not
	// by register, so liveness tracking only needs to cover Reg operands.
	keep := make([]bool, len(code.Instructions))

	for i := len(code.Instructions) - 1; i >= 0; i-- {
		in := code.Instructions[i]

		if in.Op == ir.OpInvalid {
			keep[i] = false
			continue
		}

		info := ir.OpInfo(in.Op)
		dst, hasDst := in.Assigned()

		necessary := info.HasSideEffects || !hasDst
		if hasDst && dst.Kind == ir.Reg && live[dst.Reg] {
			necessary = true
		}
		// Labels and meta instructions are structural and always kept.
		if in.NumLabels > 0 || isMeta(in.Op) {
			necessary = true
		}

		if !necessary {
			keep[i] = false
			continue
		}

		keep[i] = true
		for _, use := range in.Uses() {
			if use.Kind == ir.Reg {
				live[use.Reg] = true
			}
		}
	}

	changed := false
	out := make([]ir.Instruction, 0, len(code.Instructions))
	for i, in := range code.Instructions {
		if keep[i] {
			out = append(out, in)
		} else {
			changed = true
		}
	}
	if changed {
		code.Instructions = out
	}
	return changed, false
}

func isMeta(op ir.OpCode) bool {
	switch op {
	case ir.OpMetaIfBranch, ir.OpMetaForLoop, ir.OpMetaWhileLoop, ir.OpMetaDoWhileLoop:
		return true
	}
	return false
}
