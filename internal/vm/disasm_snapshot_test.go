package vm

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/tsn-lang/tsn/internal/ir"
)

// TestDisassembleSnapshot pins the listing Disassemble renders for the add
// function against a committed snapshot, so a change to the mnemonic table
// or operand formatting shows up as a reviewable diff instead of silently
// drifting in the CLI's `-o backend` output mode.
func TestDisassembleSnapshot(t *testing.T) {
	holder := buildAddFunction(t)
	prog, err := Lower([]*ir.CodeHolder{holder})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	snaps.MatchSnapshot(t, "add_disassembly", Disassemble(prog))
}
