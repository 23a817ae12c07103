package optimize

import (
	"testing"

	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/types"
)

func intType() *types.Type {
	return &types.Type{SimpleName: "int32", FQName: "int32", Size: 4, Flags: types.Flags{IsPrimitive: true}}
}

func newHolder() *ir.CodeHolder {
	return ir.NewCodeHolder(nil)
}

func TestConstantFoldingAddition(t *testing.T) {
	ty := intType()
	code := newHolder()
	dst := code.NewReg(ty)
	a := ir.ImmInt64(2, ty)
	b := ir.ImmInt64(3, ty)
	code.Emit(ir.BinOp(ir.OpIAdd, dst, a, b, source.Position{}))

	pass := NewConstantFolding()
	changed, _ := pass.Run(code, diag.NewSink())
	if !changed {
		t.Fatalf("expected constant folding to report a change")
	}
	got := code.Instructions[0]
	if got.Op != ir.OpAssign {
		t.Fatalf("expected rewrite to assign, got %s", got.Op)
	}
	if got.Operands[1].Imm.I != 5 {
		t.Fatalf("expected folded value 5, got %d", got.Operands[1].Imm.I)
	}
}

func TestConstantFoldingSkipsNonImmediates(t *testing.T) {
	ty := intType()
	code := newHolder()
	dst := code.NewReg(ty)
	a := code.NewReg(ty)
	b := ir.ImmInt64(3, ty)
	code.Emit(ir.BinOp(ir.OpIAdd, dst, a, b, source.Position{}))

	pass := NewConstantFolding()
	changed, _ := pass.Run(code, diag.NewSink())
	if changed {
		t.Fatalf("expected no change when one operand is a register")
	}
}

func TestConstantFoldingCompareProducesBool(t *testing.T) {
	ty := intType()
	code := newHolder()
	dst := code.NewReg(ty)
	a := ir.ImmInt64(2, ty)
	b := ir.ImmInt64(3, ty)
	code.Emit(ir.BinOp(ir.OpILt, dst, a, b, source.Position{}))

	pass := NewConstantFolding()
	changed, _ := pass.Run(code, diag.NewSink())
	if !changed {
		t.Fatalf("expected constant folding to report a change")
	}
	if code.Instructions[0].Operands[1].Imm.I != 1 {
		t.Fatalf("expected folded comparison to be true (1)")
	}
}

func TestConstantFoldingSkipsDivisionByZero(t *testing.T) {
	ty := intType()
	code := newHolder()
	dst := code.NewReg(ty)
	a := ir.ImmInt64(2, ty)
	b := ir.ImmInt64(0, ty)
	code.Emit(ir.BinOp(ir.OpIDiv, dst, a, b, source.Position{}))

	pass := NewConstantFolding()
	changed, _ := pass.Run(code, diag.NewSink())
	if changed {
		t.Fatalf("expected no fold on division by a zero immediate")
	}
}

func TestReduceMemoryAccessRewritesLoadAfterStore(t *testing.T) {
	ty := intType()
	code := newHolder()
	src := code.NewReg(ty)
	addr := ir.StackValue(0, ty)
	code.Emit(ir.Store(src, addr, ir.ImmInt64(0, nil), source.Position{}))
	dst := code.NewReg(ty)
	code.Emit(ir.Load(dst, addr, ir.ImmInt64(0, nil), source.Position{}))

	pass := NewReduceMemoryAccess()
	changed, _ := pass.Run(code, diag.NewSink())
	if !changed {
		t.Fatalf("expected reduce-memory-access to rewrite the redundant load")
	}
	got := code.Instructions[1]
	if got.Op != ir.OpAssign {
		t.Fatalf("expected load to become assign, got %s", got.Op)
	}
	if !got.Operands[1].Equal(src) {
		t.Fatalf("expected assign source to be the stored register")
	}
}

func TestReduceMemoryAccessRewritesRepeatedLoad(t *testing.T) {
	ty := intType()
	code := newHolder()
	addr := ir.StackValue(8, ty)
	first := code.NewReg(ty)
	code.Emit(ir.Load(first, addr, ir.ImmInt64(0, nil), source.Position{}))
	second := code.NewReg(ty)
	code.Emit(ir.Load(second, addr, ir.ImmInt64(0, nil), source.Position{}))

	pass := NewReduceMemoryAccess()
	changed, _ := pass.Run(code, diag.NewSink())
	if !changed {
		t.Fatalf("expected the second load to be rewritten")
	}
	got := code.Instructions[1]
	if got.Op != ir.OpAssign || !got.Operands[1].Equal(first) {
		t.Fatalf("expected second load to become assign from the first load's register")
	}
}

func TestReduceMemoryAccessRewritesLoadFromItsOwnAddressStore(t *testing.T) {
	ty := intType()
	code := newHolder()
	addrA := ir.StackValue(0, ty)
	addrB := ir.StackValue(4, ty)
	src := code.NewReg(ty)
	code.Emit(ir.Store(src, addrA, ir.ImmInt64(0, nil), source.Position{}))
	other := code.NewReg(ty)
	code.Emit(ir.Store(other, addrB, ir.ImmInt64(0, nil), source.Position{}))
	dst := code.NewReg(ty)
	code.Emit(ir.Load(dst, addrB, ir.ImmInt64(0, nil), source.Position{}))

	pass := NewReduceMemoryAccess()
	changed, _ := pass.Run(code, diag.NewSink())
	if !changed {
		t.Fatalf("expected the addrB load to still be rewritten from its own store")
	}
	got := code.Instructions[2]
	if !got.Operands[1].Equal(other) {
		t.Fatalf("expected load to resolve to the most recent store to its own address")
	}
}

func TestDeadCodeEliminationDropsUnusedAssign(t *testing.T) {
	ty := intType()
	code := newHolder()
	dead := code.NewReg(ty)
	code.Emit(ir.Assign(dead, ir.ImmInt64(1, ty), source.Position{}))
	live := code.NewReg(ty)
	code.Emit(ir.Assign(live, ir.ImmInt64(2, ty), source.Position{}))
	code.Emit(ir.Ret(live, source.Position{}))

	pass := NewDeadCodeElimination()
	changed, _ := pass.Run(code, diag.NewSink())
	if !changed {
		t.Fatalf("expected dead code elimination to drop the unused assign")
	}
	if len(code.Instructions) != 2 {
		t.Fatalf("expected 2 surviving instructions, got %d", len(code.Instructions))
	}
	if !code.Instructions[0].Operands[0].Equal(live) {
		t.Fatalf("expected the live assign to survive")
	}
}

func TestDeadCodeEliminationKeepsSideEffects(t *testing.T) {
	ty := intType()
	code := newHolder()
	dst := code.NewReg(ty)
	addr := ir.StackValue(0, ty)
	code.Emit(ir.Store(dst, addr, ir.ImmInt64(0, nil), source.Position{}))

	pass := NewDeadCodeElimination()
	changed, _ := pass.Run(code, diag.NewSink())
	if changed {
		t.Fatalf("expected store to survive since it has side effects")
	}
	if len(code.Instructions) != 1 {
		t.Fatalf("expected the store instruction to remain")
	}
}

func TestManagerRunsToFixpoint(t *testing.T) {
	ty := intType()
	code := newHolder()
	dst := code.NewReg(ty)
	a := ir.ImmInt64(2, ty)
	b := ir.ImmInt64(3, ty)
	code.Emit(ir.BinOp(ir.OpIAdd, dst, a, b, source.Position{}))

	m := NewManager()
	m.Run(code, diag.NewSink())

	if len(code.Instructions) != 0 {
		t.Fatalf("expected the folded-but-unused assign to be eliminated by dce, got %d instructions", len(code.Instructions))
	}
}
