package optimize

import (
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/types"
)

// ConstantFolding rewrites any three-operand arithmetic/compare/bitwise
// instruction whose both source operands are immediates to `assign D
// K_result`, computed at compile time using the operand-type-directed
// selection. The two-operand negate/not/inv family gets the same
// treatment with a single immediate source.
type ConstantFolding struct{}

func NewConstantFolding() *ConstantFolding { return &ConstantFolding{} }

func (p *ConstantFolding) Name() string { return "constant-folding" }

func (p *ConstantFolding) Run(code *ir.CodeHolder, d *diag.Sink) (bool, bool) {
	changed := false
	for i := range code.Instructions {
		in := &code.Instructions[i]
		if rewritten, ok := foldInstruction(*in); ok {
			*in = rewritten
			changed = true
		}
	}
	return changed, false
}

func foldInstruction(in ir.Instruction) (ir.Instruction, bool) {
	info := ir.OpInfo(in.Op)
	if info.AssignsOperand < 0 {
		return in, false
	}

	switch in.NumOperands {
	case 3:
		a, b := in.Operands[1], in.Operands[2]
		if a.Kind != ir.Imm || b.Kind != ir.Imm {
			return in, false
		}
		result, ok := foldBinary(in.Op, a, b)
		if !ok {
			return in, false
		}
		return ir.Assign(in.Operands[0], result, in.Pos), true
	case 2:
		if in.Op == ir.OpCvt {
			return in, false
		}
		a := in.Operands[1]
		if a.Kind != ir.Imm {
			return in, false
		}
		result, ok := foldUnary(in.Op, a)
		if !ok {
			return in, false
		}
		return ir.Assign(in.Operands[0], result, in.Pos), true
	}
	return in, false
}

func isCompareOp(op ir.OpCode) bool {
	switch op {
	case ir.OpILt, ir.OpILte, ir.OpIGt, ir.OpIGte, ir.OpIEq, ir.OpINeq,
		ir.OpULt, ir.OpULte, ir.OpUGt, ir.OpUGte, ir.OpUEq, ir.OpUNeq,
		ir.OpFLt, ir.OpFLte, ir.OpFGt, ir.OpFGte, ir.OpFEq, ir.OpFNeq,
		ir.OpDLt, ir.OpDLte, ir.OpDGt, ir.OpDGte, ir.OpDEq, ir.OpDNeq:
		return true
	}
	return false
}

func boolValue(b bool, t *types.Type) ir.Value {
	v := int64(0)
	if b {
		v = 1
	}
	return ir.ImmInt64(v, t)
}

func foldBinary(op ir.OpCode, a, b ir.Value) (ir.Value, bool) {
	switch op {
	case ir.OpIAdd, ir.OpUAdd, ir.OpFAdd, ir.OpDAdd:
		return foldArith(op, a, b, func(x, y int64) int64 { return x + y }, func(x, y uint64) uint64 { return x + y }, func(x, y float32) float32 { return x + y }, func(x, y float64) float64 { return x + y })
	case ir.OpISub, ir.OpUSub, ir.OpFSub, ir.OpDSub:
		return foldArith(op, a, b, func(x, y int64) int64 { return x - y }, func(x, y uint64) uint64 { return x - y }, func(x, y float32) float32 { return x - y }, func(x, y float64) float64 { return x - y })
	case ir.OpIMul, ir.OpUMul, ir.OpFMul, ir.OpDMul:
		return foldArith(op, a, b, func(x, y int64) int64 { return x * y }, func(x, y uint64) uint64 { return x * y }, func(x, y float32) float32 { return x * y }, func(x, y float64) float64 { return x * y })
	case ir.OpIDiv, ir.OpUDiv, ir.OpFDiv, ir.OpDDiv:
		if isZero(b) {
			return ir.Value{}, false
		}
		return foldArith(op, a, b, func(x, y int64) int64 { return x / y }, func(x, y uint64) uint64 { return x / y }, func(x, y float32) float32 { return x / y }, func(x, y float64) float64 { return x / y })
	case ir.OpIMod, ir.OpUMod, ir.OpFMod, ir.OpDMod:
		if isZero(b) {
			return ir.Value{}, false
		}
		return foldArith(op, a, b, func(x, y int64) int64 { return x % y }, func(x, y uint64) uint64 { return x % y }, nil, nil)
	}

	if isCompareOp(op) {
		return foldCompare(op, a, b)
	}

	switch op {
	case ir.OpBAnd:
		return ir.ImmInt64(a.Imm.I&b.Imm.I, a.Type), true
	case ir.OpBOr:
		return ir.ImmInt64(a.Imm.I|b.Imm.I, a.Type), true
	case ir.OpXor:
		return ir.ImmInt64(a.Imm.I^b.Imm.I, a.Type), true
	case ir.OpShl:
		return ir.ImmInt64(a.Imm.I<<uint(b.Imm.I), a.Type), true
	case ir.OpShr:
		return ir.ImmInt64(a.Imm.I>>uint(b.Imm.I), a.Type), true
	case ir.OpLAnd:
		return boolValue(a.Imm.I != 0 && b.Imm.I != 0, a.Type), true
	case ir.OpLOr:
		return boolValue(a.Imm.I != 0 || b.Imm.I != 0, a.Type), true
	}
	return ir.Value{}, false
}

func isZero(v ir.Value) bool {
	switch v.Imm.Kind {
	case ir.ImmInt:
		return v.Imm.I == 0
	case ir.ImmUint:
		return v.Imm.U == 0
	case ir.ImmFloat:
		return v.Imm.F32 == 0
	case ir.ImmDouble:
		return v.Imm.F64 == 0
	}
	return false
}

func foldArith(op ir.OpCode, a, b ir.Value, iFn func(int64, int64) int64, uFn func(uint64, uint64) uint64, fFn func(float32, float32) float32, dFn func(float64, float64) float64) (ir.Value, bool) {
	switch {
	case a.Imm.Kind == ir.ImmInt && iFn != nil:
		return ir.ImmInt64(iFn(a.Imm.I, b.Imm.I), a.Type), true
	case a.Imm.Kind == ir.ImmUint && uFn != nil:
		return ir.ImmUint64(uFn(a.Imm.U, b.Imm.U), a.Type), true
	case a.Imm.Kind == ir.ImmFloat && fFn != nil:
		return ir.ImmFloat32(fFn(a.Imm.F32, b.Imm.F32), a.Type), true
	case a.Imm.Kind == ir.ImmDouble && dFn != nil:
		return ir.ImmFloat64(dFn(a.Imm.F64, b.Imm.F64), a.Type), true
	}
	return ir.Value{}, false
}

func foldCompare(op ir.OpCode, a, b ir.Value) (ir.Value, bool) {
	var cmp int
	switch a.Imm.Kind {
	case ir.ImmInt:
		cmp = compareInt(a.Imm.I, b.Imm.I)
	case ir.ImmUint:
		cmp = compareUint(a.Imm.U, b.Imm.U)
	case ir.ImmFloat:
		cmp = compareFloat64(float64(a.Imm.F32), float64(b.Imm.F32))
	case ir.ImmDouble:
		cmp = compareFloat64(a.Imm.F64, b.Imm.F64)
	default:
		return ir.Value{}, false
	}

	var result bool
	switch op {
	case ir.OpILt, ir.OpULt, ir.OpFLt, ir.OpDLt:
		result = cmp < 0
	case ir.OpILte, ir.OpULte, ir.OpFLte, ir.OpDLte:
		result = cmp <= 0
	case ir.OpIGt, ir.OpUGt, ir.OpFGt, ir.OpDGt:
		result = cmp > 0
	case ir.OpIGte, ir.OpUGte, ir.OpFGte, ir.OpDGte:
		result = cmp >= 0
	case ir.OpIEq, ir.OpUEq, ir.OpFEq, ir.OpDEq:
		result = cmp == 0
	case ir.OpINeq, ir.OpUNeq, ir.OpFNeq, ir.OpDNeq:
		result = cmp != 0
	}
	return boolValue(result, a.Type), true
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func foldUnary(op ir.OpCode, a ir.Value) (ir.Value, bool) {
	switch op {
	case ir.OpINeg:
		return ir.ImmInt64(-a.Imm.I, a.Type), true
	case ir.OpFNeg:
		return ir.ImmFloat32(-a.Imm.F32, a.Type), true
	case ir.OpDNeg:
		return ir.ImmFloat64(-a.Imm.F64, a.Type), true
	case ir.OpNot:
		return boolValue(a.Imm.I == 0, a.Type), true
	case ir.OpInv:
		return ir.ImmInt64(^a.Imm.I, a.Type), true
	}
	return ir.Value{}, false
}
