package ir

// OpCode is one IR instruction opcode.
type OpCode int

const (
	OpInvalid OpCode = iota

	// Memory.
	OpLoad       // D S [K_off]
	OpStore      // S D [K_off]
	OpStackAlloc // D K_size
	OpStackFree  // D
	OpModuleData // D K_modId K_off

	// Signed integer arithmetic.
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpIMod

	// Unsigned integer arithmetic.
	OpUAdd
	OpUSub
	OpUMul
	OpUDiv
	OpUMod

	// Single-precision float arithmetic.
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFMod

	// Double-precision float arithmetic.
	OpDAdd
	OpDSub
	OpDMul
	OpDDiv
	OpDMod

	// Shift / bitwise.
	OpShl
	OpShr
	OpBAnd
	OpBOr
	OpXor
	OpInv // D S (unary bitwise complement)

	// Logical.
	OpLAnd
	OpLOr
	OpNot // D S (unary)

	// Signed integer compare.
	OpILt
	OpILte
	OpIGt
	OpIGte
	OpIEq
	OpINeq

	// Unsigned integer compare.
	OpULt
	OpULte
	OpUGt
	OpUGte
	OpUEq
	OpUNeq

	// Single-precision float compare.
	OpFLt
	OpFLte
	OpFGt
	OpFGte
	OpFEq
	OpFNeq

	// Double-precision float compare.
	OpDLt
	OpDLte
	OpDGt
	OpDGte
	OpDEq
	OpDNeq

	// Negate.
	OpINeg
	OpFNeg
	OpDNeg

	// Convert.
	OpCvt // D S K_fromTypeId K_toTypeId

	// Control flow.
	OpBranch // S L_true
	OpJump   // L
	OpLabel  // L

	// Structured meta-instructions, consumed by backends reconstructing
	// control flow.
	OpMetaIfBranch
	OpMetaForLoop
	OpMetaWhileLoop
	OpMetaDoWhileLoop

	// Calls.
	OpCall  // [D] F
	OpParam // S F
	OpRet   // [S]

	// Assign.
	OpAssign // D S

	opCodeCount
)

// Info is the opcode-info table entry the optimizer and backend rely on as
// their contract: operand shape, which operand (if any) is assigned,
// whether the instruction has side effects, and whether it reads or
// writes memory.
type Info struct {
	OperandCount int
	// AssignsOperand is the operand index that receives the instruction's
	// result, or -1 if the instruction assigns nothing.
	AssignsOperand int
	HasSideEffects bool
	ReadsMemory    bool
	WritesMemory   bool
}

var opcodeInfo = [opCodeCount]Info{
	OpInvalid: {0, -1, false, false, false},

	OpLoad:       {3, 0, false, true, false},
	OpStore:      {3, -1, true, false, true},
	OpStackAlloc: {2, 0, true, false, false},
	OpStackFree:  {1, -1, true, false, false},
	OpModuleData: {3, 0, false, true, false},

	OpIAdd: binOp(), OpISub: binOp(), OpIMul: binOp(), OpIDiv: binOp(), OpIMod: binOp(),
	OpUAdd: binOp(), OpUSub: binOp(), OpUMul: binOp(), OpUDiv: binOp(), OpUMod: binOp(),
	OpFAdd: binOp(), OpFSub: binOp(), OpFMul: binOp(), OpFDiv: binOp(), OpFMod: binOp(),
	OpDAdd: binOp(), OpDSub: binOp(), OpDMul: binOp(), OpDDiv: binOp(), OpDMod: binOp(),

	OpShl: binOp(), OpShr: binOp(), OpBAnd: binOp(), OpBOr: binOp(), OpXor: binOp(),
	OpInv: unOp(),

	OpLAnd: binOp(), OpLOr: binOp(), OpNot: unOp(),

	OpILt: binOp(), OpILte: binOp(), OpIGt: binOp(), OpIGte: binOp(), OpIEq: binOp(), OpINeq: binOp(),
	OpULt: binOp(), OpULte: binOp(), OpUGt: binOp(), OpUGte: binOp(), OpUEq: binOp(), OpUNeq: binOp(),
	OpFLt: binOp(), OpFLte: binOp(), OpFGt: binOp(), OpFGte: binOp(), OpFEq: binOp(), OpFNeq: binOp(),
	OpDLt: binOp(), OpDLte: binOp(), OpDGt: binOp(), OpDGte: binOp(), OpDEq: binOp(), OpDNeq: binOp(),

	OpINeg: unOp(), OpFNeg: unOp(), OpDNeg: unOp(),

	OpCvt: {2, 0, false, false, false},

	OpBranch: {1, -1, true, false, false},
	OpJump:   {0, -1, true, false, false},
	OpLabel:  {0, -1, false, false, false},

	OpMetaIfBranch:    {0, -1, false, false, false},
	OpMetaForLoop:     {0, -1, false, false, false},
	OpMetaWhileLoop:   {0, -1, false, false, false},
	OpMetaDoWhileLoop: {0, -1, false, false, false},

	OpCall:  {1, 0, true, false, false},
	OpParam: {1, -1, true, false, false},
	OpRet:   {1, -1, true, false, false},

	OpAssign: {2, 0, false, false, false},
}

func binOp() Info { return Info{OperandCount: 3, AssignsOperand: 0} }
func unOp() Info  { return Info{OperandCount: 2, AssignsOperand: 0} }

// OpInfo returns the contract entry for op.
func OpInfo(op OpCode) Info { return opcodeInfo[op] }

var opcodeNames = [opCodeCount]string{
	OpInvalid: "invalid",
	OpLoad:    "load", OpStore: "store", OpStackAlloc: "stack_alloc", OpStackFree: "stack_free", OpModuleData: "module_data",
	OpIAdd: "iadd", OpISub: "isub", OpIMul: "imul", OpIDiv: "idiv", OpIMod: "imod",
	OpUAdd: "uadd", OpUSub: "usub", OpUMul: "umul", OpUDiv: "udiv", OpUMod: "umod",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFMod: "fmod",
	OpDAdd: "dadd", OpDSub: "dsub", OpDMul: "dmul", OpDDiv: "ddiv", OpDMod: "dmod",
	OpShl: "shl", OpShr: "shr", OpBAnd: "band", OpBOr: "bor", OpXor: "xor", OpInv: "inv",
	OpLAnd: "land", OpLOr: "lor", OpNot: "not",
	OpILt: "ilt", OpILte: "ilte", OpIGt: "igt", OpIGte: "igte", OpIEq: "ieq", OpINeq: "ineq",
	OpULt: "ult", OpULte: "ulte", OpUGt: "ugt", OpUGte: "ugte", OpUEq: "ueq", OpUNeq: "uneq",
	OpFLt: "flt", OpFLte: "flte", OpFGt: "fgt", OpFGte: "fgte", OpFEq: "feq", OpFNeq: "fneq",
	OpDLt: "dlt", OpDLte: "dlte", OpDGt: "dgt", OpDGte: "dgte", OpDEq: "deq", OpDNeq: "dneq",
	OpINeg: "ineg", OpFNeg: "fneg", OpDNeg: "dneg",
	OpCvt: "cvt",
	OpBranch: "branch", OpJump: "jump", OpLabel: "label",
	OpMetaIfBranch: "meta_if_branch", OpMetaForLoop: "meta_for_loop", OpMetaWhileLoop: "meta_while_loop", OpMetaDoWhileLoop: "meta_do_while_loop",
	OpCall: "call", OpParam: "param", OpRet: "ret",
	OpAssign: "assign",
}

func (op OpCode) String() string {
	if int(op) < 0 || int(op) >= int(opCodeCount) {
		return "unknown"
	}
	return opcodeNames[op]
}
